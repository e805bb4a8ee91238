package vectorstore

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"github.com/xxxsen/docask/internal/config"
	"github.com/xxxsen/docask/internal/model"
	appErr "github.com/xxxsen/docask/internal/pkg/errors"
)

// filterableColumns is the closed set of metadata fields callers may filter
// on. Filter keys outside this set are rejected instead of interpolated.
var filterableColumns = map[string]struct{}{
	"source_document": {},
	"source_section":  {},
	"page":            {},
	"chunk_index":     {},
}

type pgvectorStore struct {
	db      *sql.DB
	table   string
	timeout time.Duration
}

func newPgvectorStore(cfg config.VectorStoreConfig) (Store, error) {
	dsn := cfg.Database.DSN
	if dsn == "" {
		sslmode := cfg.Database.SSLMode
		if sslmode == "" {
			sslmode = "disable"
		}
		dsn = fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			cfg.Database.Host, cfg.Database.Port, cfg.Database.User, cfg.Database.Password, cfg.Database.DBName, sslmode)
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open pgvector db: %w", err)
	}
	table := cfg.Database.Table
	if table == "" {
		table = "passages"
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &pgvectorStore{db: db, table: table, timeout: timeout}, nil
}

func (s *pgvectorStore) Query(ctx context.Context, vector []float32, filters map[string]string, topK int) ([]model.RetrievedPassage, error) {
	whereClause, args, err := buildFilterClause(filters, 2)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`
		SELECT id, content, source_document, source_section, COALESCE(page, 0), chunk_index,
		       1 - (embedding <=> $1) AS similarity
		FROM %s
		%s
		ORDER BY embedding <=> $1
		LIMIT %d
	`, s.table, whereClause, ClampTopK(topK))

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	queryArgs := append([]interface{}{pgvector.NewVector(vector)}, args...)
	rows, err := s.db.QueryContext(callCtx, query, queryArgs...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", appErr.ErrRetrievalUnavailable, err)
	}
	defer rows.Close()

	var passages []model.RetrievedPassage
	for rows.Next() {
		var p model.RetrievedPassage
		if err := rows.Scan(&p.ID, &p.Text, &p.SourceDocument, &p.SourceSection, &p.Page, &p.ChunkIndex, &p.Similarity); err != nil {
			return nil, fmt.Errorf("%w: scan: %v", appErr.ErrRetrievalUnavailable, err)
		}
		p.Similarity = clampUnit(p.Similarity)
		passages = append(passages, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", appErr.ErrRetrievalUnavailable, err)
	}
	return passages, nil
}

func (s *pgvectorStore) Ping(ctx context.Context) error {
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.db.PingContext(callCtx); err != nil {
		return fmt.Errorf("%w: %v", appErr.ErrRetrievalUnavailable, err)
	}
	return nil
}

func buildFilterClause(filters map[string]string, startIdx int) (string, []interface{}, error) {
	if len(filters) == 0 {
		return "", nil, nil
	}
	keys := make([]string, 0, len(filters))
	for key := range filters {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	conds := make([]string, 0, len(filters))
	args := make([]interface{}, 0, len(filters))
	idx := startIdx
	for _, key := range keys {
		if _, ok := filterableColumns[key]; !ok {
			return "", nil, fmt.Errorf("unsupported filter field: %s", key)
		}
		conds = append(conds, fmt.Sprintf("%s = $%d", key, idx))
		args = append(args, filters[key])
		idx++
	}
	return "WHERE " + strings.Join(conds, " AND "), args, nil
}

func init() {
	Register("pgvector", newPgvectorStore)
}
