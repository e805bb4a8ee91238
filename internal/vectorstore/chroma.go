package vectorstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	appErr "github.com/xxxsen/docask/internal/pkg/errors"

	"github.com/xxxsen/docask/internal/config"
	"github.com/xxxsen/docask/internal/model"
)

type chromaStore struct {
	baseURL    string
	collection string
	timeout    time.Duration
	client     *http.Client
}

type chromaQueryRequest struct {
	QueryEmbeddings [][]float32            `json:"query_embeddings"`
	NResults        int                    `json:"n_results"`
	Where           map[string]interface{} `json:"where,omitempty"`
	Include         []string               `json:"include"`
}

type chromaQueryResponse struct {
	IDs       [][]string                 `json:"ids"`
	Documents [][]string                 `json:"documents"`
	Metadatas [][]map[string]interface{} `json:"metadatas"`
	Distances [][]float64                `json:"distances"`
}

func newChromaStore(cfg config.VectorStoreConfig) (Store, error) {
	baseURL := strings.TrimSpace(cfg.Chroma.BaseURL)
	if baseURL == "" {
		return nil, fmt.Errorf("vector_store.chroma.base_url is required")
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &chromaStore{
		baseURL:    strings.TrimRight(baseURL, "/"),
		collection: cfg.Collection,
		timeout:    timeout,
		client:     &http.Client{Timeout: timeout},
	}, nil
}

func (s *chromaStore) Query(ctx context.Context, vector []float32, filters map[string]string, topK int) ([]model.RetrievedPassage, error) {
	reqBody := chromaQueryRequest{
		QueryEmbeddings: [][]float32{vector},
		NResults:        ClampTopK(topK),
		Where:           buildChromaWhere(filters),
		Include:         []string{"documents", "metadatas", "distances"},
	}
	data, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}
	endpoint := fmt.Sprintf("%s/api/v1/collections/%s/query", s.baseURL, s.collection)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", appErr.ErrRetrievalUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: query failed: %s: %s",
			appErr.ErrRetrievalUnavailable, resp.Status, strings.TrimSpace(string(body)))
	}
	var out chromaQueryResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", appErr.ErrRetrievalUnavailable, err)
	}
	return convertChromaResult(&out), nil
}

func (s *chromaStore) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/api/v1/heartbeat", nil)
	if err != nil {
		return err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", appErr.ErrRetrievalUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: heartbeat: %s", appErr.ErrRetrievalUnavailable, resp.Status)
	}
	return nil
}

// buildChromaWhere maps an exact-match filter conjunction onto chroma's
// where grammar. Two or more conditions need an explicit $and.
func buildChromaWhere(filters map[string]string) map[string]interface{} {
	if len(filters) == 0 {
		return nil
	}
	if len(filters) == 1 {
		for k, v := range filters {
			return map[string]interface{}{k: v}
		}
	}
	conds := make([]map[string]interface{}, 0, len(filters))
	for k, v := range filters {
		conds = append(conds, map[string]interface{}{k: v})
	}
	return map[string]interface{}{"$and": conds}
}

// convertChromaResult keeps the store's own ordering: chroma already ranks
// by ascending distance, so no re-sort happens here.
func convertChromaResult(out *chromaQueryResponse) []model.RetrievedPassage {
	if len(out.IDs) == 0 {
		return nil
	}
	ids := out.IDs[0]
	passages := make([]model.RetrievedPassage, 0, len(ids))
	for i, id := range ids {
		p := model.RetrievedPassage{
			ID:         id,
			Similarity: 1.0,
		}
		if len(out.Documents) > 0 && i < len(out.Documents[0]) {
			p.Text = out.Documents[0][i]
		}
		if len(out.Distances) > 0 && i < len(out.Distances[0]) {
			p.Similarity = clampUnit(1 - out.Distances[0][i])
		}
		if len(out.Metadatas) > 0 && i < len(out.Metadatas[0]) {
			meta := out.Metadatas[0][i]
			p.SourceDocument = metaString(meta, "source_document")
			p.SourceSection = metaString(meta, "source_section")
			p.Page = metaInt(meta, "page")
			p.ChunkIndex = metaInt(meta, "chunk_index")
		}
		passages = append(passages, p)
	}
	return passages
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func metaString(meta map[string]interface{}, key string) string {
	if v, ok := meta[key].(string); ok {
		return v
	}
	return ""
}

func metaInt(meta map[string]interface{}, key string) int {
	switch v := meta[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return 0
}

func init() {
	Register("chroma", newChromaStore)
}
