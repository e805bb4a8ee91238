package vectorstore

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/docask/internal/config"
	appErr "github.com/xxxsen/docask/internal/pkg/errors"
)

func newTestChromaStore(t *testing.T, baseURL string) Store {
	t.Helper()
	store, err := newChromaStore(config.VectorStoreConfig{
		Type:           "chroma",
		Collection:     "docs",
		TimeoutSeconds: 2,
		Chroma:         config.ChromaConfig{BaseURL: baseURL},
	})
	require.NoError(t, err)
	return store
}

func TestChromaQuery(t *testing.T) {
	var gotReq chromaQueryRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/collections/docs/query", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		resp := chromaQueryResponse{
			IDs:       [][]string{{"p1", "p2"}},
			Documents: [][]string{{"first passage", "second passage"}},
			Metadatas: [][]map[string]interface{}{{
				{"source_document": "guide.pdf", "source_section": "Setup", "page": float64(3), "chunk_index": float64(0)},
				{"source_document": "guide.pdf", "source_section": "Usage", "chunk_index": float64(4)},
			}},
			Distances: [][]float64{{0.08, 0.31}},
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer srv.Close()

	store := newTestChromaStore(t, srv.URL)
	passages, err := store.Query(context.Background(), []float32{0.1, 0.2}, map[string]string{"source_document": "guide.pdf"}, 2)
	require.NoError(t, err)
	require.Equal(t, 2, gotReq.NResults)
	require.Equal(t, map[string]interface{}{"source_document": "guide.pdf"}, gotReq.Where)

	require.Len(t, passages, 2)
	require.Equal(t, "p1", passages[0].ID)
	require.Equal(t, "first passage", passages[0].Text)
	require.Equal(t, "guide.pdf", passages[0].SourceDocument)
	require.Equal(t, "Setup", passages[0].SourceSection)
	require.Equal(t, 3, passages[0].Page)
	require.InDelta(t, 0.92, passages[0].Similarity, 1e-9)
	require.Equal(t, 0, passages[1].Page)
	require.InDelta(t, 0.69, passages[1].Similarity, 1e-9)
	// the store's ranking must be preserved as-is
	require.Greater(t, passages[0].Similarity, passages[1].Similarity)
}

func TestChromaQuery_ServerErrorIsRetrievalUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "collection not found", http.StatusInternalServerError)
	}))
	defer srv.Close()

	store := newTestChromaStore(t, srv.URL)
	_, err := store.Query(context.Background(), []float32{0.1}, nil, 5)
	require.ErrorIs(t, err, appErr.ErrRetrievalUnavailable)
}

func TestChromaQuery_ConnRefusedIsRetrievalUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	store := newTestChromaStore(t, srv.URL)
	_, err := store.Query(context.Background(), []float32{0.1}, nil, 5)
	require.ErrorIs(t, err, appErr.ErrRetrievalUnavailable)
}

func TestChromaPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/heartbeat", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	store := newTestChromaStore(t, srv.URL)
	require.NoError(t, store.Ping(context.Background()))
}

func TestBuildChromaWhere(t *testing.T) {
	require.Nil(t, buildChromaWhere(nil))
	require.Equal(t,
		map[string]interface{}{"source_document": "a.pdf"},
		buildChromaWhere(map[string]string{"source_document": "a.pdf"}))

	multi := buildChromaWhere(map[string]string{"source_document": "a.pdf", "source_section": "Intro"})
	conds, ok := multi["$and"].([]map[string]interface{})
	require.True(t, ok)
	require.Len(t, conds, 2)
	require.Contains(t, conds, map[string]interface{}{"source_document": "a.pdf"})
	require.Contains(t, conds, map[string]interface{}{"source_section": "Intro"})
}

func TestConvertChromaResult_Empty(t *testing.T) {
	require.Empty(t, convertChromaResult(&chromaQueryResponse{}))
}

func TestClampUnit(t *testing.T) {
	require.Equal(t, 0.0, clampUnit(-0.2))
	require.Equal(t, 1.0, clampUnit(1.7))
	require.Equal(t, 0.5, clampUnit(0.5))
}
