package vectorstore

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/docask/internal/config"
)

func TestClampTopK(t *testing.T) {
	require.Equal(t, DefaultTopK, ClampTopK(0))
	require.Equal(t, DefaultTopK, ClampTopK(-3))
	require.Equal(t, 1, ClampTopK(1))
	require.Equal(t, 7, ClampTopK(7))
	require.Equal(t, MaxTopK, ClampTopK(10))
	require.Equal(t, MaxTopK, ClampTopK(50))
}

func TestNew_UnknownType(t *testing.T) {
	_, err := New(config.VectorStoreConfig{Type: "milvus"})
	require.Error(t, err)
}

func TestNew_TypeRequired(t *testing.T) {
	_, err := New(config.VectorStoreConfig{})
	require.Error(t, err)
}

func TestBuildFilterClause(t *testing.T) {
	clause, args, err := buildFilterClause(nil, 2)
	require.NoError(t, err)
	require.Empty(t, clause)
	require.Empty(t, args)

	clause, args, err = buildFilterClause(map[string]string{
		"source_section":  "Intro",
		"source_document": "a.pdf",
	}, 2)
	require.NoError(t, err)
	// keys are sorted so the generated SQL is stable
	require.Equal(t, "WHERE source_document = $2 AND source_section = $3", clause)
	require.Equal(t, []interface{}{"a.pdf", "Intro"}, args)
}

func TestBuildFilterClause_RejectsUnknownField(t *testing.T) {
	_, _, err := buildFilterClause(map[string]string{"owner": "alice"}, 2)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unsupported filter field")
}
