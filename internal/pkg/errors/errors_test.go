package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsUnavailable(t *testing.T) {
	require.True(t, IsUnavailable(ErrEmbeddingUnavailable))
	require.True(t, IsUnavailable(ErrRetrievalUnavailable))
	require.True(t, IsUnavailable(fmt.Errorf("%w: conn refused", ErrGenerationUnavailable)))
	require.False(t, IsUnavailable(ErrGenerationTimeout))
	require.False(t, IsUnavailable(ErrInvalidQuery))
	require.False(t, IsUnavailable(nil))
}

func TestIsInvalidQuery(t *testing.T) {
	require.True(t, IsInvalidQuery(fmt.Errorf("%w: empty text", ErrInvalidQuery)))
	require.False(t, IsInvalidQuery(ErrEmbeddingUnavailable))
}
