package errors

import "errors"

var (
	ErrInvalidQuery          = errors.New("invalid query")
	ErrEmbeddingUnavailable  = errors.New("embedding service unavailable")
	ErrRetrievalUnavailable  = errors.New("vector store unavailable")
	ErrGenerationUnavailable = errors.New("generation engine unavailable")
	ErrGenerationTimeout     = errors.New("generation timed out")
	ErrInternal              = errors.New("internal")
	ErrTooMany               = errors.New("too many requests")
)

func IsUnavailable(err error) bool {
	return errors.Is(err, ErrEmbeddingUnavailable) ||
		errors.Is(err, ErrRetrievalUnavailable) ||
		errors.Is(err, ErrGenerationUnavailable)
}

func IsInvalidQuery(err error) bool {
	return errors.Is(err, ErrInvalidQuery)
}
