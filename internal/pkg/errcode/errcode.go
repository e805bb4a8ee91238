package errcode

const (
	ErrUnknown = 10000000 + iota
	ErrInvalidQuery
	ErrEmbeddingUnavailable
	ErrRetrievalUnavailable
	ErrGenerationUnavailable
	ErrGenerationTimeout
	ErrTooMany
	ErrInternal
)
