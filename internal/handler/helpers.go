package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/docask/internal/pkg/errcode"
	appErr "github.com/xxxsen/docask/internal/pkg/errors"
	"github.com/xxxsen/docask/internal/pkg/response"
)

// handleError maps taxonomy errors onto stable error codes. Unavailability
// of a collaborator is a service failure, never disguised as a not-found
// answer.
func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	logutil.GetLogger(c.Request.Context()).Error("request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Error(err),
	)
	switch {
	case appErr.IsInvalidQuery(err):
		response.Error(c, errcode.ErrInvalidQuery, "question must be 3-1000 characters")
	case errors.Is(err, appErr.ErrEmbeddingUnavailable):
		response.Error(c, errcode.ErrEmbeddingUnavailable, "embedding service unavailable")
	case errors.Is(err, appErr.ErrRetrievalUnavailable):
		response.Error(c, errcode.ErrRetrievalUnavailable, "vector store unavailable")
	case errors.Is(err, appErr.ErrGenerationTimeout):
		response.Error(c, errcode.ErrGenerationTimeout, "generation timed out")
	case errors.Is(err, appErr.ErrGenerationUnavailable):
		response.Error(c, errcode.ErrGenerationUnavailable, "generation engine unavailable")
	default:
		response.Error(c, errcode.ErrInternal, "internal error")
	}
}
