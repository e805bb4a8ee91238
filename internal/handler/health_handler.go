package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/xxxsen/docask/internal/pkg/response"
	"github.com/xxxsen/docask/internal/service"
)

type HealthHandler struct {
	rag *service.RAGService
}

func NewHealthHandler(rag *service.RAGService) *HealthHandler {
	return &HealthHandler{rag: rag}
}

func (h *HealthHandler) Health(c *gin.Context) {
	response.Success(c, h.rag.Health(c.Request.Context()))
}

func (h *HealthHandler) CacheStats(c *gin.Context) {
	response.Success(c, h.rag.Stats())
}
