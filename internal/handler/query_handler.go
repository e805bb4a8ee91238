package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/xxxsen/docask/internal/pkg/errcode"
	"github.com/xxxsen/docask/internal/pkg/response"
	"github.com/xxxsen/docask/internal/service"
)

type QueryHandler struct {
	rag *service.RAGService
}

func NewQueryHandler(rag *service.RAGService) *QueryHandler {
	return &QueryHandler{rag: rag}
}

type queryRequest struct {
	Question string            `json:"question"`
	Filters  map[string]string `json:"filters"`
}

type searchRequest struct {
	Question string            `json:"question"`
	Filters  map[string]string `json:"filters"`
	TopK     int               `json:"top_k"`
}

func (h *QueryHandler) Query(c *gin.Context) {
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalidQuery, "invalid request")
		return
	}
	answer, err := h.rag.Query(c.Request.Context(), req.Question, req.Filters)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, answer)
}

func (h *QueryHandler) Search(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalidQuery, "invalid request")
		return
	}
	result, err := h.rag.Search(c.Request.Context(), req.Question, req.Filters, req.TopK)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, result)
}
