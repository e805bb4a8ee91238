package handler

import (
	"github.com/gin-gonic/gin"
)

type RouterDeps struct {
	Query  *QueryHandler
	Health *HealthHandler
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.POST("/query", deps.Query.Query)
	api.POST("/search", deps.Query.Search)
	api.GET("/health", deps.Health.Health)
	api.GET("/cache/stats", deps.Health.CacheStats)
}
