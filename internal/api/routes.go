package api

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes 注册赔率相关路由
func RegisterRoutes(r *gin.Engine, odds *OddsHandler, sync *SyncHandler, health *HealthHandler) {
	g := r.Group("/odds")
	g.GET("/fetch", sync.FetchOdds)
	g.GET("/history/:marketId", odds.GetHistory)
	g.GET("/status", odds.GetStatus)
	g.GET("/latest/:marketId", odds.GetLatest)
	g.GET("/markets", odds.ListMarkets)
	g.GET("/competitions", odds.ListCompetitions)

	if health != nil {
		r.GET("/healthz", health.Healthz)
	}
}
