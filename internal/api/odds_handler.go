package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"OddsSync/internal/model"
	"OddsSync/internal/repository"
	"OddsSync/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// StatusProvider 最近一次同步状态
type StatusProvider interface {
	Status() model.IngestionStatus
}

// OddsHandler 只读赔率查询接口（给前端页面用）
type OddsHandler struct {
	query  *service.OddsQueryService
	status StatusProvider
	logger *logrus.Logger
}

func NewOddsHandler(query *service.OddsQueryService, status StatusProvider, logger *logrus.Logger) *OddsHandler {
	return &OddsHandler{
		query:  query,
		status: status,
		logger: logger,
	}
}

// GetHistory 盘口赔率历史（按时间升序），未知盘口返回空数组
// GET /odds/history/:marketId
func (h *OddsHandler) GetHistory(c *gin.Context) {
	marketID := strings.TrimSpace(c.Param("marketId"))
	history, err := h.query.History(c.Request.Context(), marketID)
	if err != nil {
		h.logger.WithError(err).WithField("market_id", marketID).Error("GetHistory failed")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": history})
}

// GetStatus 最近一次同步状态，首轮完成前返回初始值
// GET /odds/status
func (h *OddsHandler) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "status": h.status.Status()})
}

// GetLatest 盘口最新赔率
// GET /odds/latest/:marketId
func (h *OddsHandler) GetLatest(c *gin.Context) {
	marketID := strings.TrimSpace(c.Param("marketId"))
	snap, err := h.query.Latest(c.Request.Context(), marketID)
	if err != nil {
		if errors.Is(err, repository.ErrSnapshotNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": err.Error()})
			return
		}
		h.logger.WithError(err).WithField("market_id", marketID).Error("GetLatest failed")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": snap})
}

// ListMarkets 各盘口最新赔率列表
// GET /odds/markets?competition=Premier%20League&page=1&page_size=20
func (h *OddsHandler) ListMarkets(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	filter := repository.OddsFilter{Competition: c.Query("competition")}

	result, err := h.query.ListLatest(c.Request.Context(), filter, page, pageSize)
	if err != nil {
		h.logger.WithError(err).Error("ListMarkets failed")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": result})
}

// ListCompetitions 已入库的联赛
// GET /odds/competitions
func (h *OddsHandler) ListCompetitions(c *gin.Context) {
	competitions, err := h.query.Competitions(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("ListCompetitions failed")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(competitions), "data": competitions})
}
