package api

import (
	"context"
	"fmt"
	"net/http"

	"OddsSync/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// CycleTrigger 手动触发同步（与定时任务共用 single-flight）
type CycleTrigger interface {
	Trigger(ctx context.Context) (*service.CycleResult, error)
}

type SyncHandler struct {
	trigger CycleTrigger
	logger  *logrus.Logger
}

func NewSyncHandler(trigger CycleTrigger, logger *logrus.Logger) *SyncHandler {
	return &SyncHandler{
		trigger: trigger,
		logger:  logger,
	}
}

// FetchOdds 手动拉取并保存足球赔率
// GET /odds/fetch
func (h *SyncHandler) FetchOdds(c *gin.Context) {
	result, err := h.trigger.Trigger(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("手动同步赔率失败")
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": fmt.Sprintf("足球赔率拉取并保存完成：符合条件%d场，保存%d条，失败%d条",
			result.Qualified, result.Saved, result.Failed),
		"count": result.Saved,
	})
}
