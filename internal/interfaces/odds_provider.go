package interfaces

import (
	"context"
	"encoding/json"

	"OddsSync/internal/model"
)

// OddsProvider 上游赔率源必须实现的接口：赛事列表 + 单盘口赔率
type OddsProvider interface {
	GetName() string
	// FetchEvents 拉取全部进行中/未开赛赛事
	FetchEvents(ctx context.Context) ([]model.UpstreamEvent, error)
	// FetchMarketOdds 按盘口ID拉取当前赔率，返回上游 data 字段原文
	FetchMarketOdds(ctx context.Context, marketID string) (json.RawMessage, error)
}
