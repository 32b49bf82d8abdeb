package interfaces

import (
	"context"

	"OddsSync/internal/model"
)

// SnapshotCache 最新赔率缓存 + 更新广播
type SnapshotCache interface {
	GetLatest(ctx context.Context, marketID string) (*model.MarketSnapshot, bool, error)
	SetLatest(ctx context.Context, snap *model.MarketSnapshot) error
	PublishUpdate(ctx context.Context, snap *model.MarketSnapshot) error
	Ping(ctx context.Context) error
}
