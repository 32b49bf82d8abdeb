package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"OddsSync/internal/config"
	"OddsSync/internal/model"

	"github.com/redis/go-redis/v9"
)

// OddsCache 最新赔率缓存（odds:latest:<marketId>）与更新广播
type OddsCache struct {
	client  *redis.Client
	ttl     time.Duration
	channel string
}

// OddsUpdate 广播到订阅方的消息
type OddsUpdate struct {
	MarketID string                `json:"marketId"`
	Payload  *model.MarketSnapshot `json:"payload"`
}

// ConnectRedis 建立连接并 Ping
func ConnectRedis(ctx context.Context, cfg *config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return rdb, nil
}

func NewOddsCache(client *redis.Client, ttl time.Duration, channel string) *OddsCache {
	return &OddsCache{client: client, ttl: ttl, channel: channel}
}

func latestKey(marketID string) string { return "odds:latest:" + marketID }

// GetLatest 未命中返回 false
func (c *OddsCache) GetLatest(ctx context.Context, marketID string) (*model.MarketSnapshot, bool, error) {
	b, err := c.client.Get(ctx, latestKey(marketID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var snap model.MarketSnapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		return nil, false, err
	}
	return &snap, true, nil
}

func (c *OddsCache) SetLatest(ctx context.Context, snap *model.MarketSnapshot) error {
	b, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, latestKey(snap.MarketID), b, c.ttl).Err()
}

func (c *OddsCache) PublishUpdate(ctx context.Context, snap *model.MarketSnapshot) error {
	b, err := json.Marshal(OddsUpdate{MarketID: snap.MarketID, Payload: snap})
	if err != nil {
		return err
	}
	return c.client.Publish(ctx, c.channel, b).Err()
}

func (c *OddsCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
