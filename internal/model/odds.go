package model

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// MarketOdds 每个盘口一行，按 market_id upsert，始终保存最新一次抓取
type MarketOdds struct {
	ID          uint64         `gorm:"column:id;primaryKey;autoIncrement;comment:自增主键ID"`
	MarketID    string         `gorm:"column:market_id;type:varchar(64);uniqueIndex;not null;comment:盘口ID"`
	EventID     *int64         `gorm:"column:event_id;comment:上游赛事ID"`
	EventName   string         `gorm:"column:event_name;type:varchar(256);comment:赛事名称"`
	Competition string         `gorm:"column:competition;type:varchar(256);index;comment:联赛名称"`
	Odds        datatypes.JSON `gorm:"column:odds;not null;comment:上游原始赔率"`
	RunID       string         `gorm:"column:run_id;type:varchar(64);comment:抓取批次"`
	CapturedAt  time.Time      `gorm:"column:captured_at;not null;comment:抓取时间"`
	UpdatedAt   time.Time      `gorm:"column:updated_at;comment:更新时间"`
}

// MarketOddsHistory 追加写入的赔率历史，不更新不删除
type MarketOddsHistory struct {
	ID           uint64         `gorm:"column:id;primaryKey;autoIncrement;comment:自增主键ID"`
	SnapshotUUID string         `gorm:"column:snapshot_uuid;type:varchar(64);uniqueIndex;not null;comment:快照唯一ID"`
	MarketID     string         `gorm:"column:market_id;type:varchar(64);not null;index:idx_market_captured,priority:1;comment:盘口ID"`
	EventID      *int64         `gorm:"column:event_id;comment:上游赛事ID"`
	EventName    string         `gorm:"column:event_name;type:varchar(256);comment:赛事名称"`
	Competition  string         `gorm:"column:competition;type:varchar(256);comment:联赛名称"`
	Odds         datatypes.JSON `gorm:"column:odds;not null;comment:上游原始赔率"`
	RunID        string         `gorm:"column:run_id;type:varchar(64);comment:抓取批次"`
	CapturedAt   time.Time      `gorm:"column:captured_at;not null;index:idx_market_captured,priority:2;comment:抓取时间"`
}

func (MarketOdds) TableName() string        { return "market_odds" }
func (MarketOddsHistory) TableName() string { return "market_odds_history" }

// MarketSnapshot 对外暴露的赔率快照（API、缓存、service 之间传递，不带 gorm 标签）
type MarketSnapshot struct {
	MarketID    string          `json:"marketId"`
	EventID     *int64          `json:"eventId,omitempty"`
	EventName   string          `json:"eventName,omitempty"`
	Competition string          `json:"competition,omitempty"`
	Timestamp   time.Time       `json:"timestamp"`
	Odds        json.RawMessage `json:"odds"`
	RunID       string          `json:"runId,omitempty"`
}

// ToMarketOdds 转为最新赔率行
func (s *MarketSnapshot) ToMarketOdds() *MarketOdds {
	return &MarketOdds{
		MarketID:    s.MarketID,
		EventID:     s.EventID,
		EventName:   s.EventName,
		Competition: s.Competition,
		Odds:        datatypes.JSON(s.Odds),
		RunID:       s.RunID,
		CapturedAt:  s.Timestamp,
		UpdatedAt:   time.Now(),
	}
}

// ToHistory 转为历史行，snapshotUUID 由调用方生成
func (s *MarketSnapshot) ToHistory(snapshotUUID string) *MarketOddsHistory {
	return &MarketOddsHistory{
		SnapshotUUID: snapshotUUID,
		MarketID:     s.MarketID,
		EventID:      s.EventID,
		EventName:    s.EventName,
		Competition:  s.Competition,
		Odds:         datatypes.JSON(s.Odds),
		RunID:        s.RunID,
		CapturedAt:   s.Timestamp,
	}
}

// Snapshot 最新赔率行转快照
func (m *MarketOdds) Snapshot() MarketSnapshot {
	return MarketSnapshot{
		MarketID:    m.MarketID,
		EventID:     m.EventID,
		EventName:   m.EventName,
		Competition: m.Competition,
		Timestamp:   m.CapturedAt,
		Odds:        json.RawMessage(m.Odds),
		RunID:       m.RunID,
	}
}

// Snapshot 历史行转快照
func (h *MarketOddsHistory) Snapshot() MarketSnapshot {
	return MarketSnapshot{
		MarketID:    h.MarketID,
		EventID:     h.EventID,
		EventName:   h.EventName,
		Competition: h.Competition,
		Timestamp:   h.CapturedAt,
		Odds:        json.RawMessage(h.Odds),
		RunID:       h.RunID,
	}
}
