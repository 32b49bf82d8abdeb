package repository

import (
	"context"
	"errors"
	"fmt"

	"OddsSync/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrSnapshotNotFound 盘口没有任何赔率记录
var ErrSnapshotNotFound = errors.New("盘口赔率不存在")

// MaxPageSize 列表接口单页上限，超出按上限返回
const MaxPageSize = 100

// OddsFilter 最新赔率列表筛选条件
type OddsFilter struct {
	Competition string // 联赛名称，空表示不过滤
}

// OddsRepository 赔率仓储：market_odds 保存最新一条，market_odds_history 追加全部历史
type OddsRepository interface {
	// SaveSnapshot 同一事务内 upsert 最新赔率并追加一条历史
	SaveSnapshot(ctx context.Context, snap *model.MarketSnapshot) error
	// History 按抓取时间升序返回盘口全部历史，未知盘口返回空切片
	History(ctx context.Context, marketID string) ([]model.MarketSnapshot, error)
	// Latest 返回盘口最新赔率，不存在返回 ErrSnapshotNotFound
	Latest(ctx context.Context, marketID string) (*model.MarketSnapshot, error)
	// ListLatest 分页查询最新赔率
	ListLatest(ctx context.Context, filter OddsFilter, page, pageSize int) ([]model.MarketSnapshot, int64, error)
	// ListCompetitions 已入库的联赛名称（去重、升序）
	ListCompetitions(ctx context.Context) ([]string, error)
	Ping(ctx context.Context) error
}

type oddsRepository struct {
	db *gorm.DB
}

// NewOddsRepository 创建 OddsRepository 实例
func NewOddsRepository(db *gorm.DB) OddsRepository {
	return &oddsRepository{db: db}
}

// AutoMigrate 建表（不存在则创建）
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&model.MarketOdds{}, &model.MarketOddsHistory{})
}

func (r *oddsRepository) SaveSnapshot(ctx context.Context, snap *model.MarketSnapshot) error {
	if snap == nil || snap.MarketID == "" {
		return fmt.Errorf("保存赔率失败: market_id 为空")
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		latest := snap.ToMarketOdds()
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "market_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"event_id", "event_name", "competition", "odds", "run_id", "captured_at", "updated_at",
			}),
		}).Create(latest).Error; err != nil {
			return fmt.Errorf("upsert最新赔率失败: %w, market_id: %s", err, snap.MarketID)
		}

		if err := tx.Create(snap.ToHistory(uuid.NewString())).Error; err != nil {
			return fmt.Errorf("写入赔率历史失败: %w, market_id: %s", err, snap.MarketID)
		}
		return nil
	})
}

func (r *oddsRepository) History(ctx context.Context, marketID string) ([]model.MarketSnapshot, error) {
	var rows []*model.MarketOddsHistory
	if err := r.db.WithContext(ctx).
		Where("market_id = ?", marketID).
		Order("captured_at ASC").
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	history := make([]model.MarketSnapshot, 0, len(rows))
	for _, row := range rows {
		history = append(history, row.Snapshot())
	}
	return history, nil
}

func (r *oddsRepository) Latest(ctx context.Context, marketID string) (*model.MarketSnapshot, error) {
	var row model.MarketOdds
	if err := r.db.WithContext(ctx).Where("market_id = ?", marketID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSnapshotNotFound
		}
		return nil, err
	}
	snap := row.Snapshot()
	return &snap, nil
}

func (r *oddsRepository) ListLatest(ctx context.Context, filter OddsFilter, page, pageSize int) ([]model.MarketSnapshot, int64, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	db := r.db.WithContext(ctx).Model(&model.MarketOdds{})
	if filter.Competition != "" {
		db = db.Where("competition = ?", filter.Competition)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []*model.MarketOdds
	if err := db.
		Order("competition ASC").
		Order("event_name ASC").
		Order("market_id ASC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	items := make([]model.MarketSnapshot, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.Snapshot())
	}
	return items, total, nil
}

func (r *oddsRepository) ListCompetitions(ctx context.Context) ([]string, error) {
	competitions := make([]string, 0)
	if err := r.db.WithContext(ctx).
		Model(&model.MarketOdds{}).
		Where("competition <> ?", "").
		Distinct("competition").
		Order("competition ASC").
		Pluck("competition", &competitions).Error; err != nil {
		return nil, err
	}
	return competitions, nil
}

func (r *oddsRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
