package service

import (
	"context"

	"OddsSync/internal/interfaces"
	"OddsSync/internal/model"
	"OddsSync/internal/repository"

	"github.com/sirupsen/logrus"
)

// OddsQueryService 只读查询：历史、最新、列表、联赛
type OddsQueryService struct {
	repo   repository.OddsRepository
	cache  interfaces.SnapshotCache // 可为 nil
	logger *logrus.Logger
}

func NewOddsQueryService(repo repository.OddsRepository, cache interfaces.SnapshotCache, logger *logrus.Logger) *OddsQueryService {
	return &OddsQueryService{
		repo:   repo,
		cache:  cache,
		logger: logger,
	}
}

// OddsListResult 列表返回
type OddsListResult struct {
	Page     int                    `json:"page"`
	PageSize int                    `json:"page_size"`
	Total    int64                  `json:"total"`
	Items    []model.MarketSnapshot `json:"items"`
}

// History 未知盘口返回空切片
func (s *OddsQueryService) History(ctx context.Context, marketID string) ([]model.MarketSnapshot, error) {
	history, err := s.repo.History(ctx, marketID)
	if err != nil {
		return nil, err
	}
	if history == nil {
		history = []model.MarketSnapshot{}
	}
	return history, nil
}

// Latest 先查缓存，未命中查库并回填；缓存异常不影响结果
func (s *OddsQueryService) Latest(ctx context.Context, marketID string) (*model.MarketSnapshot, error) {
	if s.cache != nil {
		snap, ok, err := s.cache.GetLatest(ctx, marketID)
		if err != nil {
			s.logger.WithError(err).WithField("market_id", marketID).Warn("读取最新赔率缓存失败，回源数据库")
		} else if ok {
			return snap, nil
		}
	}

	snap, err := s.repo.Latest(ctx, marketID)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.SetLatest(ctx, snap); err != nil {
			s.logger.WithError(err).WithField("market_id", marketID).Warn("回填最新赔率缓存失败")
		}
	}
	return snap, nil
}

// ListLatest 分页列出各盘口最新赔率
func (s *OddsQueryService) ListLatest(ctx context.Context, filter repository.OddsFilter, page, pageSize int) (*OddsListResult, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > repository.MaxPageSize {
		pageSize = repository.MaxPageSize
	}
	items, total, err := s.repo.ListLatest(ctx, filter, page, pageSize)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []model.MarketSnapshot{}
	}
	return &OddsListResult{
		Page:     page,
		PageSize: pageSize,
		Total:    total,
		Items:    items,
	}, nil
}

func (s *OddsQueryService) Competitions(ctx context.Context) ([]string, error) {
	competitions, err := s.repo.ListCompetitions(ctx)
	if err != nil {
		return nil, err
	}
	if competitions == nil {
		competitions = []string{}
	}
	return competitions, nil
}
