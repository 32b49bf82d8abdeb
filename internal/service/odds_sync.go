package service

import (
	"context"
	"fmt"
	"time"

	"OddsSync/internal/interfaces"
	"OddsSync/internal/metrics"
	"OddsSync/internal/model"
	"OddsSync/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// CycleResult 单次同步周期的统计
type CycleResult struct {
	RunID     string
	StartedAt time.Time
	Duration  time.Duration
	Qualified int // 属于目标运动类型的赛事数
	Saved     int
	Skipped   int // 无盘口ID或赔率为空
	Failed    int // 拉取或落库失败
}

type eventOutcome int

const (
	outcomeSaved eventOutcome = iota
	outcomeSkipped
	outcomeFailed
)

// OddsSyncService 拉取赛事列表 → 过滤运动类型 → 逐盘口拉取赔率 → 落库
type OddsSyncService struct {
	provider    interfaces.OddsProvider
	repo        repository.OddsRepository
	cache       interfaces.SnapshotCache // 可为 nil
	metrics     *metrics.Collectors      // 可为 nil
	status      *StatusTracker
	eventTypeID int
	logger      *logrus.Logger
	now         func() time.Time
}

// NewOddsSyncService 创建赔率同步服务；cache、collectors 传 nil 表示不启用
func NewOddsSyncService(
	provider interfaces.OddsProvider,
	repo repository.OddsRepository,
	cache interfaces.SnapshotCache,
	collectors *metrics.Collectors,
	eventTypeID int,
	logger *logrus.Logger,
) *OddsSyncService {
	return &OddsSyncService{
		provider:    provider,
		repo:        repo,
		cache:       cache,
		metrics:     collectors,
		status:      NewStatusTracker(),
		eventTypeID: eventTypeID,
		logger:      logger,
		now:         time.Now,
	}
}

// Status 最近一次同步结果（副本）
func (s *OddsSyncService) Status() model.IngestionStatus {
	return s.status.Snapshot()
}

// RunCycle 执行一次完整同步；只有赛事列表拉取失败会返回错误，单盘口失败只计数不中断
func (s *OddsSyncService) RunCycle(ctx context.Context) (*CycleResult, error) {
	result := &CycleResult{
		RunID:     uuid.NewString(),
		StartedAt: s.now(),
	}
	log := s.logger.WithField("run_id", result.RunID)

	events, err := s.provider.FetchEvents(ctx)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err)
		log.WithError(err).Error("OddsSync: 拉取赛事列表失败，本轮中止")
		s.finish(result, err)
		return result, err
	}

	for _, ev := range events {
		if !ev.IsEventType(s.eventTypeID) {
			continue
		}
		result.Qualified++

		switch s.processEvent(ctx, log, result.RunID, ev) {
		case outcomeSaved:
			result.Saved++
		case outcomeSkipped:
			result.Skipped++
		case outcomeFailed:
			result.Failed++
		}
	}

	s.finish(result, nil)
	log.WithFields(logrus.Fields{
		"qualified": result.Qualified,
		"saved":     result.Saved,
		"skipped":   result.Skipped,
		"failed":    result.Failed,
		"duration":  result.Duration,
	}).Info("OddsSync: 本轮同步完成")
	return result, nil
}

func (s *OddsSyncService) processEvent(ctx context.Context, log *logrus.Entry, runID string, ev model.UpstreamEvent) eventOutcome {
	marketID := ev.DeriveMarketID()
	if marketID == "" {
		log.WithField("event_name", ev.Name).Debug("OddsSync: 赛事无盘口ID，跳过")
		return outcomeSkipped
	}
	log = log.WithField("market_id", marketID)

	payload, err := s.provider.FetchMarketOdds(ctx, marketID)
	if err != nil {
		log.WithError(fmt.Errorf("%w: %w", ErrMarketFetchFailed, err)).Warn("OddsSync: 拉取赔率失败，跳过")
		return outcomeFailed
	}
	if model.IsEmptyPayload(payload) {
		log.Debug("OddsSync: 赔率为空，跳过")
		return outcomeSkipped
	}

	snap := &model.MarketSnapshot{
		MarketID:    marketID,
		EventName:   ev.Name,
		Competition: ev.CompetitionName,
		Timestamp:   s.now(),
		Odds:        payload,
		RunID:       runID,
	}
	if id, ok := ev.EventID.Int64(); ok {
		snap.EventID = &id
	}

	if err := s.repo.SaveSnapshot(ctx, snap); err != nil {
		log.WithError(fmt.Errorf("%w: %w", ErrStoreWriteFailed, err)).Error("OddsSync: 赔率落库失败，跳过")
		return outcomeFailed
	}

	if s.cache != nil {
		if err := s.cache.SetLatest(ctx, snap); err != nil {
			log.WithError(err).Warn("OddsSync: 写入最新赔率缓存失败")
		}
		if err := s.cache.PublishUpdate(ctx, snap); err != nil {
			log.WithError(err).Warn("OddsSync: 广播赔率更新失败")
		}
	}
	return outcomeSaved
}

// finish 整体替换同步状态并上报指标
func (s *OddsSyncService) finish(result *CycleResult, cycleErr error) {
	result.Duration = s.now().Sub(result.StartedAt)
	lastRun := result.StartedAt

	st := model.IngestionStatus{
		LastRun:         &lastRun,
		RunID:           result.RunID,
		EventsQualified: result.Qualified,
		EventsSaved:     result.Saved,
		EventsSkipped:   result.Skipped,
		EventsFailed:    result.Failed,
		DurationMs:      result.Duration.Milliseconds(),
	}
	if cycleErr != nil {
		st.Success = false
		st.Message = cycleErr.Error()
	} else {
		st.Success = true
		st.Message = fmt.Sprintf("足球赔率同步完成：符合条件%d场，保存%d条，跳过%d条，失败%d条",
			result.Qualified, result.Saved, result.Skipped, result.Failed)
	}
	s.status.Set(st)

	if s.metrics != nil {
		s.metrics.ObserveCycle(st.Success, result.StartedAt, result.Duration, result.Saved, result.Skipped, result.Failed)
	}
}
