package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

const cycleKey = "odds-sync-cycle"

// ErrSchedulerStarted Start 被重复调用
var ErrSchedulerStarted = errors.New("调度器已启动")

// CycleRunner 执行一次同步周期
type CycleRunner interface {
	RunCycle(ctx context.Context) (*CycleResult, error)
}

// SchedulerConfig 调度配置
type SchedulerConfig struct {
	Interval   time.Duration // 默认 5 分钟
	RunOnStart bool
}

// Scheduler 定时触发同步周期；定时与手动触发共用一个 singleflight，
// 同一时刻最多只有一个周期在跑，并发触发者共享正在进行的周期结果。
type Scheduler struct {
	cfg    SchedulerConfig
	runner CycleRunner
	logger *logrus.Logger
	group  singleflight.Group

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
}

func NewScheduler(cfg SchedulerConfig, runner CycleRunner, logger *logrus.Logger) *Scheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Minute
	}
	return &Scheduler{
		cfg:    cfg,
		runner: runner,
		logger: logger,
	}
}

// Start 启动定时循环
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return ErrSchedulerStarted
	}
	s.started = true

	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.wg.Add(1)
	go s.run(loopCtx)

	s.logger.WithFields(logrus.Fields{
		"interval":     s.cfg.Interval,
		"run_on_start": s.cfg.RunOnStart,
	}).Info("赔率同步调度器已启动")
	return nil
}

// Stop 停止调度新周期，并在 ctx 截止前等待进行中的周期结束
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("赔率同步调度器已停止")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Trigger 执行一次同步；已有周期在跑时加入该周期并返回其结果。
// 周期本身不受 ctx 取消影响，ctx 只控制调用方等待多久。
func (s *Scheduler) Trigger(ctx context.Context) (*CycleResult, error) {
	ch := s.group.DoChan(cycleKey, func() (res interface{}, err error) {
		defer func() {
			if p := recover(); p != nil {
				s.logger.WithField("panic", p).Error("同步周期panic")
				err = fmt.Errorf("同步周期panic: %v", p)
			}
		}()
		return s.runner.RunCycle(context.WithoutCancel(ctx))
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		result, _ := r.Val.(*CycleResult)
		if r.Shared {
			s.logger.Debug("触发请求合并到进行中的同步周期")
		}
		return result, r.Err
	}
}

func (s *Scheduler) run(ctx context.Context) {
	defer s.wg.Done()

	if s.cfg.RunOnStart {
		s.runScheduled()
	}

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// 停止后不再开始新周期
			if ctx.Err() != nil {
				return
			}
			s.runScheduled()
		}
	}
}

// runScheduled 等待周期结束；错误已写入状态，这里只记日志
func (s *Scheduler) runScheduled() {
	if _, err := s.Trigger(context.Background()); err != nil {
		s.logger.WithError(err).Warn("定时同步周期失败，等待下一轮")
	}
}
