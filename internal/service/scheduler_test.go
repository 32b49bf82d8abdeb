package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"OddsSync/internal/model"
)

// blockingRunner 在 release 关闭前阻塞，记录并发执行数
type blockingRunner struct {
	release   chan struct{}
	calls     atomic.Int32
	inFlight  atomic.Int32
	maxFlight atomic.Int32
	err       error
}

func (r *blockingRunner) RunCycle(ctx context.Context) (*CycleResult, error) {
	n := r.calls.Add(1)
	cur := r.inFlight.Add(1)
	defer r.inFlight.Add(-1)
	for {
		old := r.maxFlight.Load()
		if cur <= old || r.maxFlight.CompareAndSwap(old, cur) {
			break
		}
	}
	if r.release != nil {
		<-r.release
	}
	return &CycleResult{RunID: string(rune('a' + n - 1)), Saved: int(n)}, r.err
}

func TestScheduler_TriggerJoinsInFlightCycle(t *testing.T) {
	runner := &blockingRunner{release: make(chan struct{})}
	s := NewScheduler(SchedulerConfig{Interval: time.Hour}, runner, testLogger())

	const callers = 5
	results := make(chan *CycleResult, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := s.Trigger(context.Background())
			if err != nil {
				t.Errorf("Trigger: %v", err)
			}
			results <- res
		}()
	}

	// 等第一个周期开始后再放行
	deadline := time.Now().Add(2 * time.Second)
	for runner.calls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	time.Sleep(50 * time.Millisecond)
	close(runner.release)
	wg.Wait()
	close(results)

	if got := runner.maxFlight.Load(); got != 1 {
		t.Errorf("max concurrent cycles = %d, want 1", got)
	}
	if got := runner.calls.Load(); got != 1 {
		t.Errorf("cycles run = %d, want 1 (callers should share)", got)
	}
	for res := range results {
		if res == nil || res.RunID != "a" {
			t.Errorf("result = %+v, want shared result of first cycle", res)
		}
	}
}

func TestScheduler_TriggerReturnsCycleError(t *testing.T) {
	runner := &blockingRunner{err: ErrUpstreamUnavailable}
	s := NewScheduler(SchedulerConfig{Interval: time.Hour}, runner, testLogger())

	if _, err := s.Trigger(context.Background()); !errors.Is(err, ErrUpstreamUnavailable) {
		t.Errorf("err = %v, want ErrUpstreamUnavailable", err)
	}
}

func TestScheduler_CallerCancelDoesNotAbortCycle(t *testing.T) {
	runner := &blockingRunner{release: make(chan struct{})}
	s := NewScheduler(SchedulerConfig{Interval: time.Hour}, runner, testLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	if _, err := s.Trigger(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want DeadlineExceeded", err)
	}

	// 周期仍在进行，新的触发应加入它而不是再开一轮
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = s.Trigger(context.Background())
	}()
	time.Sleep(30 * time.Millisecond)
	close(runner.release)
	<-done

	if got := runner.calls.Load(); got != 1 {
		t.Errorf("cycles run = %d, want 1", got)
	}
}

func TestScheduler_StartRunsImmediatelyAndStops(t *testing.T) {
	runner := &blockingRunner{}
	s := NewScheduler(SchedulerConfig{Interval: 50 * time.Millisecond, RunOnStart: true}, runner, testLogger())

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := s.Start(context.Background()); !errors.Is(err, ErrSchedulerStarted) {
		t.Errorf("second Start err = %v, want ErrSchedulerStarted", err)
	}

	time.Sleep(130 * time.Millisecond)

	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.Stop(stopCtx); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	calls := runner.calls.Load()
	if calls < 2 {
		t.Errorf("cycles run = %d, want immediate run plus at least one tick", calls)
	}

	time.Sleep(120 * time.Millisecond)
	if runner.calls.Load() != calls {
		t.Error("cycles scheduled after Stop")
	}
}

func TestScheduler_StopWaitsForInFlightCycle(t *testing.T) {
	runner := &blockingRunner{release: make(chan struct{})}
	s := NewScheduler(SchedulerConfig{Interval: time.Hour, RunOnStart: true}, runner, testLogger())
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for runner.calls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	short, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	if err := s.Stop(short); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Stop err = %v, want DeadlineExceeded while cycle in flight", err)
	}

	close(runner.release)
	if err := s.Stop(context.Background()); err != nil {
		t.Errorf("Stop after release: %v", err)
	}
}

func TestScheduler_OverlappingTriggersDoNotInterleaveWrites(t *testing.T) {
	provider := &fakeProvider{
		events: []model.UpstreamEvent{
			soccerEvent("M1", "1", "A vs B", "X"),
			soccerEvent("M2", "2", "C vs D", "X"),
		},
		odds: map[string][]json.RawMessage{
			"M1": {raw(`{"x":1}`)},
			"M2": {raw(`{"x":2}`)},
		},
		delay: 5 * time.Millisecond,
	}
	repo := newMemRepo()
	repo.saveDelay = 5 * time.Millisecond
	svc := NewOddsSyncService(provider, repo, nil, nil, 1, testLogger())
	s := NewScheduler(SchedulerConfig{Interval: time.Hour}, svc, testLogger())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			time.Sleep(time.Duration(i) * 3 * time.Millisecond)
			if _, err := s.Trigger(context.Background()); err != nil {
				t.Errorf("Trigger: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if got := repo.maxFlight.Load(); got != 1 {
		t.Errorf("max concurrent store writes = %d, want 1", got)
	}
	if repo.saves.Load() == 0 {
		t.Error("no snapshots saved")
	}

	history, _ := repo.History(context.Background(), "M1")
	for i := 1; i < len(history); i++ {
		if history[i].Timestamp.Before(history[i-1].Timestamp) {
			t.Errorf("history out of order at %d", i)
		}
	}
}

func TestScheduler_RecoversPanickingCycle(t *testing.T) {
	s := NewScheduler(SchedulerConfig{Interval: time.Hour}, panicRunner{}, testLogger())
	if _, err := s.Trigger(context.Background()); err == nil {
		t.Fatal("expected error from panicking cycle")
	}
}

type panicRunner struct{}

func (panicRunner) RunCycle(ctx context.Context) (*CycleResult, error) {
	panic("boom")
}
