package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"OddsSync/internal/model"
	"OddsSync/internal/repository"

	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// fakeProvider 按 market_id 依次返回预设赔率
type fakeProvider struct {
	mu        sync.Mutex
	events    []model.UpstreamEvent
	eventsErr error
	odds      map[string][]json.RawMessage
	oddsErr   map[string]error
	delay     time.Duration
	oddsCalls atomic.Int32
}

func (p *fakeProvider) GetName() string { return "fake" }

func (p *fakeProvider) FetchEvents(ctx context.Context) ([]model.UpstreamEvent, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.eventsErr != nil {
		return nil, p.eventsErr
	}
	return append([]model.UpstreamEvent(nil), p.events...), nil
}

func (p *fakeProvider) FetchMarketOdds(ctx context.Context, marketID string) (json.RawMessage, error) {
	p.oddsCalls.Add(1)
	if p.delay > 0 {
		time.Sleep(p.delay)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.oddsErr[marketID]; err != nil {
		return nil, err
	}
	queue := p.odds[marketID]
	if len(queue) == 0 {
		return nil, nil
	}
	next := queue[0]
	if len(queue) > 1 {
		p.odds[marketID] = queue[1:]
	}
	return next, nil
}

func (p *fakeProvider) setEventsErr(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.eventsErr = err
}

// memRepo 内存版 OddsRepository，记录并发写入数
type memRepo struct {
	mu        sync.Mutex
	history   map[string][]model.MarketSnapshot
	latest    map[string]model.MarketSnapshot
	failOn    map[string]bool
	saves     atomic.Int32
	inFlight  atomic.Int32
	maxFlight atomic.Int32
	saveDelay time.Duration
	latestHit atomic.Int32
}

func newMemRepo() *memRepo {
	return &memRepo{
		history: make(map[string][]model.MarketSnapshot),
		latest:  make(map[string]model.MarketSnapshot),
		failOn:  make(map[string]bool),
	}
}

func (r *memRepo) SaveSnapshot(ctx context.Context, snap *model.MarketSnapshot) error {
	cur := r.inFlight.Add(1)
	defer r.inFlight.Add(-1)
	for {
		old := r.maxFlight.Load()
		if cur <= old || r.maxFlight.CompareAndSwap(old, cur) {
			break
		}
	}
	if r.saveDelay > 0 {
		time.Sleep(r.saveDelay)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failOn[snap.MarketID] {
		return errors.New("db down")
	}
	r.saves.Add(1)
	r.history[snap.MarketID] = append(r.history[snap.MarketID], *snap)
	r.latest[snap.MarketID] = *snap
	return nil
}

func (r *memRepo) History(ctx context.Context, marketID string) ([]model.MarketSnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := append([]model.MarketSnapshot{}, r.history[marketID]...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

func (r *memRepo) Latest(ctx context.Context, marketID string) (*model.MarketSnapshot, error) {
	r.latestHit.Add(1)
	r.mu.Lock()
	defer r.mu.Unlock()
	snap, ok := r.latest[marketID]
	if !ok {
		return nil, repository.ErrSnapshotNotFound
	}
	return &snap, nil
}

func (r *memRepo) ListLatest(ctx context.Context, filter repository.OddsFilter, page, pageSize int) ([]model.MarketSnapshot, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var items []model.MarketSnapshot
	for _, s := range r.latest {
		if filter.Competition == "" || s.Competition == filter.Competition {
			items = append(items, s)
		}
	}
	return items, int64(len(items)), nil
}

func (r *memRepo) ListCompetitions(ctx context.Context) ([]string, error) {
	return nil, nil
}

func (r *memRepo) Ping(ctx context.Context) error { return nil }

// fakeCache 记录写入与广播
type fakeCache struct {
	mu        sync.Mutex
	entries   map[string]model.MarketSnapshot
	published []string
	getErr    error
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]model.MarketSnapshot)}
}

func (c *fakeCache) GetLatest(ctx context.Context, marketID string) (*model.MarketSnapshot, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	snap, ok := c.entries[marketID]
	if !ok {
		return nil, false, nil
	}
	return &snap, true, nil
}

func (c *fakeCache) SetLatest(ctx context.Context, snap *model.MarketSnapshot) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[snap.MarketID] = *snap
	return nil
}

func (c *fakeCache) PublishUpdate(ctx context.Context, snap *model.MarketSnapshot) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.published = append(c.published, snap.MarketID)
	return nil
}

func (c *fakeCache) Ping(ctx context.Context) error { return nil }
