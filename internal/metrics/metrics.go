package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collectors 赔率同步相关指标
type Collectors struct {
	registry      *prometheus.Registry
	cycles        *prometheus.CounterVec
	markets       *prometheus.CounterVec
	cycleDuration prometheus.Histogram
	lastSuccess   prometheus.Gauge
}

// New 使用独立 registry，避免测试之间重复注册
func New() *Collectors {
	reg := prometheus.NewRegistry()
	c := &Collectors{
		registry: reg,
		cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "odds_sync_cycles_total",
			Help: "同步周期次数（按结果）",
		}, []string{"result"}),
		markets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "odds_sync_markets_total",
			Help: "盘口处理次数（saved/skipped/failed）",
		}, []string{"outcome"}),
		cycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "odds_sync_cycle_duration_seconds",
			Help:    "单次同步周期耗时",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "odds_sync_last_success_timestamp_seconds",
			Help: "最近一次成功同步的开始时间",
		}),
	}
	reg.MustRegister(
		c.cycles, c.markets, c.cycleDuration, c.lastSuccess,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// ObserveCycle 记录一次周期结果
func (c *Collectors) ObserveCycle(success bool, started time.Time, duration time.Duration, saved, skipped, failed int) {
	result := "success"
	if !success {
		result = "failure"
	}
	c.cycles.WithLabelValues(result).Inc()
	c.cycleDuration.Observe(duration.Seconds())
	c.markets.WithLabelValues("saved").Add(float64(saved))
	c.markets.WithLabelValues("skipped").Add(float64(skipped))
	c.markets.WithLabelValues("failed").Add(float64(failed))
	if success {
		c.lastSuccess.Set(float64(started.Unix()))
	}
}

// Handler /metrics
func (c *Collectors) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// Registry 供测试读取指标
func (c *Collectors) Registry() *prometheus.Registry {
	return c.registry
}
