package dramo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"OddsSync/internal/adapter"
	"OddsSync/internal/config"
	"OddsSync/internal/interfaces"
	"OddsSync/internal/model"
	"OddsSync/internal/utils/httpclient"

	"github.com/sirupsen/logrus"
)

// Name 注册到 adapter 工厂表的名称
const Name = "dramo"

func init() {
	adapter.Register(Name, NewDramoAdapter)
}

type Adapter struct {
	cfg        *config.UpstreamConfig
	httpClient *http.Client
	policy     httpclient.RetryPolicy
	logger     *logrus.Logger
}

func NewDramoAdapter(cfg *config.UpstreamConfig, logger *logrus.Logger) interfaces.OddsProvider {
	return &Adapter{
		cfg:        cfg,
		httpClient: httpclient.NewHTTPClient(cfg, logger),
		policy: httpclient.RetryPolicy{
			Timeout: cfg.Timeout,
			Retries: cfg.RetryCount,
			Backoff: cfg.RetryBackoff,
		},
		logger: logger,
	}
}

func (a *Adapter) GetName() string {
	return "Dramo"
}

// FetchEvents GET 赛事列表，data/events 缺失时返回空列表
func (a *Adapter) FetchEvents(ctx context.Context) ([]model.UpstreamEvent, error) {
	body, err := httpclient.Do(ctx, a.httpClient, a.policy, a.logger, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.cfg.EventListURL, nil)
		if err != nil {
			return nil, err
		}
		setHeaders(req, a.cfg.EventHeaders)
		return req, nil
	})
	if err != nil {
		return nil, fmt.Errorf("获取Dramo赛事列表失败: %w", err)
	}

	var resp model.EventListResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("解析Dramo赛事列表失败: %w", err)
	}
	if resp.Data == nil {
		a.logger.Warn("Dramo赛事列表缺少data字段，按空列表处理")
		return []model.UpstreamEvent{}, nil
	}

	a.logger.Debugf("成功获取Dramo赛事共%d条", len(resp.Data.Events))
	return resp.Data.Events, nil
}

// FetchMarketOdds 表单 POST market_id=<id>，返回 data 字段原文（可能为空）
func (a *Adapter) FetchMarketOdds(ctx context.Context, marketID string) (json.RawMessage, error) {
	form := url.Values{}
	form.Set("market_id", marketID)
	encoded := form.Encode()

	body, err := httpclient.Do(ctx, a.httpClient, a.policy, a.logger, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.MarketDataURL, strings.NewReader(encoded))
		if err != nil {
			return nil, err
		}
		setHeaders(req, a.cfg.MarketHeaders)
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return req, nil
	})
	if err != nil {
		return nil, fmt.Errorf("获取盘口%s赔率失败: %w", marketID, err)
	}

	var resp model.MarketDataResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("解析盘口%s赔率失败: %w", marketID, err)
	}
	return resp.Data, nil
}

func setHeaders(req *http.Request, headers map[string]string) {
	for k, v := range headers {
		req.Header.Set(k, v)
	}
}
