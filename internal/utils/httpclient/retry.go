package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// maxBodySize 上游响应体上限
const maxBodySize = 32 << 20

// RetryPolicy 单次请求超时 + 有限次重试（退避时间逐次翻倍）
type RetryPolicy struct {
	Timeout time.Duration // 每次尝试的超时
	Retries int           // 失败后最多重试次数，0 表示不重试
	Backoff time.Duration // 第一次重试前的等待
}

// StatusError 上游返回非 2xx
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("上游返回状态码 %d: %s", e.StatusCode, e.Body)
}

// Retryable 5xx 与 429 视为临时错误
func (e *StatusError) Retryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// RequestFunc 每次尝试都重新构造请求（请求体不可复用）
type RequestFunc func(ctx context.Context) (*http.Request, error)

// Do 执行请求并返回 2xx 响应体；传输错误、5xx、429 按策略重试，其余错误直接返回
func Do(ctx context.Context, client *http.Client, policy RetryPolicy, logger *logrus.Logger, newReq RequestFunc) ([]byte, error) {
	backoff := policy.Backoff
	var lastErr error
	for attempt := 0; attempt <= policy.Retries; attempt++ {
		if attempt > 0 {
			logger.WithError(lastErr).WithFields(logrus.Fields{
				"attempt": attempt,
				"backoff": backoff,
			}).Warn("上游请求失败，准备重试")
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		body, err := doOnce(ctx, client, policy.Timeout, newReq)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !isRetryable(ctx, err) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("重试%d次后仍失败: %w", policy.Retries, lastErr)
}

func doOnce(ctx context.Context, client *http.Client, timeout time.Duration, newReq RequestFunc) ([]byte, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := newReq(ctx)
	if err != nil {
		return nil, &permanentError{err: fmt.Errorf("构造请求失败: %w", err)}
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("读取响应体失败: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet := string(body)
		if len(snippet) > 256 {
			snippet = snippet[:256]
		}
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: snippet}
	}
	return body, nil
}

type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

func isRetryable(ctx context.Context, err error) bool {
	// 调用方取消后不再重试
	if ctx.Err() != nil {
		return false
	}
	var pe *permanentError
	if errors.As(err, &pe) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Retryable()
	}
	// 传输错误（含单次超时）
	return true
}
