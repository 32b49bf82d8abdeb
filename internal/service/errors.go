package service

import "errors"

var (
	// ErrUpstreamUnavailable 赛事列表拉取失败，整个周期中止
	ErrUpstreamUnavailable = errors.New("上游赛事列表不可用")
	// ErrMarketFetchFailed 单个盘口赔率拉取失败，跳过该盘口
	ErrMarketFetchFailed = errors.New("盘口赔率拉取失败")
	// ErrStoreWriteFailed 单条赔率落库失败，跳过该条
	ErrStoreWriteFailed = errors.New("赔率落库失败")
)
