package adapter

import (
	"fmt"

	"OddsSync/internal/config"
	"OddsSync/internal/interfaces"

	"github.com/sirupsen/logrus"
)

// NewOddsProvider 按 upstream.provider 创建赔率源适配器
func NewOddsProvider(cfg *config.UpstreamConfig, logger *logrus.Logger) (interfaces.OddsProvider, error) {
	factory, ok := GetFactory(cfg.Provider)
	if !ok {
		return nil, fmt.Errorf("未支持的赔率源: %s（已注册：%v）", cfg.Provider, ListFactories())
	}
	provider := factory(cfg, logger)
	if provider == nil {
		return nil, fmt.Errorf("赔率源%s的工厂函数返回nil", cfg.Provider)
	}
	logger.WithField("provider", provider.GetName()).Info("赔率源适配器初始化成功")
	return provider, nil
}
