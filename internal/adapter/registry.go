package adapter

import (
	"fmt"
	"sort"
	"sync"

	"OddsSync/internal/config"
	"OddsSync/internal/interfaces"

	"github.com/sirupsen/logrus"
)

// Factory 赔率源适配器工厂函数签名
type Factory func(cfg *config.UpstreamConfig, logger *logrus.Logger) interfaces.OddsProvider

var (
	registryMu      sync.RWMutex
	factoryRegistry = make(map[string]Factory)
)

// Register 供适配器 init 函数调用，注册工厂函数
func Register(name string, factory Factory) {
	if factory == nil {
		panic(fmt.Sprintf("赔率源%s的工厂函数不能为nil", name))
	}
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, exists := factoryRegistry[name]; exists {
		logrus.Warnf("赔率源%s的适配器已注册，将覆盖原有实现", name)
	}
	factoryRegistry[name] = factory
}

// GetFactory 获取指定赔率源的工厂函数
func GetFactory(name string) (Factory, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	factory, ok := factoryRegistry[name]
	return factory, ok
}

// ListFactories 列出所有已注册的赔率源（按名称排序）
func ListFactories() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(factoryRegistry))
	for n := range factoryRegistry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
