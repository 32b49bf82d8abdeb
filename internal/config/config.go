package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 全局配置结构体（完全匹配config.yaml）
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`   // 服务器配置
	Postgres PostgresConfig `mapstructure:"postgres"` // PostgreSQL配置
	Redis    RedisConfig    `mapstructure:"redis"`    // Redis配置（最新赔率缓存 + 更新广播）
	Sync     SyncConfig     `mapstructure:"sync"`     // 同步调度配置
	Upstream UpstreamConfig `mapstructure:"upstream"` // 上游赔率源配置
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port        int      `mapstructure:"port"`         // 服务端口
	Mode        string   `mapstructure:"mode"`         // Gin运行模式：debug/release/test
	CORSOrigins []string `mapstructure:"cors_origins"` // 允许跨域的前端地址
	Pprof       bool     `mapstructure:"pprof"`        // 是否注册pprof
}

// PostgresConfig PostgreSQL数据库配置
type PostgresConfig struct {
	DSN             string        `mapstructure:"dsn"`               // 连接DSN
	MaxOpenConns    int           `mapstructure:"max_open_conns"`    // 最大打开连接数
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`    // 最大空闲连接数
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"` // 连接最大存活时间
}

// RedisConfig Addr 为空时不启用缓存
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`     // 最新赔率缓存过期时间
	Channel  string        `mapstructure:"channel"` // 赔率更新广播频道
}

// SyncConfig 同步调度配置
type SyncConfig struct {
	Interval    time.Duration `mapstructure:"interval"`      // 同步间隔
	RunOnStart  bool          `mapstructure:"run_on_start"`  // 启动时立即执行一次
	EventTypeID int           `mapstructure:"event_type_id"` // 关注的运动类型（1=足球）
}

// UpstreamConfig 上游赔率源配置
type UpstreamConfig struct {
	Provider      string            `mapstructure:"provider"`        // 适配器名称
	EventListURL  string            `mapstructure:"event_list_url"`  // 赛事列表接口
	MarketDataURL string            `mapstructure:"market_data_url"` // 盘口赔率接口
	Timeout       time.Duration     `mapstructure:"timeout"`         // 单次请求超时
	RetryCount    int               `mapstructure:"retry_count"`     // 重试次数
	RetryBackoff  time.Duration     `mapstructure:"retry_backoff"`   // 首次重试等待，之后翻倍
	Proxy         string            `mapstructure:"proxy"`           // 代理地址
	EventHeaders  map[string]string `mapstructure:"event_headers"`   // 赛事列表请求头
	MarketHeaders map[string]string `mapstructure:"market_headers"`  // 盘口请求头
}

// LoadConfig 加载配置文件（config/config.yaml），敏感项从 .env 覆盖（不提交 git）
func LoadConfig() (*Config, error) {
	return LoadConfigFrom("./config")
}

// LoadConfigFrom 从指定目录读取 config.yaml
func LoadConfigFrom(dir string) (*Config, error) {
	// 1. 加载 .env（若存在），env 中的值会覆盖 config.yaml 中同名字段
	_ = godotenv.Load() // 忽略错误（.env 可不存在）

	// 2. 读取 config.yaml
	v := viper.New()
	setDefaults(v)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	// 3. 敏感字段：用 env 覆盖（优先级 env > yaml）
	if err := overrideFromEnv(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.mode", "release")
	v.SetDefault("postgres.max_open_conns", 10)
	v.SetDefault("postgres.max_idle_conns", 5)
	v.SetDefault("postgres.conn_max_lifetime", time.Hour)
	v.SetDefault("redis.ttl", 10*time.Minute)
	v.SetDefault("redis.channel", "odds_updates")
	v.SetDefault("sync.interval", 5*time.Minute)
	v.SetDefault("sync.run_on_start", true)
	v.SetDefault("sync.event_type_id", 1)
	v.SetDefault("upstream.provider", "dramo")
	v.SetDefault("upstream.timeout", 15*time.Second)
	v.SetDefault("upstream.retry_count", 2)
	v.SetDefault("upstream.retry_backoff", 500*time.Millisecond)
}

// overrideFromEnv 用环境变量覆盖敏感配置
func overrideFromEnv(cfg *Config) error {
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		cfg.Postgres.DSN = v
	}
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PORT 非法: %q", v)
		}
		cfg.Server.Port = port
	}
	if v := os.Getenv("SERVER_MODE"); v != "" {
		cfg.Server.Mode = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("UPSTREAM_PROXY"); v != "" {
		cfg.Upstream.Proxy = v
	}
	return nil
}

func (c *Config) validate() error {
	if c.Postgres.DSN == "" {
		return fmt.Errorf("postgres.dsn 未配置（可通过 DATABASE_DSN 设置）")
	}
	if c.Sync.Interval <= 0 {
		return fmt.Errorf("sync.interval 必须大于0")
	}
	if c.Upstream.EventListURL == "" || c.Upstream.MarketDataURL == "" {
		return fmt.Errorf("upstream.event_list_url 与 upstream.market_data_url 必须配置")
	}
	if c.Upstream.RetryCount < 0 {
		c.Upstream.RetryCount = 0
	}
	return nil
}
