package config

import (
	"strings"
	"time"
)

// AppConfig 应用配置（对外导出）
type AppConfig struct {
	Grocery struct {
		General struct {
			InstanceName string `yaml:"instance_name"`
			LogLevel     string `yaml:"log_level"`
			LogFormat    string `yaml:"log_format"`
			Env          string `yaml:"env"`
		} `yaml:"general"`
		Storage struct {
			Database struct {
				Type            string        `yaml:"type"`
				DSN             string        `yaml:"dsn"`
				MaxOpenConns    int           `yaml:"max_open_conns"`
				MaxIdleConns    int           `yaml:"max_idle_conns"`
				ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
				ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time"`
			} `yaml:"database"`
		} `yaml:"storage"`
		Initializer struct {
			DefaultTaskTimeout time.Duration `yaml:"default_task_timeout"`
			StartupDelay       time.Duration `yaml:"startup_delay"`
			MemoryProbe        bool          `yaml:"memory_probe"`
		} `yaml:"initializer"`
		Sync struct {
			Enabled   bool          `yaml:"enabled"`
			InitDelay time.Duration `yaml:"init_delay"`
			// StartDelay 同步服务延迟启动时间
			StartDelay time.Duration `yaml:"start_delay"`
			Schedule   string        `yaml:"schedule"`
		} `yaml:"sync"`
		DeepLink struct {
			Scheme       string        `yaml:"scheme"`
			WebHost      string        `yaml:"web_host"`
			InitialURL   string        `yaml:"initial_url"`
			InitialDelay time.Duration `yaml:"initial_delay"`
		} `yaml:"deep_link"`
		Invitation struct {
			BackendURL     string        `yaml:"backend_url"`
			RequestTimeout time.Duration `yaml:"request_timeout"`
		} `yaml:"invitation"`
		Environment struct {
			RequiredKeys []string `yaml:"required_keys"`
		} `yaml:"environment"`
		Server struct {
			Host         string        `yaml:"host"`
			Port         int           `yaml:"port"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
		} `yaml:"server"`
	} `yaml:"grocery"`
}

// NewDefaultConfig 返回已应用默认值的配置
func NewDefaultConfig() *AppConfig {
	cfg := newBareConfig()
	cfg.ApplyDefaults()
	return cfg
}

// newBareConfig 仅设置布尔开关默认值，其余字段由ApplyDefaults补齐
func newBareConfig() *AppConfig {
	cfg := &AppConfig{}
	cfg.Grocery.Sync.Enabled = true
	cfg.Grocery.Initializer.MemoryProbe = true
	return cfg
}

// IsDev 是否为开发环境
func (c *AppConfig) IsDev() bool {
	return strings.EqualFold(c.Grocery.General.Env, "dev")
}

// IsDebugLog 日志级别是否为debug或更详细
func (c *AppConfig) IsDebugLog() bool {
	level := strings.ToLower(strings.TrimSpace(c.Grocery.General.LogLevel))
	return level == "debug" || level == "trace"
}

// GetDatabaseType 获取数据库类型
func (c *AppConfig) GetDatabaseType() string {
	return c.Grocery.Storage.Database.Type
}

// GetDatabaseDSN 获取数据库DSN
func (c *AppConfig) GetDatabaseDSN() string {
	return c.Grocery.Storage.Database.DSN
}

// GetDefaultTaskTimeout 获取默认任务超时时间
func (c *AppConfig) GetDefaultTaskTimeout() time.Duration {
	timeout := c.Grocery.Initializer.DefaultTaskTimeout
	if timeout <= 0 {
		return 30 * time.Second // 默认值
	}
	return timeout
}

// ApplyDefaults 应用默认值
func (c *AppConfig) ApplyDefaults() {
	g := &c.Grocery

	// General默认值
	if g.General.InstanceName == "" {
		g.General.InstanceName = "grocery-core"
	}
	if g.General.LogLevel == "" {
		g.General.LogLevel = "info"
	}
	if g.General.LogFormat == "" {
		g.General.LogFormat = "text"
	}
	if g.General.Env == "" {
		g.General.Env = "dev"
	}

	// Database默认值
	if g.Storage.Database.Type == "" {
		g.Storage.Database.Type = "sqlite"
	}
	if g.Storage.Database.DSN == "" && g.Storage.Database.Type == "sqlite" {
		g.Storage.Database.DSN = "./data/grocery.db"
	}
	if g.Storage.Database.MaxOpenConns <= 0 {
		g.Storage.Database.MaxOpenConns = 10
	}
	if g.Storage.Database.MaxIdleConns <= 0 {
		g.Storage.Database.MaxIdleConns = 5
	}
	if g.Storage.Database.ConnMaxLifetime <= 0 {
		g.Storage.Database.ConnMaxLifetime = 2 * time.Hour
	}
	if g.Storage.Database.ConnMaxIdleTime <= 0 {
		g.Storage.Database.ConnMaxIdleTime = 1 * time.Hour
	}

	// Initializer默认值
	if g.Initializer.DefaultTaskTimeout <= 0 {
		g.Initializer.DefaultTaskTimeout = 30 * time.Second
	}
	if g.Initializer.StartupDelay <= 0 {
		g.Initializer.StartupDelay = 50 * time.Millisecond
	}

	// Sync默认值
	if g.Sync.InitDelay <= 0 {
		g.Sync.InitDelay = 1000 * time.Millisecond
	}
	if g.Sync.StartDelay <= 0 {
		g.Sync.StartDelay = 1500 * time.Millisecond
	}
	if g.Sync.Schedule == "" {
		g.Sync.Schedule = "@every 30s"
	}

	// DeepLink默认值
	if g.DeepLink.Scheme == "" {
		g.DeepLink.Scheme = "grocerylist"
	}
	if g.DeepLink.WebHost == "" {
		g.DeepLink.WebHost = "grocery.app"
	}
	if g.DeepLink.InitialDelay <= 0 {
		g.DeepLink.InitialDelay = 800 * time.Millisecond
	}

	// Invitation默认值
	if g.Invitation.RequestTimeout <= 0 {
		g.Invitation.RequestTimeout = 10 * time.Second
	}

	// Environment默认值
	if len(g.Environment.RequiredKeys) == 0 {
		g.Environment.RequiredKeys = []string{"GROCERY_API_URL"}
	}

	// Server默认值
	if g.Server.Host == "" {
		g.Server.Host = "127.0.0.1"
	}
	if g.Server.Port <= 0 {
		g.Server.Port = 8080
	}
	if g.Server.ReadTimeout <= 0 {
		g.Server.ReadTimeout = 30 * time.Second
	}
	if g.Server.WriteTimeout <= 0 {
		g.Server.WriteTimeout = 30 * time.Second
	}
}
