package initializer

import (
	"time"

	"github.com/LENAX/grocery-core/pkg/plugin"
)

// options 初始化器内部配置
type options struct {
	defaultTimeout time.Duration
	hooks          plugin.PluginManager
	memoryProbe    MemoryProbe
}

// defaultOptions 返回默认配置
func defaultOptions() *options {
	return &options{
		defaultTimeout: 30 * time.Second,
	}
}

// Option 配置选项函数类型
type Option func(*options)

// WithDefaultTimeout 设置未指定超时任务的默认超时时间
func WithDefaultTimeout(timeout time.Duration) Option {
	return func(o *options) {
		if timeout > 0 {
			o.defaultTimeout = timeout
		}
	}
}

// WithHooks 设置生命周期插件管理器
func WithHooks(pm plugin.PluginManager) Option {
	return func(o *options) {
		o.hooks = pm
	}
}

// WithMemoryProbe 设置内存采样器，nil表示不采样
func WithMemoryProbe(probe MemoryProbe) Option {
	return func(o *options) {
		o.memoryProbe = probe
	}
}
