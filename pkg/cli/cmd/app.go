package cmd

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/LENAX/grocery-core/pkg/cli/output"
	"github.com/LENAX/grocery-core/pkg/config"
	"github.com/LENAX/grocery-core/pkg/logger"
	"github.com/LENAX/grocery-core/pkg/plugin"
	"github.com/LENAX/grocery-core/pkg/shell"
)

// loadConfig 加载配置并按配置初始化日志
func loadConfig() (*config.AppConfig, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logger.Setup(cfg.Grocery.General.LogLevel, cfg.Grocery.General.LogFormat)
	return cfg, nil
}

// buildShell 创建带指标插件的应用壳
func buildShell(cfg *config.AppConfig) (*shell.Shell, *prometheus.Registry, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	metrics, err := plugin.NewMetricsPlugin(registry)
	if err != nil {
		return nil, nil, fmt.Errorf("创建指标插件失败: %w", err)
	}
	hooks := plugin.NewPluginManager()
	if err := plugin.BindAll(hooks, metrics); err != nil {
		return nil, nil, fmt.Errorf("绑定指标插件失败: %w", err)
	}

	return shell.New(cfg, shell.Deps{Hooks: hooks}), registry, nil
}

// printJSON 以JSON写入命令输出
func printJSON(cmd *cobra.Command, data interface{}) error {
	return output.WriteJSON(cmd.OutOrStdout(), data)
}
