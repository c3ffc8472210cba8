package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/LENAX/grocery-core/pkg/api"
	"github.com/LENAX/grocery-core/pkg/cli/output"
)

var (
	serveHost string
	servePort int
	serveURL  string
)

// serveCmd 启动服务
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "启动HTTP API服务",
	Long: `启动Grocery Core HTTP API服务。

启动后在startup_delay之后执行顺序初始化，在initial_delay之后处理初始深度链接，
同步服务按配置延迟启动。收到SIGINT/SIGTERM时取消所有延迟任务并关闭存储。

示例：
  # 使用默认配置启动
  grocery-core serve

  # 指定端口并携带初始深度链接启动
  grocery-core serve --port 9090 --url "grocerylist://invite/abc"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			output.Error("加载配置失败: %v", err)
			return err
		}
		if cmd.Flags().Changed("host") {
			cfg.Grocery.Server.Host = serveHost
		}
		if cmd.Flags().Changed("port") {
			cfg.Grocery.Server.Port = servePort
		}

		sh, registry, err := buildShell(cfg)
		if err != nil {
			output.Error("创建应用壳失败: %v", err)
			return err
		}
		defer sh.Close()

		if err := sh.Boot(context.Background(), serveURL); err != nil {
			output.Error("启动应用壳失败: %v", err)
			return err
		}

		server := api.NewAPIServer(sh, registry, api.ServerConfigFrom(cfg), Version)
		errCh := make(chan error, 1)
		go func() {
			errCh <- server.Start()
		}()

		output.Success("Grocery Core服务已启动: http://%s", server.Addr())

		// 等待中断信号
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case err := <-errCh:
			if err != nil {
				output.Error("API服务器错误: %v", err)
				return err
			}
			return nil
		case <-quit:
		}

		output.Info("正在关闭服务...")

		// 优雅关闭
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Grocery.Server.WriteTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			output.Warning("关闭API服务器失败: %v", err)
		}
		if err := sh.Close(); err != nil {
			output.Warning("关闭应用壳失败: %v", err)
		}

		output.Success("服务已停止")
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "127.0.0.1", "监听地址")
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 8080, "监听端口")
	serveCmd.Flags().StringVarP(&serveURL, "url", "u", "", "启动时处理的初始深度链接")
}
