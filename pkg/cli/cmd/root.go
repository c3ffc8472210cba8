package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	// 全局变量
	serverURL  string
	outputJSON bool
	configPath string
)

// rootCmd 根命令
var rootCmd = &cobra.Command{
	Use:   "grocery-core",
	Short: "Grocery Core CLI - 启动编排与清单邀请命令行工具",
	Long: `Grocery Core CLI 用于运行和操作共享购物清单应用的核心服务。

支持的功能：
  - 启动HTTP API服务（顺序初始化、延迟同步、深度链接监听）
  - 离线执行一次启动初始化并查看结果
  - 解析、投递邀请链接，接受或拒绝待处理邀请
  - 管理清单、邀请与当前用户名称
  - 查看或订阅横幅消息

使用示例：
  # 启动HTTP服务
  grocery-core serve --config ./configs/grocery.yaml

  # 解析邀请链接
  grocery-core parse "grocerylist://invite/abc?list=Weekly"

  # 投递邀请链接并接受
  grocery-core open "https://grocery.app/invite/abc"
  grocery-core invite accept`,
	SilenceUsage: true,
}

// Execute 执行根命令
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	// 全局参数
	rootCmd.PersistentFlags().StringVarP(&serverURL, "server", "s", "http://localhost:8080", "Grocery Core服务器地址")
	rootCmd.PersistentFlags().BoolVarP(&outputJSON, "json", "j", false, "使用JSON格式输出")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "./configs/grocery.yaml", "配置文件路径（不存在时使用默认配置）")

	// 添加子命令
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(bootCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(openCmd)
	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(inviteCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(userCmd)
	rootCmd.AddCommand(bannerCmd)
	rootCmd.AddCommand(linkCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(versionCmd)
}
