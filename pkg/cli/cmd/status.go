package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/LENAX/grocery-core/pkg/cli/client"
	"github.com/LENAX/grocery-core/pkg/cli/output"
)

// statusCmd 查看服务状态
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "查看服务健康状态与最近一次初始化结果",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.New(serverURL)
		health, err := c.Health()
		if err != nil {
			output.Error("查询失败: %v", err)
			return err
		}
		result, resultErr := c.InitResult()

		if outputJSON {
			data := map[string]interface{}{"health": health}
			if resultErr == nil {
				data["init"] = result
			}
			return printJSON(cmd, data)
		}

		output.Info("状态: %s, 版本: %s, 运行时长: %s", health.Status, health.Version, health.Uptime)
		output.Info("存储: %s", health.Store)
		if len(health.Plugins) > 0 {
			output.Info("插件: %s", strings.Join(health.Plugins, ", "))
		}
		if health.StoreErr != "" {
			output.Warning("存储初始化失败: %s", health.StoreErr)
		}
		if resultErr != nil {
			output.Warning("初始化结果不可用: %v", resultErr)
			return nil
		}
		printResult(cmd, result)
		return nil
	},
}
