package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/LENAX/grocery-core/pkg/cli/client"
	"github.com/LENAX/grocery-core/pkg/cli/output"
)

// syncCmd 查看同步统计
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "查看后台同步统计",
	RunE: func(cmd *cobra.Command, args []string) error {
		stats, err := client.New(serverURL).SyncStats()
		if err != nil {
			output.Error("查询失败: %v", err)
			return err
		}
		if outputJSON {
			return printJSON(cmd, stats)
		}

		if !stats.Initialized {
			output.Warning("同步管理器尚未初始化 (计划: %s)", stats.Schedule)
		} else {
			output.Info("同步计划: %s, 执行次数: %d, 失败次数: %d", stats.Schedule, stats.Passes, stats.Failures)
		}
		if stats.NextRun != nil {
			output.Info("下次执行: %s", stats.NextRun.Format(time.RFC3339))
		}
		if stats.LastReport != nil {
			output.Info("上次同步: %s, 过期邀请: %d", stats.LastReport.SyncedAt.Format(time.RFC3339), stats.LastReport.Expired)
		}
		if stats.LastError != "" {
			output.Warning("上次错误: %s", stats.LastError)
		}
		return nil
	},
}
