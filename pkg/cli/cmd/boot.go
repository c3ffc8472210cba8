package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/LENAX/grocery-core/pkg/cli/output"
	"github.com/LENAX/grocery-core/pkg/core/initializer"
)

var bootURL string

// bootCmd 离线执行一次启动初始化
var bootCmd = &cobra.Command{
	Use:   "boot",
	Short: "离线执行一次启动初始化并输出结果",
	Long: `在本地执行一次顺序初始化（不启动HTTP服务），输出每个任务的结果与横幅。
关键任务失败时以非零状态退出。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			output.Error("加载配置失败: %v", err)
			return err
		}

		sh, _, err := buildShell(cfg)
		if err != nil {
			output.Error("创建应用壳失败: %v", err)
			return err
		}
		defer sh.Close()

		result := sh.RunInitialization(context.Background())
		pending := ""
		if bootURL != "" {
			outcome := sh.Flow().HandleURL(bootURL)
			pending = string(outcome)
		}

		if outputJSON {
			if err := printJSON(cmd, map[string]interface{}{
				"result": result,
				"banner": sh.Banner().Text(),
				"link":   pending,
			}); err != nil {
				return err
			}
		} else {
			printResult(cmd, result)
			if pending != "" {
				output.Info("深度链接处理结果: %s", output.FormatOutcome(pending))
			}
			output.Banner(sh.Banner().Text())
		}

		if !result.Success {
			return fmt.Errorf("初始化失败: %s", result.CriticalFailure)
		}
		return nil
	},
}

func printResult(cmd *cobra.Command, result *initializer.Result) {
	table := output.NewTable([]string{"TASK", "CRITICAL", "STATUS", "DURATION", "ERROR"})
	table.SetOutput(cmd.OutOrStdout())
	for _, o := range result.Outcomes {
		table.AddRow([]string{
			o.ID,
			fmt.Sprintf("%v", o.Critical),
			output.FormatStatus(string(o.Status)),
			o.Duration.String(),
			o.Error,
		})
	}
	table.Render()

	if result.Success {
		output.Success("初始化完成: RunID=%s, 失败任务=%v", result.RunID, result.FailedTasks)
	} else {
		output.Error("初始化失败: RunID=%s, 关键任务=%s", result.RunID, result.CriticalFailure)
	}
}

func init() {
	bootCmd.Flags().StringVarP(&bootURL, "url", "u", "", "初始化后处理的深度链接")
}
