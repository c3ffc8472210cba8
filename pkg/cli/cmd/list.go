package cmd

import (
	"github.com/spf13/cobra"

	"github.com/LENAX/grocery-core/pkg/cli/client"
	"github.com/LENAX/grocery-core/pkg/cli/output"
)

// listCmd list子命令
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "清单管理命令",
}

// listLsCmd 列出清单
var listLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "列出当前用户加入的清单",
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := client.New(serverURL).Lists()
		if err != nil {
			output.Error("查询失败: %v", err)
			return err
		}
		if outputJSON {
			return printJSON(cmd, result)
		}
		if len(result.Items) == 0 {
			output.Info("暂无清单")
			return nil
		}

		table := output.NewTable([]string{"LIST_ID", "NAME", "OWNER", "CREATED"})
		table.SetOutput(cmd.OutOrStdout())
		for _, l := range result.Items {
			table.AddRow([]string{l.ID, l.Name, l.OwnerID, l.CreatedAt.Format("2006-01-02 15:04:05")})
		}
		table.Render()
		return nil
	},
}

// listCreateCmd 创建清单
var listCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "创建清单",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		list, err := client.New(serverURL).CreateList(args[0])
		if err != nil {
			output.Error("创建失败: %v", err)
			return err
		}
		if outputJSON {
			return printJSON(cmd, list)
		}
		output.Success("清单已创建: %s (%s)", list.Name, list.ID)
		return nil
	},
}

// userCmd user子命令
var userCmd = &cobra.Command{
	Use:   "user",
	Short: "当前用户命令",
}

// userSetNameCmd 设置用户名称
var userSetNameCmd = &cobra.Command{
	Use:   "set-name <name>",
	Short: "设置当前用户名称（接受邀请前必须设置）",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		user, err := client.New(serverURL).SetUserName(args[0])
		if err != nil {
			output.Error("设置失败: %v", err)
			return err
		}
		if outputJSON {
			return printJSON(cmd, user)
		}
		output.Success("用户名称已设置: %s", user.Name)
		return nil
	},
}

func init() {
	listCmd.AddCommand(listLsCmd)
	listCmd.AddCommand(listCreateCmd)
	userCmd.AddCommand(userSetNameCmd)
}
