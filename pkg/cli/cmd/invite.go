package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/LENAX/grocery-core/pkg/api/dto"
	"github.com/LENAX/grocery-core/pkg/cli/client"
	"github.com/LENAX/grocery-core/pkg/cli/output"
)

var inviteTTL time.Duration

// inviteCmd invite子命令
var inviteCmd = &cobra.Command{
	Use:   "invite",
	Short: "邀请管理命令",
	Long:  `查看、接受或拒绝待处理邀请，以及为清单创建新邀请。`,
}

// inviteShowCmd 查看待处理邀请或指定邀请
var inviteShowCmd = &cobra.Command{
	Use:   "show [token]",
	Short: "查看待处理邀请；指定token时查看已存储的邀请",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.New(serverURL)

		if len(args) == 1 {
			inv, err := c.GetInvitation(args[0])
			if err != nil {
				output.Error("查询失败: %v", err)
				return err
			}
			if outputJSON {
				return printJSON(cmd, inv)
			}
			printInvitation(cmd, inv)
			return nil
		}

		state, err := c.Invitation()
		if err != nil {
			output.Error("查询失败: %v", err)
			return err
		}
		if outputJSON {
			return printJSON(cmd, state)
		}
		if state.Pending == nil {
			output.Info("没有待处理邀请 (状态: %s)", state.State)
			return nil
		}
		output.Info("待处理邀请 (状态: %s)", state.State)
		printPayload(cmd, *state.Pending)
		return nil
	},
}

// inviteAcceptCmd 接受待处理邀请
var inviteAcceptCmd = &cobra.Command{
	Use:   "accept",
	Short: "接受待处理邀请",
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := client.New(serverURL).Accept()
		if err != nil {
			output.Error("接受失败: %v", err)
			return err
		}
		return printOutcome(cmd, resp)
	},
}

// inviteDeclineCmd 拒绝待处理邀请
var inviteDeclineCmd = &cobra.Command{
	Use:   "decline",
	Short: "拒绝待处理邀请",
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := client.New(serverURL).Decline()
		if err != nil {
			output.Error("拒绝失败: %v", err)
			return err
		}
		return printOutcome(cmd, resp)
	},
}

// inviteCreateCmd 为清单创建邀请
var inviteCreateCmd = &cobra.Command{
	Use:   "create <list-id>",
	Short: "为清单创建邀请并输出分享链接",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		inv, err := client.New(serverURL).CreateInvitation(args[0], inviteTTL)
		if err != nil {
			output.Error("创建失败: %v", err)
			return err
		}
		if outputJSON {
			return printJSON(cmd, inv)
		}
		output.Success("邀请已创建")
		printInvitation(cmd, inv)
		return nil
	},
}

func printOutcome(cmd *cobra.Command, resp *dto.OutcomeResponse) error {
	if outputJSON {
		return printJSON(cmd, resp)
	}
	output.Info("结果: %s", output.FormatOutcome(resp.Outcome))
	output.Banner(resp.Banner)
	return nil
}

func printInvitation(cmd *cobra.Command, inv *dto.InvitationDetail) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Token:   %s\n", inv.Token)
	fmt.Fprintf(out, "List:    %s (%s)\n", inv.ListName, inv.ListID)
	if inv.FromName != "" {
		fmt.Fprintf(out, "From:    %s\n", inv.FromName)
	}
	fmt.Fprintf(out, "Status:  %s\n", inv.Status)
	if inv.ExpiresAt != nil {
		fmt.Fprintf(out, "Expires: %s\n", inv.ExpiresAt.Format(time.RFC3339))
	}
	fmt.Fprintf(out, "App:     %s\n", inv.AppURL)
	fmt.Fprintf(out, "Web:     %s\n", inv.WebURL)
}

func init() {
	inviteCreateCmd.Flags().DurationVar(&inviteTTL, "ttl", 7*24*time.Hour, "邀请有效期，0表示不过期")

	inviteCmd.AddCommand(inviteShowCmd)
	inviteCmd.AddCommand(inviteAcceptCmd)
	inviteCmd.AddCommand(inviteDeclineCmd)
	inviteCmd.AddCommand(inviteCreateCmd)
}
