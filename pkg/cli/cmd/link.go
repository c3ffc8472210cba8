package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/LENAX/grocery-core/pkg/cli/client"
	"github.com/LENAX/grocery-core/pkg/cli/output"
	"github.com/LENAX/grocery-core/pkg/core/deeplink"
)

var openSource string

// openCmd 投递深度链接
var openCmd = &cobra.Command{
	Use:   "open <url>",
	Short: "向运行中的服务投递深度链接",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := client.New(serverURL).OpenLink(args[0], openSource); err != nil {
			output.Error("投递失败: %v", err)
			return err
		}
		output.Success("深度链接已投递，使用 invite show 查看待处理邀请")
		return nil
	},
}

// parseCmd 本地解析深度链接
var parseCmd = &cobra.Command{
	Use:   "parse <url>",
	Short: "解析深度链接（本地执行，不需要服务）",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		interp, err := localInterpreter()
		if err != nil {
			return err
		}

		payload, ok := interp.Parse(args[0])
		if outputJSON {
			data := map[string]interface{}{"url": args[0], "valid": ok}
			if ok {
				data["payload"] = payload
				data["expired"] = payload.IsExpired(time.Now())
			}
			return printJSON(cmd, data)
		}

		if !ok {
			output.Warning("不是邀请链接: %s", args[0])
			return nil
		}
		printPayload(cmd, payload)
		return nil
	},
}

// linkCmd 链接相关命令
var linkCmd = &cobra.Command{
	Use:   "link",
	Short: "邀请链接工具",
}

// linkExtractCmd 从HTML中提取邀请链接
var linkExtractCmd = &cobra.Command{
	Use:   "extract <html-file>",
	Short: "从分享页面HTML中提取邀请链接（- 表示标准输入）",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		interp, err := localInterpreter()
		if err != nil {
			return err
		}

		var r io.Reader
		if args[0] == "-" {
			r = cmd.InOrStdin()
		} else {
			f, err := os.Open(args[0])
			if err != nil {
				output.Error("打开文件失败: %v", err)
				return err
			}
			defer f.Close()
			r = f
		}

		links, err := deeplink.LinksFromHTML(r, interp)
		if err != nil {
			output.Error("解析HTML失败: %v", err)
			return err
		}

		if outputJSON {
			return printJSON(cmd, links)
		}
		if len(links) == 0 {
			output.Info("未找到邀请链接")
			return nil
		}

		table := output.NewTable([]string{"SOURCE", "TOKEN", "LIST", "FROM", "URL"})
		table.SetOutput(cmd.OutOrStdout())
		for _, l := range links {
			table.AddRow([]string{l.Source, l.Payload.Token, l.Payload.ListName, l.Payload.FromName, l.URL})
		}
		table.Render()
		return nil
	},
}

func localInterpreter() (*deeplink.Interpreter, error) {
	cfg, err := loadConfig()
	if err != nil {
		output.Error("加载配置失败: %v", err)
		return nil, err
	}
	return deeplink.NewInterpreter(cfg.Grocery.DeepLink.Scheme, cfg.Grocery.DeepLink.WebHost), nil
}

func printPayload(cmd *cobra.Command, p deeplink.Payload) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Token:   %s\n", p.Token)
	if p.ListName != "" {
		fmt.Fprintf(out, "List:    %s\n", p.ListName)
	}
	if p.FromName != "" {
		fmt.Fprintf(out, "From:    %s\n", p.FromName)
	}
	if p.Expires != nil {
		state := "valid"
		if p.IsExpired(time.Now()) {
			state = "expired"
		}
		fmt.Fprintf(out, "Expires: %s (%s)\n", p.Expires.Format(time.RFC3339), state)
	}
}

func init() {
	openCmd.Flags().StringVar(&openSource, "source", "cli", "链接来源标记")
	linkCmd.AddCommand(linkExtractCmd)
}
