package cmd

import (
	"github.com/spf13/cobra"

	"github.com/LENAX/grocery-core/pkg/api/dto"
	"github.com/LENAX/grocery-core/pkg/cli/client"
	"github.com/LENAX/grocery-core/pkg/cli/output"
)

var (
	bannerWatch bool
	bannerClear bool
)

// bannerCmd 查看横幅
var bannerCmd = &cobra.Command{
	Use:   "banner",
	Short: "查看、清除或持续订阅横幅消息",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.New(serverURL)

		if bannerClear {
			if err := c.ClearBanner(); err != nil {
				output.Error("清除失败: %v", err)
				return err
			}
			output.Success("横幅已清除")
			return nil
		}

		if bannerWatch {
			output.Info("正在订阅横幅变化，按Ctrl+C退出")
			return c.WatchBanner(func(msg dto.BannerResponse) bool {
				if outputJSON {
					return printJSON(cmd, msg) == nil
				}
				if msg.Text == "" {
					output.Info("(横幅已清除) v%d", msg.Version)
				} else {
					output.Banner(msg.Text)
				}
				return true
			})
		}

		msg, err := c.Banner()
		if err != nil {
			output.Error("查询失败: %v", err)
			return err
		}
		if outputJSON {
			return printJSON(cmd, msg)
		}
		if msg.Text == "" {
			output.Info("当前没有横幅")
			return nil
		}
		output.Banner(msg.Text)
		return nil
	},
}

func init() {
	bannerCmd.Flags().BoolVarP(&bannerWatch, "watch", "w", false, "通过WebSocket持续输出横幅变化")
	bannerCmd.Flags().BoolVar(&bannerClear, "clear", false, "清除当前横幅")
}
