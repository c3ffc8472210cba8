package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
)

// Table 简单表格输出
type Table struct {
	headers []string
	rows    [][]string
	widths  []int
	out     io.Writer
}

// NewTable 创建表格
func NewTable(headers []string) *Table {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	return &Table{
		headers: headers,
		rows:    make([][]string, 0),
		widths:  widths,
		out:     os.Stdout,
	}
}

// SetOutput 设置输出目标
func (t *Table) SetOutput(w io.Writer) {
	t.out = w
}

// AddRow 添加行
func (t *Table) AddRow(row []string) {
	// 更新列宽
	for i, cell := range row {
		if i < len(t.widths) && len(cell) > t.widths[i] {
			t.widths[i] = len(cell)
		}
	}
	t.rows = append(t.rows, row)
}

// Render 渲染表格
func (t *Table) Render() {
	// 打印表头
	headerColor := color.New(color.FgCyan, color.Bold)
	for i, h := range t.headers {
		headerColor.Fprintf(t.out, "%-*s  ", t.widths[i], h)
	}
	fmt.Fprintln(t.out)

	// 打印分隔线
	for i := range t.headers {
		fmt.Fprint(t.out, strings.Repeat("-", t.widths[i]))
		fmt.Fprint(t.out, "  ")
	}
	fmt.Fprintln(t.out)

	// 打印数据行
	for _, row := range t.rows {
		for i, cell := range row {
			if i < len(t.widths) {
				fmt.Fprintf(t.out, "%-*s  ", t.widths[i], cell)
			}
		}
		fmt.Fprintln(t.out)
	}
}

// FormatStatus 为初始化任务状态加图标
func FormatStatus(status string) string {
	switch status {
	case "Success":
		return "✅ Success"
	case "Failed":
		return "❌ Failed"
	case "Timeout":
		return "⏱️  Timeout"
	case "Skipped":
		return "⏭️  Skipped"
	case "NotRun":
		return "⏳ NotRun"
	default:
		return status
	}
}

// FormatOutcome 为邀请操作结果加图标
func FormatOutcome(outcome string) string {
	switch outcome {
	case "accepted":
		return "✅ accepted"
	case "declined":
		return "👋 declined"
	case "queued":
		return "📨 queued"
	case "expired":
		return "⌛ expired"
	case "rejected", "error", "unauthenticated":
		return "❌ " + outcome
	default:
		return outcome
	}
}
