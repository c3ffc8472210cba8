// Package logger 提供全局日志实例（基于logrus）
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

var std = newStd()

func newStd() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05.000",
	})
	return l
}

// Setup 根据配置初始化日志级别与输出格式（对外导出）
// level: debug/info/warn/error，无法识别时使用info
// format: text/json
func Setup(level, format string) {
	lvl, err := logrus.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	std.SetLevel(lvl)

	if strings.EqualFold(format, "json") {
		std.SetFormatter(&logrus.JSONFormatter{})
	}
}

// SetOutput 设置日志输出（测试中常用于静默日志）
func SetOutput(w io.Writer) {
	std.SetOutput(w)
}

// WithComponent 返回带组件字段的日志条目
func WithComponent(component string) *logrus.Entry {
	return std.WithField("component", component)
}
