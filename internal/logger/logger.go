// Package logger 提供统一的结构化日志
package logger

import (
	"log/slog"
	"os"
	"strings"
)

// New 创建输出到 stderr 的文本日志，level 取 debug/info/warn/error，其它值按 info 处理
func New(level string) *slog.Logger {
	lvl := new(slog.LevelVar)
	switch strings.ToLower(level) {
	case "debug":
		lvl.Set(slog.LevelDebug)
	case "warn":
		lvl.Set(slog.LevelWarn)
	case "error":
		lvl.Set(slog.LevelError)
	default:
		lvl.Set(slog.LevelInfo)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
