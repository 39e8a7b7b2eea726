package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func levelOf(logLevel string) zapcore.Level {
	switch logLevel {
	case "debug":
		return zap.DebugLevel
	case "info":
		return zap.InfoLevel
	case "warn":
		return zap.WarnLevel
	case "error":
		return zap.ErrorLevel
	default:
		return zap.InfoLevel
	}
}

// NewLogger 按日志级别构建开发模式的日志器
func NewLogger(logLevel string) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.Level.SetLevel(levelOf(logLevel))

	lgr, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("构建日志器失败: %w", err)
	}

	return lgr, nil
}

// InitLogger 构建日志器并替换全局的 zap.L() 和 zap.S()
func InitLogger(logLevel string) {
	lgr, err := NewLogger(logLevel)
	if err != nil {
		panic(err)
	}

	zap.ReplaceGlobals(lgr)
}
