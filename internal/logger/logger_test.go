package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestLevelOf(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug":   zap.DebugLevel,
		"info":    zap.InfoLevel,
		"warn":    zap.WarnLevel,
		"error":   zap.ErrorLevel,
		"verbose": zap.InfoLevel,
		"":        zap.InfoLevel,
	}

	for in, want := range cases {
		if got := levelOf(in); got != want {
			t.Fatalf("levelOf(%q): want %s got %s", in, want, got)
		}
	}
}

func TestNewLogger_RespectsLevel(t *testing.T) {
	lgr, err := NewLogger("warn")
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}

	if lgr.Core().Enabled(zap.InfoLevel) {
		t.Fatalf("info should be disabled at warn level")
	}

	if !lgr.Core().Enabled(zap.WarnLevel) {
		t.Fatalf("warn should be enabled at warn level")
	}
}
