package logging

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		" WARN ":  zapcore.WarnLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"info":    zapcore.InfoLevel,
		"":        zapcore.InfoLevel,
		"invalid": zapcore.InfoLevel,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewHonorsLevel(t *testing.T) {
	logger, err := New(Options{Level: "warn", OutputPaths: []string{"stderr"}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if logger.Core().Enabled(zapcore.InfoLevel) {
		t.Fatal("info enabled on a warn logger")
	}
	if !logger.Core().Enabled(zapcore.WarnLevel) {
		t.Fatal("warn disabled on a warn logger")
	}
	logger.Info("dropped", zap.String("k", "v"))
	logger.Sync() //nolint:errcheck
}

func TestForEnvDevelopment(t *testing.T) {
	logger, err := ForEnv("dev", "debug")
	if err != nil {
		t.Fatalf("ForEnv returned error: %v", err)
	}
	if !logger.Core().Enabled(zapcore.DebugLevel) {
		t.Fatal("debug disabled on a debug logger")
	}
	logger.Sync() //nolint:errcheck
}
