package logger

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapLogger_WithAddsFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := FromZap(zap.New(core))

	l.With("component", "test").Info("hello", "k", 1)
	l.Warn("careful")

	entries := logs.All()
	require.Len(t, entries, 2)
	require.Equal(t, "hello", entries[0].Message)
	require.Equal(t, "test", entries[0].ContextMap()["component"])
	require.EqualValues(t, 1, entries[0].ContextMap()["k"])
	require.Equal(t, zapcore.WarnLevel, entries[1].Level)
}

func TestNewNop(t *testing.T) {
	l := NewNop()
	require.NotPanics(t, func() {
		l.Info("x")
		l.With("a", "b").Error("y")
	})
}
