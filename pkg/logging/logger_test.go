package logging

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"INFO", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"warning", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"", zapcore.InfoLevel},
		{"loud", zapcore.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestNewFromCoreFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewFromCore(core).Named("tokenize").With(String("strategy", "filtered"))

	log.Warn("plan cache corrupt",
		Err(errors.New("digest mismatch")),
		Int("rules", 42),
		Bool("rebuilt", true),
		Duration("elapsed", 3*time.Millisecond),
	)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "plan cache corrupt", entry.Message)
	assert.Equal(t, "tokenize", entry.LoggerName)
	fields := entry.ContextMap()
	assert.Equal(t, "filtered", fields["strategy"])
	assert.Equal(t, "digest mismatch", fields["error"])
	assert.EqualValues(t, 42, fields["rules"])
	assert.Equal(t, true, fields["rebuilt"])
}

func TestNopLogger(t *testing.T) {
	log := OrNop(nil)
	log.Info("ignored")
	assert.NotNil(t, log.With(String("k", "v")).Named("x"))
}

func TestNew(t *testing.T) {
	log, err := New(Config{Level: "debug", Format: "json", OutputPaths: []string{"stderr"}})
	require.NoError(t, err)
	assert.NotNil(t, log)

	_, err = New(Config{OutputPaths: []string{"/nonexistent-dir/for/sure/log.txt"}})
	assert.Error(t, err)
}
