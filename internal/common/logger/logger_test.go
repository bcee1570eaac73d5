package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestMaskSecret(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"abc", "****"},
		{"r8_abcdef123", "r8_a****"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MaskSecret(tt.in))
	}
}

func TestForComponentAddsField(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := ForComponent(NewZapAdapter(zap.New(core)), "persistence")

	log.Warn("tier failed", map[string]interface{}{"tier": "rest", "error": errors.New("503")})

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		fields := entries[0].ContextMap()
		assert.Equal(t, "persistence", fields["component"])
		assert.Equal(t, "rest", fields["tier"])
		assert.Equal(t, "503", fields["error"])
	}
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("warn"))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("verbose"))
}

func TestForComponentNilLogger(t *testing.T) {
	assert.NotPanics(t, func() {
		ForComponent(nil, "x").Info("ok", nil)
	})
}
