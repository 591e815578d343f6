package utils

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultLogger_Prefix(t *testing.T) {
	var buf bytes.Buffer
	log := NewWriterLogger(&buf, slog.LevelDebug)
	log.Debug("full reload", "reason", "detached")
	assert.Contains(t, buf.String(), "[rowbind] full reload")
	assert.Contains(t, buf.String(), "reason=detached")
}

func TestDefaultLogger_Level(t *testing.T) {
	var buf bytes.Buffer
	log := NewWriterLogger(&buf, slog.LevelWarn)
	log.Info("hidden")
	assert.Empty(t, buf.String())
	log.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestDefaultLogger_ArgsAndWith(t *testing.T) {
	var buf bytes.Buffer
	log := NewWriterLogger(&buf, slog.LevelDebug).With("engine", "timers")
	ctx := WithDefaultArgs(context.Background(), "section", 3)
	log.InfoCtx(ctx, "rows")
	out := buf.String()
	assert.Contains(t, out, "engine=timers")
	assert.Contains(t, out, "section=3")
}
