package logging

import (
	"bytes"
	"context"
	"testing"

	"github.com/piforge/piforge/internal/ports"
	"github.com/stretchr/testify/assert"
)

func TestConsoleLoggerLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	log := NewConsoleLogger(WithOutput(&buf), WithLevel(ports.LevelInfo))
	ctx := context.Background()

	log.Debug(ctx, "hidden")
	log.Info(ctx, "shown")
	log.Error(ctx, "loud")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "[INFO] shown")
	assert.Contains(t, out, "[ERROR] loud")
}

func TestConsoleLoggerFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewConsoleLogger(WithOutput(&buf))

	log.Info(context.Background(), "phase started", ports.F("phase", "foundation"), ports.F("steps", 7))
	assert.Contains(t, buf.String(), "phase=foundation steps=7")
}

func TestConsoleLoggerWith(t *testing.T) {
	var buf bytes.Buffer
	log := NewConsoleLogger(WithOutput(&buf)).With(ports.F("phase", "homehub"))

	log.Warn(context.Background(), "port conflict detected", ports.F("port", 8123))
	assert.Contains(t, buf.String(), "phase=homehub port=8123")
}

func TestTeeWritesToAllLoggers(t *testing.T) {
	var a, b bytes.Buffer
	log := Tee(
		NewConsoleLogger(WithOutput(&a)),
		NewConsoleLogger(WithOutput(&b)),
	)

	log.Info(context.Background(), "both")
	assert.Contains(t, a.String(), "both")
	assert.Contains(t, b.String(), "both")
}
