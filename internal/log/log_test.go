package log

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSectionFiltering(t *testing.T) {
	SetLevel(slog.LevelDebug)
	defer SetLevel(slog.LevelError)

	buf := &bytes.Buffer{}
	logger := New(buf)

	logger.With("section", "inference").Debug("kept")
	logger.With("section", "desugar").Debug("dropped")
	logger.Info("dropped without section")
	logger.Warn("warnings are always kept")
	logger.Info("attribute section", "section", "driver")

	out := buf.String()
	assert.Contains(t, out, "kept")
	assert.NotContains(t, out, "dropped")
	assert.Contains(t, out, "warnings are always kept")
	assert.Contains(t, out, "attribute section")
}

func TestSetLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := New(buf).With("section", "driver")

	SetLevel(slog.LevelError)
	logger.Info("hidden")
	assert.Empty(t, buf.String())

	SetLevel(slog.LevelInfo)
	defer SetLevel(slog.LevelError)
	logger.Info("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestParseLevel(t *testing.T) {
	l, err := ParseLevel("warn")
	assert.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, l)

	_, err = ParseLevel("loud")
	assert.Error(t, err)
}
