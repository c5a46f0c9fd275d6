package cmd

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/impalago/infersema/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testdata = "../frontend/astyaml/testdata"

func TestCheck(t *testing.T) {
	t.Run("well typed program prints its items", func(t *testing.T) {
		var out bytes.Buffer
		ok, err := check(&out, filepath.Join(testdata, "modules.yaml"), config.Default(), false)
		require.NoError(t, err)
		assert.True(t, ok)

		printed := out.String()
		assert.Contains(t, printed, "util::twice: fn(i32, fn(i32))")
		assert.Contains(t, printed, "limit: i32")
		assert.Contains(t, printed, "main: fn(")
		assert.NotContains(t, printed, "\x1b[")
	})

	t.Run("diagnostics carry positions", func(t *testing.T) {
		var out bytes.Buffer
		cfg := config.Default()
		cfg.MaxPasses = 5
		ok, err := check(&out, filepath.Join(testdata, "nonconvergent.yaml"), cfg, true)
		require.NoError(t, err)
		assert.False(t, ok)

		first := strings.SplitN(out.String(), "\n", 2)[0]
		assert.True(t, strings.HasPrefix(first, "\x1b[31m"), "diagnostic is not colored: %q", first)
		assert.Contains(t, first, "nonconvergent.yaml:")
	})

	t.Run("load errors stop checking", func(t *testing.T) {
		var out bytes.Buffer
		ok, err := check(&out, filepath.Join(testdata, "malformed.yaml"), config.Default(), false)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Equal(t, 4, strings.Count(out.String(), "malformed.yaml:"))
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := check(&bytes.Buffer{}, filepath.Join(testdata, "nope.yaml"), config.Default(), false)
		assert.ErrorContains(t, err, "could not load program")
	})
}

func TestUseColor(t *testing.T) {
	assert.True(t, useColor(config.ColorAlways, &bytes.Buffer{}))
	assert.False(t, useColor(config.ColorNever, &bytes.Buffer{}))
	assert.False(t, useColor(config.ColorAuto, &bytes.Buffer{}))
}
