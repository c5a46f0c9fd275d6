package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfig(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		want    *Config
		wantErr string
	}{
		{
			name: "empty file gets defaults",
			src:  "",
			want: &Config{MaxPasses: 100, LogLevel: "error", Color: ColorAuto},
		},
		{
			name: "everything set",
			src:  "max_passes: 12\nlog_level: debug\ncolor: never\n",
			want: &Config{MaxPasses: 12, LogLevel: "debug", Color: ColorNever},
		},
		{
			name:    "negative passes",
			src:     "max_passes: -1\n",
			wantErr: "max_passes must be positive",
		},
		{
			name:    "unknown level",
			src:     "log_level: chatty\n",
			wantErr: "unknown log_level",
		},
		{
			name:    "unknown color",
			src:     "color: sometimes\n",
			wantErr: "color must be one of",
		},
		{
			name:    "not yaml",
			src:     "max_passes: [",
			wantErr: "parsing infersema.yaml",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := ParseConfig([]byte(tt.src), "infersema.yaml")
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg)
		})
	}
}

func TestLevel(t *testing.T) {
	cfg, err := ParseConfig([]byte("log_level: warn"), "infersema.yaml")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, cfg.Level())
	assert.Equal(t, slog.LevelError, Default().Level())
}

func TestFindConfig(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	t.Run("none", func(t *testing.T) {
		found, err := FindConfig(nested)
		require.NoError(t, err)
		// a config further up than the temp dir would be picked up too
		if found != "" {
			assert.NotContains(t, found, root)
		}
	})

	t.Run("walks up to the nearest", func(t *testing.T) {
		path := filepath.Join(root, "a", AltFileName)
		require.NoError(t, os.WriteFile(path, []byte("max_passes: 5\n"), 0o644))

		found, err := FindConfig(nested)
		require.NoError(t, err)
		assert.Equal(t, path, found)

		cfg, from, err := ForFile(filepath.Join(nested, "prog.yaml"))
		require.NoError(t, err)
		assert.Equal(t, path, from)
		assert.Equal(t, 5, cfg.MaxPasses)
	})

	t.Run("yaml wins over yml", func(t *testing.T) {
		path := filepath.Join(nested, FileName)
		require.NoError(t, os.WriteFile(path, []byte("color: always\n"), 0o644))

		cfg, from, err := ForFile(filepath.Join(nested, "prog.yaml"))
		require.NoError(t, err)
		assert.Equal(t, path, from)
		assert.Equal(t, ColorAlways, cfg.Color)
	})
}
