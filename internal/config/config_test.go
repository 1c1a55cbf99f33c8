package config

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unkn0wn-root/bebopffi"
	"github.com/unkn0wn-root/bebopffi/arena"
)

func TestParseOverridesOnlyDefinedKeys(t *testing.T) {
	cfg, err := Parse(`
[arena]
limit = 1048576
poison = true

[log]
backend = "ZAP"

[journal]
backend = "ristretto"
ttl = "90s"
`)
	require.NoError(t, err)
	assert.Equal(t, arena.DefaultChunkSize, cfg.Arena.ChunkSize)
	assert.Equal(t, int64(1<<20), cfg.Arena.Limit)
	assert.True(t, cfg.Arena.Poison)
	assert.Equal(t, bebopffi.DefaultMaxMessage, cfg.MaxMessage)
	assert.Equal(t, "zap", cfg.Log.Backend)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "ristretto", cfg.Journal.Backend)
	assert.Equal(t, 90*time.Second, cfg.Journal.TTL)
	assert.Equal(t, Default().Journal.Namespace, cfg.Journal.Namespace)
}

func TestParseErrors(t *testing.T) {
	_, err := Parse("[log]\nbackend = \"syslog\"\n")
	assert.True(t, errors.Is(err, ErrBadBackend), "%v", err)

	_, err = Parse("[log]\nlevel = \"loud\"\n")
	assert.True(t, errors.Is(err, ErrBadLevel), "%v", err)

	_, err = Parse("[journal]\nbackend = \"memcached\"\n")
	assert.True(t, errors.Is(err, ErrBadBackend), "%v", err)

	_, err = Parse("[journal]\nttl = \"soon\"\n")
	assert.Error(t, err)

	_, err = Parse("[arena\n")
	assert.Error(t, err)
}

func TestLoadFileAndEnv(t *testing.T) {
	t.Setenv(EnvLogLevel, "")
	path := filepath.Join(t.TempDir(), "bebopctl.toml")
	require.NoError(t, os.WriteFile(path, []byte("[decode]\nmax_message = 4096\n[log]\nlevel = \"warn\"\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 4096, cfg.MaxMessage)
	assert.Equal(t, "warn", cfg.Log.Level)

	t.Setenv(EnvLogLevel, "DEBUG")
	cfg, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)

	_, err = Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestLoadEmptyPathIsDefault(t *testing.T) {
	t.Setenv(EnvLogLevel, "")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoggerBackends(t *testing.T) {
	for _, backend := range []string{"zap", "logrus", "zerolog", "slog"} {
		t.Run(backend, func(t *testing.T) {
			cfg := Default()
			cfg.Log = Log{Backend: backend, Level: "warn"}
			var buf bytes.Buffer
			l, flush, err := cfg.Logger(&buf)
			require.NoError(t, err)
			l.Info("hidden", nil)
			l.Warn("shown", bebopffi.Fields{"k": "v"})
			flush()
			assert.NotContains(t, buf.String(), "hidden")
			assert.Contains(t, buf.String(), "shown")
		})
	}

	cfg := Default()
	cfg.Log.Backend = "none"
	l, _, err := cfg.Logger(&bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, bebopffi.NopLogger{}, l)
}

func TestJournalOptions(t *testing.T) {
	cfg := Default()
	jo, err := cfg.JournalOptions()
	require.NoError(t, err)
	assert.Nil(t, jo)

	for _, backend := range []string{"ristretto", "bigcache", "pebble"} {
		t.Run(backend, func(t *testing.T) {
			cfg := Default()
			cfg.Journal.Backend = backend
			cfg.Journal.PebbleDir = t.TempDir()
			cfg.Journal.MaxCost = 1 << 20
			jo, err := cfg.JournalOptions()
			require.NoError(t, err)
			require.NotNil(t, jo.Provider)
			if backend == "pebble" {
				assert.NotNil(t, jo.Gens)
			} else {
				assert.Nil(t, jo.Gens)
			}
			require.NoError(t, jo.Provider.Close(context.Background()))
		})
	}
}

func TestEngineOptions(t *testing.T) {
	cfg := Default()
	cfg.Log.Backend = "slog"
	cfg.Arena.Limit = 1 << 20
	opts, flush, err := cfg.EngineOptions(&bytes.Buffer{})
	require.NoError(t, err)
	defer flush()
	assert.Equal(t, int64(1<<20), opts.Arena.Limit)
	assert.Nil(t, opts.Journal)

	eng, err := bebopffi.New(opts)
	require.NoError(t, err)
	require.NoError(t, eng.Close(context.Background()))
}
