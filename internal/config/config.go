// Package config loads bebopctl's TOML file and turns it into engine
// options.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/cockroachdb/errors"

	"github.com/unkn0wn-root/bebopffi"
	"github.com/unkn0wn-root/bebopffi/arena"
	"github.com/unkn0wn-root/bebopffi/journal"
)

// EnvLogLevel overrides [log] level when set.
const EnvLogLevel = "BEBOPCTL_LOG_LEVEL"

var (
	ErrBadBackend = errors.New("config: unknown backend")
	ErrBadLevel   = errors.New("config: unknown log level")
)

type Config struct {
	Arena      arena.Options
	MaxMessage int
	Log        Log
	Journal    Journal
}

type Log struct {
	Backend string // zap | logrus | zerolog | slog | none
	Level   string // debug | info | warn | error
}

type Journal struct {
	Backend   string // "" disables the journal; ristretto | bigcache | redis | pebble
	Namespace string
	TTL       time.Duration
	RedisAddr string
	PebbleDir string
	MaxCost   int64
}

func Default() Config {
	return Config{
		Arena:      arena.Options{ChunkSize: arena.DefaultChunkSize},
		MaxMessage: bebopffi.DefaultMaxMessage,
		Log:        Log{Backend: "zerolog", Level: "info"},
		Journal: Journal{
			Namespace: journal.DefaultNamespace,
			TTL:       journal.DefaultTTL,
			RedisAddr: "127.0.0.1:6379",
			PebbleDir: "bebop-journal",
			MaxCost:   64 << 20,
		},
	}
}

type fileConfig struct {
	Arena struct {
		ChunkSize int   `toml:"chunk_size"`
		Limit     int64 `toml:"limit"`
		Poison    bool  `toml:"poison"`
	} `toml:"arena"`
	Decode struct {
		MaxMessage int `toml:"max_message"`
	} `toml:"decode"`
	Log struct {
		Backend string `toml:"backend"`
		Level   string `toml:"level"`
	} `toml:"log"`
	Journal struct {
		Backend   string `toml:"backend"`
		Namespace string `toml:"namespace"`
		TTL       string `toml:"ttl"`
		RedisAddr string `toml:"redis_addr"`
		PebbleDir string `toml:"pebble_dir"`
		MaxCost   int64  `toml:"max_cost"`
	} `toml:"journal"`
}

// Load reads path over Default. An empty path yields the defaults. The
// environment is applied last.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		var raw fileConfig
		meta, err := toml.DecodeFile(path, &raw)
		if err != nil {
			return Config{}, errors.Wrapf(err, "load config %q", path)
		}
		if err := apply(&cfg, &raw, meta); err != nil {
			return Config{}, err
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Log.Level = strings.ToLower(v)
	}
	return cfg, cfg.Validate()
}

// Parse is Load for an in-memory document.
func Parse(doc string) (Config, error) {
	cfg := Default()
	var raw fileConfig
	meta, err := toml.Decode(doc, &raw)
	if err != nil {
		return Config{}, errors.Wrap(err, "parse config")
	}
	if err := apply(&cfg, &raw, meta); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

func apply(cfg *Config, raw *fileConfig, meta toml.MetaData) error {
	if meta.IsDefined("arena", "chunk_size") {
		cfg.Arena.ChunkSize = raw.Arena.ChunkSize
	}
	if meta.IsDefined("arena", "limit") {
		cfg.Arena.Limit = raw.Arena.Limit
	}
	if meta.IsDefined("arena", "poison") {
		cfg.Arena.Poison = raw.Arena.Poison
	}
	if meta.IsDefined("decode", "max_message") {
		cfg.MaxMessage = raw.Decode.MaxMessage
	}
	if meta.IsDefined("log", "backend") {
		cfg.Log.Backend = strings.ToLower(strings.TrimSpace(raw.Log.Backend))
	}
	if meta.IsDefined("log", "level") {
		cfg.Log.Level = strings.ToLower(strings.TrimSpace(raw.Log.Level))
	}
	if meta.IsDefined("journal", "backend") {
		cfg.Journal.Backend = strings.ToLower(strings.TrimSpace(raw.Journal.Backend))
	}
	if meta.IsDefined("journal", "namespace") {
		cfg.Journal.Namespace = strings.TrimSpace(raw.Journal.Namespace)
	}
	if meta.IsDefined("journal", "ttl") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.Journal.TTL))
		if err != nil {
			return errors.Wrap(err, "parse journal.ttl")
		}
		cfg.Journal.TTL = d
	}
	if meta.IsDefined("journal", "redis_addr") {
		cfg.Journal.RedisAddr = strings.TrimSpace(raw.Journal.RedisAddr)
	}
	if meta.IsDefined("journal", "pebble_dir") {
		cfg.Journal.PebbleDir = strings.TrimSpace(raw.Journal.PebbleDir)
	}
	if meta.IsDefined("journal", "max_cost") {
		cfg.Journal.MaxCost = raw.Journal.MaxCost
	}
	return nil
}

func (c Config) Validate() error {
	switch c.Log.Backend {
	case "zap", "logrus", "zerolog", "slog", "none", "":
	default:
		return errors.Wrapf(ErrBadBackend, "log backend %q", c.Log.Backend)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return errors.Wrapf(ErrBadLevel, "%q", c.Log.Level)
	}
	switch c.Journal.Backend {
	case "", "ristretto", "bigcache", "redis", "pebble":
	default:
		return errors.Wrapf(ErrBadBackend, "journal backend %q", c.Journal.Backend)
	}
	return nil
}
