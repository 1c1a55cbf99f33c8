package config

import (
	"context"
	"io"
	stdslog "log/slog"
	"time"

	"github.com/cockroachdb/errors"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/sirupsen/logrus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/unkn0wn-root/bebopffi"
	"github.com/unkn0wn-root/bebopffi/genstore"
	"github.com/unkn0wn-root/bebopffi/journal"
	logruslog "github.com/unkn0wn-root/bebopffi/log/logrus"
	sloglog "github.com/unkn0wn-root/bebopffi/log/slog"
	zaplog "github.com/unkn0wn-root/bebopffi/log/zap"
	zerologlog "github.com/unkn0wn-root/bebopffi/log/zerolog"
	"github.com/unkn0wn-root/bebopffi/provider"
	"github.com/unkn0wn-root/bebopffi/provider/bigcache"
	"github.com/unkn0wn-root/bebopffi/provider/pebble"
	redisprov "github.com/unkn0wn-root/bebopffi/provider/redis"
	"github.com/unkn0wn-root/bebopffi/provider/ristretto"
)

// Logger builds the configured backend writing to w. The returned func
// flushes buffered output.
func (c Config) Logger(w io.Writer) (bebopffi.Logger, func(), error) {
	nop := func() {}
	switch c.Log.Backend {
	case "zap":
		lvl, err := zapcore.ParseLevel(c.Log.Level)
		if err != nil {
			return nil, nop, errors.Wrapf(ErrBadLevel, "%q", c.Log.Level)
		}
		core := zapcore.NewCore(
			zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
			zapcore.AddSync(w),
			lvl,
		)
		z := zap.New(core)
		return zaplog.New(z), func() { _ = z.Sync() }, nil
	case "logrus":
		lvl, err := logrus.ParseLevel(c.Log.Level)
		if err != nil {
			return nil, nop, errors.Wrapf(ErrBadLevel, "%q", c.Log.Level)
		}
		l := logrus.New()
		l.SetOutput(w)
		l.SetLevel(lvl)
		return logruslog.New(l), nop, nil
	case "zerolog":
		lvl, err := zerolog.ParseLevel(c.Log.Level)
		if err != nil {
			return nil, nop, errors.Wrapf(ErrBadLevel, "%q", c.Log.Level)
		}
		return zerologlog.NewConsole(w, lvl), nop, nil
	case "slog":
		var lvl stdslog.Level
		if err := lvl.UnmarshalText([]byte(c.Log.Level)); err != nil {
			return nil, nop, errors.Wrapf(ErrBadLevel, "%q", c.Log.Level)
		}
		h := stdslog.NewTextHandler(w, &stdslog.HandlerOptions{Level: lvl})
		return sloglog.New(stdslog.New(h)), nop, nil
	case "none", "":
		return bebopffi.NopLogger{}, nop, nil
	}
	return nil, nop, errors.Wrapf(ErrBadBackend, "log backend %q", c.Log.Backend)
}

// JournalOptions opens the configured journal backend. It returns nil when
// the journal is disabled. Closing the journal closes what this opened.
func (c Config) JournalOptions() (*journal.Options, error) {
	j := c.Journal
	opts := &journal.Options{Namespace: j.Namespace, TTL: j.TTL}
	var (
		p   provider.Provider
		err error
	)
	switch j.Backend {
	case "":
		return nil, nil
	case "ristretto":
		p, err = ristretto.New(ristretto.DefaultConfig(j.MaxCost))
	case "bigcache":
		life := j.TTL
		if life <= 0 {
			life = 365 * 24 * time.Hour
		}
		p, err = bigcache.New(bigcache.Config{
			LifeWindow:         life,
			HardMaxCacheSizeMB: int(j.MaxCost >> 20),
		})
	case "pebble":
		var pp *pebble.Provider
		if pp, err = pebble.Open(pebble.Config{Dir: j.PebbleDir}); err == nil {
			p = pp
			opts.Gens = genstore.NewProviderStore(pp, 0)
		}
	case "redis":
		rdb := goredis.NewClient(&goredis.Options{Addr: j.RedisAddr})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			_ = rdb.Close()
			return nil, errors.Wrapf(err, "journal redis %s", j.RedisAddr)
		}
		p, err = redisprov.New(redisprov.Config{Client: rdb, CloseClient: true})
		opts.Gens = genstore.NewRedisStore(rdb, j.Namespace, 0)
	default:
		return nil, errors.Wrapf(ErrBadBackend, "journal backend %q", j.Backend)
	}
	if err != nil {
		return nil, err
	}
	opts.Provider = p
	return opts, nil
}

// EngineOptions assembles logger, arena, decode limit and journal. Call the
// returned func once the engine is closed.
func (c Config) EngineOptions(w io.Writer) (bebopffi.Options, func(), error) {
	log, flush, err := c.Logger(w)
	if err != nil {
		return bebopffi.Options{}, flush, err
	}
	jo, err := c.JournalOptions()
	if err != nil {
		return bebopffi.Options{}, flush, err
	}
	return bebopffi.Options{
		Logger:     log,
		Arena:      c.Arena,
		MaxMessage: c.MaxMessage,
		Journal:    jo,
	}, flush, nil
}
