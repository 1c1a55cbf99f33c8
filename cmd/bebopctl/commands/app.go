// Package commands implements the bebopctl subcommands.
package commands

import (
	"context"
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/urfave/cli/v3"

	"github.com/unkn0wn-root/bebopffi"
	"github.com/unkn0wn-root/bebopffi/internal/config"
)

// env is shared by every subcommand of one invocation.
type env struct {
	cfg    config.Config
	stdout io.Writer
	stderr io.Writer
	stdin  io.Reader
}

// NewApp creates the bebopctl command tree writing to stdout and stderr.
func NewApp(stdout, stderr io.Writer) *cli.Command {
	e := &env{cfg: config.Default(), stdout: stdout, stderr: stderr, stdin: os.Stdin}
	return &cli.Command{
		Name:      "bebopctl",
		Usage:     "Decode, encode and inspect bebop sensor readings",
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to a TOML config file",
				Sources: cli.EnvVars("BEBOPCTL_CONFIG"),
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			cfg, err := config.Load(cmd.String("config"))
			if err != nil {
				return ctx, err
			}
			e.cfg = cfg
			return ctx, nil
		},
		Commands: []*cli.Command{
			newDecodeCommand(e),
			newEncodeCommand(e),
			newInspectCommand(e),
			newJournalCommand(e),
			newVersionCommand(e),
		},
	}
}

// open builds an engine from the loaded config. The returned func closes
// it and flushes the logger.
func (e *env) open() (bebopffi.Engine, func(context.Context) error, error) {
	opts, flush, err := e.cfg.EngineOptions(e.stderr)
	if err != nil {
		return nil, nil, err
	}
	eng, err := bebopffi.New(opts)
	if err != nil {
		flush()
		return nil, nil, err
	}
	return eng, func(ctx context.Context) error {
		defer flush()
		return eng.Close(ctx)
	}, nil
}

// readInput reads a file, or stdin for "-".
func (e *env) readInput(path string) ([]byte, error) {
	if path == "-" || path == "" {
		b, err := io.ReadAll(e.stdin)
		return b, errors.Wrap(err, "read stdin")
	}
	b, err := os.ReadFile(path)
	return b, errors.Wrapf(err, "read %s", path)
}
