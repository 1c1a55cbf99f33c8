package commands

import (
	"context"
	"runtime"

	"github.com/cockroachdb/errors"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/unkn0wn-root/bebopffi"
	"github.com/unkn0wn-root/bebopffi/abi"
	"github.com/unkn0wn-root/bebopffi/sensor"
)

func newDecodeCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:      "decode",
		Usage:     "Decode wire-format files and print the readings",
		UsageText: "bebopctl decode [--format text|json|cbor|msgpack|proto|wire] file...",
		Description: `Each file may hold several messages back to back. Files are decoded
in parallel, each worker with its own arena context, and printed in
argument order. "-" reads stdin.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Value:   "text",
				Usage:   "output format; binary formats print as hex",
			},
			&cli.IntFlag{
				Name:    "jobs",
				Aliases: []string{"j"},
				Value:   runtime.GOMAXPROCS(0),
				Usage:   "files decoded concurrently",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			paths := cmd.Args().Slice()
			if len(paths) == 0 {
				return errors.New(cmd.UsageText)
			}
			w, err := newWriter(cmd.String("format"))
			if err != nil {
				return err
			}
			eng, closeEngine, err := e.open()
			if err != nil {
				return err
			}
			defer func() { _ = closeEngine(ctx) }()

			results, err := decodeFiles(ctx, e, eng, paths, int(cmd.Int("jobs")))
			if err != nil {
				return err
			}
			for _, ss := range results {
				if err := w.write(e.stdout, ss); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

// decodeFiles returns one snapshot list per path, in path order.
func decodeFiles(ctx context.Context, e *env, eng bebopffi.Engine, paths []string, jobs int) ([][]sensor.Snapshot, error) {
	results := make([][]sensor.Snapshot, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	if jobs > 0 {
		g.SetLimit(jobs)
	}
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := e.readInput(path)
			if err != nil {
				return err
			}
			ss, err := decodeAll(eng, data)
			if err != nil {
				return errors.Wrapf(err, "%s", path)
			}
			results[i] = ss
			return nil
		})
	}
	return results, g.Wait()
}

// decodeAll decodes every message in data with a private context.
func decodeAll(eng bebopffi.Engine, data []byte) ([]sensor.Snapshot, error) {
	ac, st := eng.NewContext()
	if st != abi.StatusOK {
		return nil, st.Err()
	}
	defer eng.DestroyContext(ac)

	rs, st := eng.DecodeStream(ac, data)
	if st != abi.StatusOK {
		return nil, &bebopffi.Error{Op: "decode", Status: st, Err: errors.New(eng.LastError(ac))}
	}
	out := make([]sensor.Snapshot, len(rs))
	for i := range rs {
		out[i] = rs[i].Snapshot()
	}
	return out, nil
}
