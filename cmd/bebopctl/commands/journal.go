package commands

import (
	"context"
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/urfave/cli/v3"

	"github.com/unkn0wn-root/bebopffi/abi"
	"github.com/unkn0wn-root/bebopffi/sensor"
)

func newJournalCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:  "journal",
		Usage: "Store and fetch last-known readings through the configured [journal] backend",
		Commands: []*cli.Command{
			{
				Name:      "put",
				Usage:     "Publish JSON readings as their sensors' latest",
				UsageText: "bebopctl journal put --in readings.json",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "in", Aliases: []string{"i"}, Usage: "JSON input file, - for stdin", Required: true},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return journalPut(ctx, e, cmd.String("in"))
				},
			},
			{
				Name:      "get",
				Usage:     "Print the latest reading of each sensor id",
				UsageText: "bebopctl journal get [--format text|json|...] sensor-id...",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Value: "text", Usage: "output format"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					ids := cmd.Args().Slice()
					if len(ids) == 0 {
						return errors.New(cmd.UsageText)
					}
					return journalGet(ctx, e, cmd.String("format"), ids)
				},
			},
			{
				Name:      "forget",
				Usage:     "Invalidate the latest reading of each sensor id",
				UsageText: "bebopctl journal forget sensor-id...",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					eng, closeEngine, err := e.open()
					if err != nil {
						return err
					}
					defer func() { _ = closeEngine(ctx) }()
					for _, id := range cmd.Args().Slice() {
						if err := eng.Forget(ctx, id); err != nil {
							return err
						}
					}
					return nil
				},
			},
		},
	}
}

func journalPut(ctx context.Context, e *env, in string) error {
	data, err := e.readInput(in)
	if err != nil {
		return err
	}
	eng, closeEngine, err := e.open()
	if err != nil {
		return err
	}
	defer func() { _ = closeEngine(ctx) }()

	ac, st := eng.NewContext()
	if st != abi.StatusOK {
		return st.Err()
	}
	defer eng.DestroyContext(ac)

	rs, err := sensor.ParseJSONList(ac, data)
	if err != nil {
		return err
	}
	if len(rs) == 1 {
		err = eng.Publish(ctx, ac, &rs[0])
	} else {
		err = eng.PublishBatch(ctx, ac, rs)
	}
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(e.stdout, "published %d reading(s)\n", len(rs))
	return err
}

func journalGet(ctx context.Context, e *env, format string, ids []string) error {
	w, err := newWriter(format)
	if err != nil {
		return err
	}
	eng, closeEngine, err := e.open()
	if err != nil {
		return err
	}
	defer func() { _ = closeEngine(ctx) }()

	ac, st := eng.NewContext()
	if st != abi.StatusOK {
		return st.Err()
	}
	defer eng.DestroyContext(ac)

	rs, missing, err := eng.LatestBatch(ctx, ac, ids)
	if err != nil {
		return err
	}
	ss := make([]sensor.Snapshot, len(rs))
	for i := range rs {
		ss[i] = rs[i].Snapshot()
	}
	if err := w.write(e.stdout, ss); err != nil {
		return err
	}
	for _, id := range missing {
		if _, err := fmt.Fprintf(e.stderr, "missing: %s\n", id); err != nil {
			return err
		}
	}
	return nil
}
