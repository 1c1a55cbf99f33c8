package commands

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/urfave/cli/v3"

	"github.com/unkn0wn-root/bebopffi"
	"github.com/unkn0wn-root/bebopffi/abi"
	"github.com/unkn0wn-root/bebopffi/arena"
	"github.com/unkn0wn-root/bebopffi/batch"
	"github.com/unkn0wn-root/bebopffi/sensor"
)

func newEncodeCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:      "encode",
		Usage:     "Encode JSON readings to wire format",
		UsageText: "bebopctl encode --in reading.json [--out file]",
		Description: `The input is one reading object or an array of them. Several readings
are written back to back. Without --out the bytes are printed as hex.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "in",
				Aliases:  []string{"i"},
				Usage:    "JSON input file, - for stdin",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Usage:   "output file",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			data, err := e.readInput(cmd.String("in"))
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
			b, err := encodeAll(eng, ac, rs)
			if err != nil {
				return err
			}
			if out := cmd.String("out"); out != "" {
				return errors.Wrapf(os.WriteFile(out, b, 0o644), "write %s", out)
			}
			_, err = fmt.Fprintln(e.stdout, hex.EncodeToString(b))
			return err
		},
	}
}

func encodeAll(eng bebopffi.Engine, ac *arena.Context, rs []sensor.Reading) ([]byte, error) {
	n, err := batch.EncodedSize(rs)
	if err != nil {
		return nil, &bebopffi.Error{Op: "encode", Status: abi.FromError(err), Err: err}
	}
	buf := make([]byte, n)
	if eng.EncodeBatch(ac, rs, buf) != n {
		return nil, &bebopffi.Error{Op: "encode", Status: eng.LastStatus(ac), Err: errors.New(eng.LastError(ac))}
	}
	return buf, nil
}
