package commands

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/urfave/cli/v3"

	"github.com/unkn0wn-root/bebopffi/abi"
)

func newVersionCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Shows the ABI and bebopctl versions",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cliVersion := "(unknown)"
			if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
				cliVersion = info.Main.Version
			}
			major, minor, patch := abi.Unpack(abi.Version)
			_, err := fmt.Fprintf(e.stdout, "ABI %d.%d.%d (0x%06x)\nbebopctl %s\n", major, minor, patch, abi.Version, cliVersion)
			return err
		},
	}
}
