package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/cockroachdb/errors"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/unkn0wn-root/bebopffi/sensor"
)

type styles struct {
	title lipgloss.Style
	label lipgloss.Style
	value lipgloss.Style
	meta  lipgloss.Style
	dim   lipgloss.Style
}

func newStyles(color bool) styles {
	if !color {
		plain := lipgloss.NewStyle()
		return styles{title: plain, label: plain, value: plain, meta: plain, dim: plain}
	}
	return styles{
		title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1),
		label: lipgloss.NewStyle().Foreground(lipgloss.Color("#87CEEB")),
		value: lipgloss.NewStyle().Foreground(lipgloss.Color("#98FB98")),
		meta:  lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD700")),
		dim:   lipgloss.NewStyle().Foreground(lipgloss.Color("#666666")),
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func newInspectCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:      "inspect",
		Usage:     "Show every reading in a wire-format file in detail",
		UsageText: "bebopctl inspect [--color] file",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "color",
				Usage: "force styled output even when stdout is not a terminal",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path := cmd.Args().First()
			if path == "" {
				return errors.New(cmd.UsageText)
			}
			data, err := e.readInput(path)
			if err != nil {
				return err
			}
			eng, closeEngine, err := e.open()
			if err != nil {
				return err
			}
			defer func() { _ = closeEngine(ctx) }()

			ss, err := decodeAll(eng, data)
			if err != nil {
				return err
			}
			st := newStyles(cmd.Bool("color") || isTerminal(e.stdout))
			for i, s := range ss {
				if _, err := fmt.Fprintln(e.stdout, inspectBlock(st, i, s)); err != nil {
					return err
				}
			}
			_, err = fmt.Fprintln(e.stdout, st.dim.Render(fmt.Sprintf("%d reading(s), %d bytes", len(ss), len(data))))
			return err
		},
	}
}

func inspectBlock(st styles, i int, s sensor.Snapshot) string {
	t := timeOf(s.Timestamp)
	rows := [][2]string{
		{"timestamp", fmt.Sprintf("%d (%s, %s)", s.Timestamp, t.ToDateTimeString(), t.DiffForHumans())},
		{"sensor_type", fmt.Sprintf("%d (%s)", s.SensorType, sensorTypeLabel(s.SensorType))},
		{"value", strconv.FormatFloat(s.Value, 'g', -1, 64) + " " + s.Unit},
		{"location", s.Location},
	}
	var b strings.Builder
	b.WriteString(st.title.Render(fmt.Sprintf("#%d %s", i, s.SensorID)))
	b.WriteByte('\n')
	for _, r := range rows {
		b.WriteString("  " + st.label.Render(fmt.Sprintf("%-12s", r[0])) + st.value.Render(r[1]) + "\n")
	}
	if len(s.Metadata) > 0 {
		b.WriteString("  " + st.label.Render("metadata") + "\n")
		for _, p := range s.Metadata {
			b.WriteString("    " + st.meta.Render(p.Key) + " = " + st.value.Render(p.Value) + "\n")
		}
	}
	return strings.TrimSuffix(b.String(), "\n")
}
