package main

import (
	"fmt"
	"os"

	"github.com/gobwas/glob"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/yanet-platform/routegen/internal/app"
	"github.com/yanet-platform/routegen/internal/vector"
)

// ReadCmd is the command line arguments of the read command.
type ReadCmd struct {
	Format vector.Format
	Match  string
	Color  string
}

var readArgs = ReadCmd{
	Format: vector.FormatText,
	Color:  "auto",
}

var readCmd = &cobra.Command{
	Use:   "read <file>",
	Short: "Print the records of a vector file",
	Args:  cobra.ExactArgs(1),
	RunE:  runE(runRead),
}

func init() {
	flags := readCmd.Flags()
	flags.VarP(&readArgs.Format, "format", "f", "Vector format: text or binary, detected by extension by default")
	flags.StringVar(&readArgs.Match, "match", "", "Print only records matching the glob, e.g. 'query * -> miss'")
	flags.StringVar(&readArgs.Color, "color", readArgs.Color, "Highlight records: auto, always or never")
}

func runRead(cmd *cobra.Command, args []string) error {
	path := args[0]

	opts := app.ReadOptions{}
	if readArgs.Match != "" {
		g, err := glob.Compile(readArgs.Match)
		if err != nil {
			return fmt.Errorf("invalid match pattern: %w", err)
		}
		opts.Match = g
	}

	switch readArgs.Color {
	case "auto":
		opts.Color = term.IsTerminal(int(os.Stdout.Fd()))
	case "always":
		opts.Color = true
	case "never":
	default:
		return fmt.Errorf("invalid color mode %q", readArgs.Color)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	a, log, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open vectors: %w", err)
	}
	defer f.Close()

	if _, err := a.Read(f, inputFormat(cmd, readArgs.Format, path), os.Stdout, opts); err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	return nil
}
