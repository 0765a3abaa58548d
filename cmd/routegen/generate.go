package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/yanet-platform/routegen/internal/vector"
)

// GenerateCmd is the command line arguments of the generate command.
type GenerateCmd struct {
	InsertionCount uint32
	QueryCount     uint32
	MissRate       float64
	Order          bool
	Pressure       bool
	Seed           uint64
	Format         vector.Format
	Path           string
	Verify         bool
}

var generateArgs = GenerateCmd{
	Format: vector.FormatText,
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a randomized workload and write its vectors",
	Args:  cobra.NoArgs,
	RunE:  runE(runGenerate),
}

func init() {
	flags := generateCmd.Flags()
	flags.Uint32VarP(&generateArgs.InsertionCount, "insertions", "i", 8, "Number of distinct prefixes to insert")
	flags.Uint32VarP(&generateArgs.QueryCount, "queries", "q", 16, "Number of lookups to perform")
	flags.Float64VarP(&generateArgs.MissRate, "miss-rate", "m", 0.5, "Target fraction of queries that miss")
	flags.BoolVarP(&generateArgs.Order, "order", "o", false, "Perform all insertions before any query")
	flags.BoolVarP(&generateArgs.Pressure, "pressure", "p", false, "Cluster prefixes around a random address")
	flags.Uint64VarP(&generateArgs.Seed, "seed", "s", 0, "Random seed, 0 picks and reports a random one")
	flags.VarP(&generateArgs.Format, "format", "f", "Vector format: text, binary or pcap")
	flags.StringVarP(&generateArgs.Path, "write", "w", "", "Output file, defaults to routing_test.mem or routing_test.data")
	flags.BoolVar(&generateArgs.Verify, "verify", false, "Replay the written vectors")
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Flags given explicitly take precedence over the configuration file.
	flags := cmd.Flags()
	if flags.Changed("insertions") {
		cfg.Workload.InsertionCount = generateArgs.InsertionCount
	}
	if flags.Changed("queries") {
		cfg.Workload.QueryCount = generateArgs.QueryCount
	}
	if flags.Changed("miss-rate") {
		cfg.Workload.MissRate = generateArgs.MissRate
	}
	if flags.Changed("order") {
		cfg.Workload.Order = generateArgs.Order
	}
	if flags.Changed("pressure") {
		cfg.Workload.Pressure = generateArgs.Pressure
	}
	if flags.Changed("seed") {
		cfg.Workload.Seed = generateArgs.Seed
	}
	if flags.Changed("format") {
		cfg.Output.Format = generateArgs.Format
	}
	if flags.Changed("write") {
		cfg.Output.Path = generateArgs.Path
	}
	if flags.Changed("verify") {
		cfg.Verify = generateArgs.Verify
	}

	a, log, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	summary, err := a.GenerateFile()
	if summary != nil {
		if printErr := summary.Print(os.Stdout); printErr != nil && err == nil {
			err = printErr
		}
	}
	if err != nil {
		return fmt.Errorf("failed to generate vectors: %w", err)
	}

	return nil
}
