package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yanet-platform/routegen/common/go/logging"
	"github.com/yanet-platform/routegen/common/go/xcmd"
	"github.com/yanet-platform/routegen/internal/app"
	"github.com/yanet-platform/routegen/internal/vector"
)

// configPath is the path to the optional configuration file.
var configPath string

var rootCmd = &cobra.Command{
	Use:   "routegen",
	Short: "Generate and check IPv4 longest-prefix-match test vectors",
	Long: `routegen drives a reference longest-prefix-match table through
randomized insertions and queries, and writes every operation together
with its expected answer as test vectors for router hardware.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to the configuration file")

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(readCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(pushCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Printf("ERROR: %v\n", err)
		os.Exit(1)
	}
}

// runE wraps a command body so that interruption is not reported as a
// failure.
func runE(fn func(cmd *cobra.Command, args []string) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if err := fn(cmd, args); err != nil && !xcmd.IsInterrupted(err) {
			return err
		}
		return nil
	}
}

// loadConfig returns the configuration file contents, or the defaults
// when no file is given.
func loadConfig() (*app.Config, error) {
	if configPath == "" {
		return app.DefaultConfig(), nil
	}

	cfg, err := app.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// newApp initializes logging and creates the App.
func newApp(cfg *app.Config) (*app.App, *zap.SugaredLogger, error) {
	log, _, err := logging.Init(cfg.Logging)
	if err != nil {
		return nil, nil, err
	}

	a, err := app.NewApp(cfg, app.WithLog(log))
	if err != nil {
		return nil, log, fmt.Errorf("invalid configuration: %w", err)
	}
	return a, log, nil
}

// detectFormat guesses the vector format of a file by its extension.
func detectFormat(path string) vector.Format {
	switch filepath.Ext(path) {
	case ".data", ".bin":
		return vector.FormatBinary
	case ".pcap":
		return vector.FormatPcap
	default:
		return vector.FormatText
	}
}

// inputFormat returns the format given by the flag, or the detected one.
func inputFormat(cmd *cobra.Command, flag vector.Format, path string) vector.Format {
	if cmd.Flags().Changed("format") {
		return flag
	}
	return detectFormat(path)
}
