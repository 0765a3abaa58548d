package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yanet-platform/routegen/common/go/xcmd"
)

var pushEndpoint string

var pushCmd = &cobra.Command{
	Use:   "push [<file>]",
	Short: "Push binary vectors to the test bench",
	Long: `Push a binary vector file to the configured bench endpoint. Without a
file, a workload is generated from the configuration and pushed instead.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runE(runPush),
}

func init() {
	pushCmd.Flags().StringVarP(&pushEndpoint, "endpoint", "e", "", "Bench endpoint, host:port")
}

func runPush(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("endpoint") {
		cfg.Push.Endpoint = pushEndpoint
	}

	a, log, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	return xcmd.RunInterruptible(context.Background(), log, func(ctx context.Context) error {
		if len(args) == 0 {
			summary, err := a.PushGenerated(ctx)
			if err != nil {
				return fmt.Errorf("failed to push generated vectors: %w", err)
			}
			return summary.Print(os.Stdout)
		}

		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open vectors: %w", err)
		}
		defer f.Close()

		n, err := a.Push(ctx, f)
		if err != nil {
			return fmt.Errorf("failed to push %s: %w", args[0], err)
		}
		log.Infow("pushed", zap.String("path", args[0]), zap.Int64("bytes", n))
		return nil
	})
}
