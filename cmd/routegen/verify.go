package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/yanet-platform/routegen/internal/app"
	"github.com/yanet-platform/routegen/internal/vector"
)

var verifyFormat = vector.FormatText

var verifyCmd = &cobra.Command{
	Use:   "verify <file>",
	Short: "Replay a vector file and check every expected answer",
	Args:  cobra.ExactArgs(1),
	RunE:  runE(runVerify),
}

func init() {
	verifyCmd.Flags().VarP(&verifyFormat, "format", "f", "Vector format: text or binary, detected by extension by default")
}

func runVerify(cmd *cobra.Command, args []string) error {
	path := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	a, log, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	report, err := a.VerifyFile(path, inputFormat(cmd, verifyFormat, path))
	if err != nil {
		return err
	}
	if err := app.PrintReport(os.Stdout, report); err != nil {
		return err
	}
	if !report.OK() {
		return fmt.Errorf("%s has %d mismatch(es)", path, len(report.Mismatches))
	}

	return nil
}
