package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/bai2-encoder/pkg/bai2"
)

var validateCmd = &cobra.Command{
	Use:   "validate [file.bai ...]",
	Short: "Check record counts and control totals of BAI2 files",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	failed := 0
	for _, path := range args {
		totals, err := validateFile(path)
		if err != nil {
			failed++
			fmt.Fprintf(out, "FAIL  %s: %v\n", path, err)
			continue
		}
		fmt.Fprintf(out, "OK    %s (groups %d, accounts %d, records %d, control total %s)\n",
			path, totals.GroupCount, totals.AccountCount, totals.RecordCount, bai2.FormatAmount(totals.ControlTotal))
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed validation", failed, len(args))
	}
	return nil
}

func validateFile(path string) (bai2.Totals, error) {
	f, err := os.Open(path)
	if err != nil {
		return bai2.Totals{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	doc, err := bai2.Parse(f)
	if err != nil {
		return bai2.Totals{}, err
	}
	if err := bai2.Validate(doc); err != nil {
		return bai2.Totals{}, err
	}
	return doc.Totals(), nil
}
