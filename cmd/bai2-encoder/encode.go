package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/example/bai2-encoder/internal/batch"
	"github.com/example/bai2-encoder/internal/config"
	"github.com/example/bai2-encoder/internal/logger"
	"github.com/example/bai2-encoder/internal/metrics"
	"github.com/example/bai2-encoder/pkg/bai2"
)

var (
	outputDir       string
	workers         int
	logLevel        string
	metricsTextfile string
)

var encodeCmd = &cobra.Command{
	Use:   "encode [statement.json ...]",
	Short: "Encode statement JSON files as BAI2",
	Long: `Encode reads one JSON statement per file and writes <name>.bai into the
output directory. Files that record an extraction error are written as stub
documents. The command fails if any file could not be encoded.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runEncode,
}

func init() {
	encodeCmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "directory for BAI2 files (overrides batch.output_dir)")
	encodeCmd.Flags().IntVarP(&workers, "workers", "w", 0, "number of files encoded concurrently (overrides batch.workers)")
	encodeCmd.Flags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error (overrides log_level)")
	encodeCmd.Flags().StringVar(&metricsTextfile, "metrics-textfile", "", "write Prometheus metrics to this file (overrides metrics_textfile)")
}

func runEncode(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}
	applyEncodeFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()
	log = log.With(zap.String("run_id", uuid.New().String()))

	enc, err := bai2.NewEncoder(cfg.EncoderOptions(), bai2.WithLogger(log))
	if err != nil {
		return err
	}

	m := metrics.New()
	runner := batch.NewRunner(enc, cfg.Batch.OutputDir, cfg.Batch.Workers, log, m)
	outcomes, runErr := runner.Run(cmd.Context(), args)

	out := cmd.OutOrStdout()
	for _, o := range outcomes {
		switch {
		case o.Err != nil:
			fmt.Fprintf(out, "FAIL  %s: %v\n", o.Input, o.Err)
		case o.Stub:
			fmt.Fprintf(out, "STUB  %s -> %s\n", o.Input, o.Output)
		default:
			fmt.Fprintf(out, "OK    %s -> %s (%d records)\n", o.Input, o.Output, o.Records)
		}
	}

	if cfg.MetricsTextfile != "" {
		if err := m.WriteTextfile(cfg.MetricsTextfile); err != nil {
			log.Error("failed to write metrics", zap.Error(err))
		}
	}
	return runErr
}

func applyEncodeFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("output-dir") {
		cfg.Batch.OutputDir = outputDir
	}
	if flags.Changed("workers") {
		cfg.Batch.Workers = workers
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if flags.Changed("metrics-textfile") {
		cfg.MetricsTextfile = metricsTextfile
	}
}
