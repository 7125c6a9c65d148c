package cmd

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/naka-gawa/agentic-pr-study/internal/config"
	"github.com/naka-gawa/agentic-pr-study/internal/gateway"
	"github.com/naka-gawa/agentic-pr-study/internal/usecase"
)

const summaryFileName = "summary.csv"

var sampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Draws the agreement and manual-check samples",
	Long: `Draws, per agent and outcome, a seeded random sample for double coding
(sample_check_*.csv) and a second, disjoint one for single-reviewer coding
(manual_check_*.csv), and writes them together with summary.csv to --out-dir.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := newRunEnv(cmd)
		if err != nil {
			return err
		}
		defer env.close()
		cfg := env.cfg

		exporter, err := gateway.NewExporter(cfg.OutDir, cfg.Columns, env.logger.Logger)
		if err != nil {
			return err
		}
		pipeline, err := env.newPipeline()
		if err != nil {
			return err
		}
		result, err := pipeline.Run(cmd.Context())
		if err != nil {
			return err
		}

		sampler := usecase.NewSampler(usecase.SamplerOptions{
			Seed:       cfg.Seed,
			SampleSize: cfg.SampleSize,
			ManualSize: cfg.ManualSize,
			Allocation: cfg.Allocation,
			AgentOrder: cfg.Agents,
		}, env.logger.Logger)
		samples := sampler.Sample(result.Labeled)

		if _, err := exporter.WriteSamples(samples); err != nil {
			return err
		}
		summaryPath := filepath.Join(cfg.OutDir, summaryFileName)
		if err := gateway.WriteSummaryFile(summaryPath, result.Summary); err != nil {
			return err
		}
		env.logger.Info("CSV files written successfully.", "dir", cfg.OutDir)
		return gateway.WriteSummary(cmd.OutOrStdout(), result.Summary, gateway.FormatTable)
	},
}

func init() {
	rootCmd.AddCommand(sampleCmd)
	flags := sampleCmd.Flags()
	flags.Int64("seed", 72, "Random seed")
	flags.Int("sample-size", 30, "Agreement sample size (per stratum, or per outcome when proportional)")
	flags.Int("manual-size", 0, "Manual-check sample size; 0 takes everything the agreement sample left")
	flags.String("allocation", config.AllocationPerStratum, "Sample allocation (per-stratum|proportional)")
	flags.StringP("out-dir", "o", "data/sample", "Directory the CSV files are written to")
	flags.StringSlice("columns", []string{"id", "html_url", "agent"}, "Exported columns, in order")
}
