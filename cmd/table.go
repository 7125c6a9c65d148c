package cmd

import (
	"github.com/spf13/cobra"

	"github.com/naka-gawa/agentic-pr-study/internal/gateway"
	"github.com/naka-gawa/agentic-pr-study/internal/usecase"
)

var tableCmd = &cobra.Command{
	Use:   "table",
	Short: "Recomputes the per-agent accepted/rejected table",
	Long: `Loads and filters the pull requests and prints, per agent, how many were
merged (accepted) and closed without merging (rejected), followed by a total row.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		output, _ := cmd.Flags().GetString("output")
		if err := validateFormat(format); err != nil {
			return err
		}

		env, err := newRunEnv(cmd)
		if err != nil {
			return err
		}
		defer env.close()

		pipeline, err := env.newPipeline()
		if err != nil {
			return err
		}
		result, err := pipeline.Run(cmd.Context())
		if err != nil {
			return err
		}

		if output != "" {
			err = gateway.WriteSummaryAs(output, result.Summary, format)
		} else {
			err = gateway.WriteSummary(cmd.OutOrStdout(), result.Summary, format)
		}
		if err != nil {
			return err
		}
		env.logger.Info("Excluded and kept counts",
			"excluded_bot", result.Report.BotExcluded, "kept", result.Report.Kept)
		env.logger.Debug("Sample excluded and kept ids",
			"excluded_first_10", usecase.FirstIDs(result.Report.ExcludedIDs, 10),
			"kept_first_10", usecase.FirstIDs(result.KeptIDs(), 10))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tableCmd)
	tableCmd.Flags().StringP("format", "f", gateway.FormatTable, "Output format (table|csv|json|yaml)")
	tableCmd.Flags().StringP("output", "o", "", "Write the table to this file instead of stdout")
}
