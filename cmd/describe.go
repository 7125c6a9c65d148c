package cmd

import (
	"github.com/spf13/cobra"

	"github.com/naka-gawa/agentic-pr-study/internal/gateway"
	"github.com/naka-gawa/agentic-pr-study/internal/usecase"
)

var describeCmd = &cobra.Command{
	Use:   "describe",
	Short: "Prints descriptive statistics of accepted and rejected pull requests",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
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
		stats, err := usecase.Describe(result.Labeled)
		if err != nil {
			return err
		}
		return gateway.WriteOutcomeStats(cmd.OutOrStdout(), stats, format)
	},
}

func init() {
	rootCmd.AddCommand(describeCmd)
	describeCmd.Flags().StringP("format", "f", gateway.FormatTable, "Output format (table|csv|json|yaml)")
}
