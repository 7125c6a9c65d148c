package cmd

import (
	"github.com/spf13/cobra"

	"github.com/naka-gawa/agentic-pr-study/internal/gateway"
	"github.com/naka-gawa/agentic-pr-study/internal/usecase"
)

var agreementCmd = &cobra.Command{
	Use:   "agreement <coder-a.csv> <coder-b.csv>",
	Short: "Computes Cohen's kappa between two coders",
	Long: `Reads two annotation files that share an "id" column and a label column,
matches them on id and reports observed agreement, chance agreement and
Cohen's kappa over the records both coders labelled.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		labelColumn, _ := cmd.Flags().GetString("label-column")
		if err := validateFormat(format); err != nil {
			return err
		}
		env, err := newRunEnv(cmd)
		if err != nil {
			return err
		}
		defer env.close()

		first, err := gateway.LoadAnnotations(cmd.Context(), args[0], labelColumn, env.logger.Logger)
		if err != nil {
			return err
		}
		second, err := gateway.LoadAnnotations(cmd.Context(), args[1], labelColumn, env.logger.Logger)
		if err != nil {
			return err
		}
		agreement, err := usecase.CohenKappa(first, second)
		if err != nil {
			return err
		}
		if agreement.OnlyInFirst+agreement.OnlyInSecond > 0 {
			env.logger.Warn("Some records were labelled by one coder only",
				"only_in_first", agreement.OnlyInFirst, "only_in_second", agreement.OnlyInSecond)
		}
		return gateway.WriteAgreement(cmd.OutOrStdout(), agreement, format)
	},
}

func init() {
	rootCmd.AddCommand(agreementCmd)
	agreementCmd.Flags().String("label-column", "label", "Name of the label column in both files")
	agreementCmd.Flags().StringP("format", "f", gateway.FormatTable, "Output format (table|csv|json|yaml)")
}
