// Package cmd contains all the CLI commands for the application,
// built using the Cobra library.
package cmd

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/naka-gawa/agentic-pr-study/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "agentic-pr-study",
	Short: "Reproduce the agentic pull request acceptance study.",
	Long: `agentic-pr-study loads pull requests authored by coding agents, keeps the
closed ones from repositories above a star threshold (dropping bot-authored
pull requests nobody commented on), and from that set recomputes the
per-agent accepted/rejected table and draws seeded, stratified samples for
manual review and inter-rater agreement checks.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "Path to a YAML config file")
	flags.BoolP("verbose", "v", false, "Enable verbose/debug logging")
	flags.String("log-file", "", "Also write logs to this file (rotated)")

	flags.StringP("source", "s", "", `Input: a dataset directory, a flat CSV file, an http(s) URL,
hf://datasets/<owner>/<name>, or github:<search query>
(default: detect a dataset directory near the working directory)`)
	flags.Int("min-stars", 500, "Minimum repository star count")
	flags.String("required-state", "closed", "Pull request state to keep")
	flags.StringSlice("bot-list", config.DefaultBotList, "Author logins treated as bots")
	flags.Bool("bot-type-as-bot", false, `Also treat authors whose account type is "Bot" as bots`)
	flags.StringSlice("agents", config.DefaultAgents, "Agent order of the summary table")
	flags.String("github-agent", "", "Agent name attributed to records loaded from a github: source")
}
