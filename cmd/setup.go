package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/naka-gawa/agentic-pr-study/internal/config"
	"github.com/naka-gawa/agentic-pr-study/internal/gateway"
	"github.com/naka-gawa/agentic-pr-study/internal/logging"
	"github.com/naka-gawa/agentic-pr-study/internal/usecase"
)

// runEnv is the resolved configuration and logger of one command invocation.
type runEnv struct {
	cfg    *config.Config
	logger *logging.Logger
}

func newRunEnv(cmd *cobra.Command) (*runEnv, error) {
	configFile, _ := cmd.Flags().GetString("config")
	v, err := config.New(cmd.Flags(), configFile)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(v)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cmd.ErrOrStderr(), cfg.LogFile, cfg.Verbose)
	if err != nil {
		return nil, fmt.Errorf("failed to set up logging: %w", err)
	}
	return &runEnv{cfg: cfg, logger: logger}, nil
}

// newPipeline injects dependencies into the load/filter/aggregate use case.
func (e *runEnv) newPipeline() (*usecase.Pipeline, error) {
	source, err := gateway.OpenSource(e.cfg.Source, gateway.SourceOptions{
		GitHubToken: e.cfg.GitHubToken,
		GitHubAgent: e.cfg.GitHubAgent,
		HFToken:     e.cfg.HFToken,
		Logger:      e.logger.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open source: %w", err)
	}
	filter := usecase.NewFilter(usecase.FilterOptions{
		MinStars:      e.cfg.MinStars,
		RequiredState: e.cfg.RequiredState,
		BotList:       e.cfg.BotList,
		BotTypeAsBot:  e.cfg.BotTypeAsBot,
	}, e.logger.Logger)
	aggregator := usecase.NewAggregator(e.cfg.Agents, e.logger.Logger)
	return usecase.NewPipeline(source, filter, aggregator, e.logger.Logger), nil
}

func (e *runEnv) close() {
	if err := e.logger.Close(); err != nil {
		e.logger.Warn("Failed to close log file", "error", err)
	}
}

func validateFormat(format string) error {
	for _, f := range gateway.Formats {
		if f == format {
			return nil
		}
	}
	return fmt.Errorf("invalid --format %q (%v)", format, gateway.Formats)
}
