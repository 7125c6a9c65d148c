// Package config resolves run settings from flags, environment and an optional config file.
package config

import (
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	AllocationPerStratum   = "per-stratum"
	AllocationProportional = "proportional"

	envPrefix = "AGENTIC_PR"
)

// DefaultBotList is the set of author logins treated as bots by the study.
var DefaultBotList = []string{
	"copilot-swe-agent[bot]",
	"cursor[bot]",
	"gemini-code-assist[bot]",
	"copilot-pull-request-reviewer[bot]",
	"coderabbitai[bot]",
	"ellipsis-dev[bot]",
	"greptile-apps[bot]",
	"entelligence-ai-pr-reviews[bot]",
	"Copilot",
	"github-advanced-security[bot]",
}

// DefaultAgents is the row order of the summary table.
var DefaultAgents = []string{"Claude_Code", "Copilot", "Cursor", "Devin", "OpenAI_Codex"}

// Config holds every setting a run needs.
type Config struct {
	Source        string   `mapstructure:"source"`
	MinStars      int      `mapstructure:"min-stars"`
	RequiredState string   `mapstructure:"required-state"`
	BotList       []string `mapstructure:"bot-list"`
	BotTypeAsBot  bool     `mapstructure:"bot-type-as-bot"`
	Agents        []string `mapstructure:"agents"`

	Seed       int64    `mapstructure:"seed"`
	SampleSize int      `mapstructure:"sample-size"`
	ManualSize int      `mapstructure:"manual-size"`
	Allocation string   `mapstructure:"allocation"`
	OutDir     string   `mapstructure:"out-dir"`
	Columns    []string `mapstructure:"columns"`

	GitHubToken string `mapstructure:"github-token"`
	GitHubAgent string `mapstructure:"github-agent"`
	HFToken     string `mapstructure:"hf-token"`

	LogFile string `mapstructure:"log-file"`
	Verbose bool   `mapstructure:"verbose"`
}

// New builds a viper instance layered as flags > environment > config file > defaults.
// configFile may be empty.
func New(flags *pflag.FlagSet, configFile string) (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	// Tokens are also picked up under their conventional names.
	if err := v.BindEnv("github-token", envPrefix+"_GITHUB_TOKEN", "GITHUB_TOKEN"); err != nil {
		return nil, fmt.Errorf("failed to bind github token env: %w", err)
	}
	if err := v.BindEnv("hf-token", envPrefix+"_HF_TOKEN", "HF_TOKEN"); err != nil {
		return nil, fmt.Errorf("failed to bind hf token env: %w", err)
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("failed to bind flags: %w", err)
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}
	return v, nil
}

// Load decodes and validates the settings held by v.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.WeaklyTypedInput = true
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToSliceHookFunc(","),
		)
	}); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.normalize()
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("min-stars", 500)
	v.SetDefault("required-state", "closed")
	v.SetDefault("bot-list", DefaultBotList)
	v.SetDefault("agents", DefaultAgents)
	v.SetDefault("seed", 72)
	v.SetDefault("sample-size", 30)
	v.SetDefault("manual-size", 0)
	v.SetDefault("allocation", AllocationPerStratum)
	v.SetDefault("out-dir", "data/sample")
	v.SetDefault("columns", []string{"id", "html_url", "agent"})
}

func (c *Config) normalize() {
	c.RequiredState = strings.ToLower(strings.TrimSpace(c.RequiredState))
	c.Allocation = strings.ToLower(strings.TrimSpace(c.Allocation))
	c.BotList = trimAll(c.BotList)
	c.Agents = trimAll(c.Agents)
	c.Columns = trimAll(c.Columns)
}

func (c *Config) validate() error {
	if c.MinStars < 0 {
		return fmt.Errorf("min-stars must not be negative, got %d", c.MinStars)
	}
	if c.SampleSize < 0 {
		return fmt.Errorf("sample-size must not be negative, got %d", c.SampleSize)
	}
	if c.ManualSize < 0 {
		return fmt.Errorf("manual-size must not be negative, got %d", c.ManualSize)
	}
	if c.RequiredState == "" {
		return fmt.Errorf("required-state must not be empty")
	}
	switch c.Allocation {
	case AllocationPerStratum, AllocationProportional:
	default:
		return fmt.Errorf("invalid allocation %q (%s|%s)", c.Allocation, AllocationPerStratum, AllocationProportional)
	}
	if len(c.Columns) == 0 {
		return fmt.Errorf("columns must name at least one export column")
	}
	return nil
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
