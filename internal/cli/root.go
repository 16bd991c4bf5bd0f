// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jeranaias/rigchat/internal/config"
	"github.com/jeranaias/rigchat/internal/logger"
)

// rootOptions carries the persistent flags and the configuration they
// produce for the subcommands.
type rootOptions struct {
	configPath  string
	model       string
	temperature float64
	backend     string
	dataDir     string
	verbose     bool
	noMarkdown  bool
	noStream    bool

	cfg *config.Config
}

// NewRootCmd builds the rigchat command tree. Without a subcommand it
// starts the interactive chat.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}
	chat := &chatOptions{root: opts}

	root := &cobra.Command{
		Use:          "rigchat",
		Short:        "Terminal chat client for OpenAI-compatible models",
		Version:      GetVersion(),
		SilenceUsage: true,
		Long: `rigchat sends your prompts to an OpenAI-compatible chat completions API,
streams the reply into the terminal and keeps every conversation on disk,
named after its first question.

Configuration is read from ~/.rigchat/config.toml and RIGCHAT_* environment
variables; flags override both.`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.setup(cmd)
		},
		Args: cobra.NoArgs,
		RunE: chat.run,
	}
	root.SetVersionTemplate(GetVersionInfo() + "\n")

	pf := root.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "config file (default ~/.rigchat/config.toml)")
	pf.StringVarP(&opts.model, "model", "m", "", "model to use")
	pf.Float64VarP(&opts.temperature, "temperature", "t", 0, "sampling temperature (0.1-1.0)")
	pf.StringVar(&opts.backend, "backend", "", "storage backend: dir, bolt or sqlite")
	pf.StringVar(&opts.dataDir, "data-dir", "", "directory holding conversations and the API key")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "log debug output to stderr")
	pf.BoolVar(&opts.noMarkdown, "no-markdown", false, "print replies as plain text")
	pf.BoolVar(&opts.noStream, "no-stream", false, "wait for the whole reply instead of streaming")

	chat.bindFlags(root)

	root.AddCommand(
		newChatCmd(opts),
		newAskCmd(opts),
		newListCmd(opts),
		newShowCmd(opts),
		newExportCmd(opts),
		newKeyCmd(opts),
		newConfigCmd(opts),
		newVersionCmd(),
	)
	return root
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		// Error already printed by cobra
		os.Exit(1)
	}
}

// =============================================================================
// CONFIGURATION
// =============================================================================

// setup loads configuration, applies flag overrides and configures logging
// and colors. It runs before every subcommand.
func (o *rootOptions) setup(cmd *cobra.Command) error {
	cfg, err := o.loadConfig()
	if cfg == nil {
		return err
	}
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s %v (using defaults)\n", WarningStyle.Render("[Warning]"), err)
	}

	flags := cmd.Flags()
	if flags.Changed("model") {
		cfg.Completion.Model = o.model
	}
	if flags.Changed("temperature") {
		cfg.Completion.Temperature = o.temperature
	}
	if flags.Changed("backend") {
		cfg.Storage.Backend = o.backend
	}
	if flags.Changed("data-dir") {
		cfg.Storage.DataDir = o.dataDir
	}
	if o.noMarkdown {
		cfg.UI.Markdown = false
	}
	if o.noStream {
		cfg.Completion.Stream = false
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}

	level, _ := logger.ParseLevel(cfg.Log.Level)
	if o.verbose {
		level = slog.LevelDebug
	}
	logger.Configure(level, cfg.Log.Format, cmd.ErrOrStderr())

	if !cfg.UI.Color {
		ForceColorsEnabled(false)
	}
	ApplyColorProfile()

	o.cfg = cfg
	return nil
}

func (o *rootOptions) loadConfig() (*config.Config, error) {
	if o.configPath != "" {
		return config.LoadFromPath(o.configPath)
	}
	return config.Load()
}

// configFile returns the config file the config subcommands edit.
func (o *rootOptions) configFile() (string, error) {
	if o.configPath != "" {
		return o.configPath, nil
	}
	return config.ConfigPath()
}

// openApp builds the App from the loaded configuration.
func (o *rootOptions) openApp() (*App, error) {
	if o.cfg == nil {
		return nil, fmt.Errorf("configuration not loaded")
	}
	return NewApp(o.cfg)
}
