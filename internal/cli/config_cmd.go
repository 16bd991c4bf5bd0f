// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config_cmd.go - Configuration commands for the rigchat CLI.
//
// Command: config [show|get|set|path|reset]
//
// Examples:
//   rigchat config show                       Effective settings (flags and env applied)
//   rigchat config get completion.model
//   rigchat config set completion.model gpt-4
//   rigchat config set storage.backend bolt
//   rigchat config path

package cli

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/rigchat/internal/config"
)

func newConfigCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change configuration",
		Args:  cobra.NoArgs,
		// A config that fails validation must still be fixable with "set".
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := root.setup(cmd); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s %v (showing defaults)\n", WarningStyle.Render("[Warning]"), err)
				cfg := config.Default()
				cfg.ApplyEnvOverrides()
				root.cfg = cfg
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return showConfig(cmd, root.cfg)
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return showConfig(cmd, root.cfg)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "get <key>",
		Short: "Print one effective setting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := root.cfg.Get(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), maskIfSecret(args[0], fmt.Sprint(v)))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change a setting in the config file",
		Long: `Change a setting in the config file. Keys use dot notation:

  ` + strings.Join(config.GetAllKeys(), "\n  "),
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := root.configFile()
			if err != nil {
				return err
			}
			return setConfigValue(cmd, path, args[0], args[1])
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the config file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := root.configFile()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			if _, err := os.Stat(path); os.IsNotExist(err) {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s (file does not exist - will be created on first 'config set')\n",
					DimStyle.Render("Note"))
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Reset the config file to defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := root.configFile()
			if err != nil {
				return err
			}
			if err := config.SaveTOML(config.Default(), path); err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s Configuration reset to defaults\n", SuccessStyle.Render("[OK]"))
			return nil
		},
	})
	return cmd
}

// showConfig prints every key with its effective value.
func showConfig(cmd *cobra.Command, cfg *config.Config) error {
	if cfg == nil {
		return errors.New("configuration not loaded")
	}
	out := cmd.OutOrStdout()
	section := ""
	for _, key := range config.GetAllKeys() {
		v, err := cfg.Get(key)
		if err != nil {
			return err
		}
		if s, _, _ := strings.Cut(key, "."); s != section {
			if section != "" {
				fmt.Fprintln(out)
			}
			section = s
			fmt.Fprintln(out, TitleStyle.Render("["+section+"]"))
		}
		fmt.Fprintf(out, "  %-32s %s\n", key, maskIfSecret(key, fmt.Sprint(v)))
	}
	return nil
}

// setConfigValue edits the file at path only, so environment overrides and
// flags never leak into it.
func setConfigValue(cmd *cobra.Command, path, key, value string) error {
	cfg := config.Default()
	if _, err := os.Stat(path); err == nil {
		if err := config.LoadTOML(cfg, path); err != nil {
			return err
		}
	}

	if err := cfg.Set(key, value); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration value: %w", err)
	}
	if err := config.SaveTOML(cfg, path); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s %s = %s\n", SuccessStyle.Render("[OK]"), key, maskIfSecret(key, value))
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

// maskAPIKey masks an API key as a short SHA-256 fingerprint, so no part of
// the key itself is shown.
func maskAPIKey(key string) string {
	if key == "" {
		return "(not set)"
	}
	if len(key) < 8 {
		return "[invalid key]"
	}
	hash := sha256.Sum256([]byte(key))
	return fmt.Sprintf("sha256:%x...", hash[:4])
}

// maskIfSecret masks the value if the key names a secret field.
func maskIfSecret(key, value string) string {
	keyLower := strings.ToLower(key)
	for _, s := range []string{"key", "secret", "token", "password"} {
		if strings.Contains(keyLower, s) {
			return maskAPIKey(value)
		}
	}
	return value
}
