// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"
)

// Version information - can be overridden at build time with -ldflags
var (
	Version   = "dev"
	GitCommit = ""
	BuildDate = ""
)

// GetVersion returns the current version string.
func GetVersion() string {
	if Version != "dev" {
		return Version
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Version != "" && info.Main.Version != "(devel)" {
			return info.Main.Version
		}
	}
	return "dev"
}

// GetVersionInfo returns detailed version information.
func GetVersionInfo() string {
	var b strings.Builder
	fmt.Fprintf(&b, "rigchat version %s", GetVersion())
	if GitCommit != "" {
		fmt.Fprintf(&b, "\ncommit: %s", GitCommit)
	}
	if BuildDate != "" {
		fmt.Fprintf(&b, "\nbuilt: %s", BuildDate)
	}
	fmt.Fprintf(&b, "\n%s %s/%s", runtime.Version(), runtime.GOOS, runtime.GOARCH)
	return b.String()
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		// Skips config loading so version works with a broken config.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), GetVersionInfo())
		},
	}
}
