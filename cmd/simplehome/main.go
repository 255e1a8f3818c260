// Simplehome advertises this host as a UPnP basic device over SSDP.
//
// It answers M-SEARCH requests on 239.255.255.250:1900, announces itself
// periodically with ssdp:alive notifies, and serves the device description
// document over HTTP. It also includes a search client for checking which
// devices answer on the local network.
//
// Usage:
//
//	simplehome [command] [flags]
//
// See 'simplehome --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/muurk/simplehome/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// Global flags
var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "simplehome",
	Short: "SimpleHome SSDP device",
	Long: `Advertise this host as a UPnP basic device on the local network.

The device answers SSDP searches for ssdp:all, its device type and its
UUID, sends periodic ssdp:alive announcements, and serves its XML device
description over HTTP.

Settings are read from the SimpleHome configuration file; flags override
file values.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to settings file (default: user config directory)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); empty uses SIMPLEHOME_LOG_LEVEL or the settings file")

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("simplehome %s\n", version.Full())
	},
}
