// Command scour queries configured website backends through the capability
// dispatcher: one command fans out to every backend implementing the
// requested capability and merges their results.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"scour/config"
	"scour/core"

	_ "scour/modules/hackernews"
	_ "scour/modules/openmeteo"
	_ "scour/modules/reddit"
	_ "scour/modules/resendmsg"
)

var (
	configPath   string
	backendNames []string
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "scour",
		Short:         "Query pluggable website backends concurrently",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", defaultConfigPath(),
		"path to the backends config file")
	root.PersistentFlags().StringSliceVarP(&backendNames, "backends", "b", nil,
		"restrict to these configured backend names")

	root.AddCommand(
		backendsCmd(),
		callCmd(),
		weatherCmd(),
		boardsCmd(),
		messageCmd(),
		watchCmd(),
	)
	return root
}

func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(dir, "scour", "config.yaml")
}

// loadRegistry builds a registry from the configured backends. Load-time
// failures (unknown module, version mismatch, bad params) surface here,
// before any dispatch.
func loadRegistry() (*core.Registry, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	reg := core.NewRegistry()
	if err := reg.LoadBackends(cfg); err != nil {
		return nil, err
	}
	return reg, nil
}

func backendsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backends",
		Short: "List configured backends and available modules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := loadRegistry()
			if err != nil {
				return err
			}

			fmt.Println("Configured backends:")
			for _, h := range reg.Backends("") {
				m := h.Module()
				fmt.Printf("  %-16s module=%s capabilities=%v\n", h.Name(), m.Name, m.Capabilities)
			}

			fmt.Println("\nAvailable modules:")
			for _, m := range core.Modules() {
				fmt.Printf("  %-16s %s (v%s)\n", m.Name, m.Description, m.Version)
			}
			return nil
		},
	}
}
