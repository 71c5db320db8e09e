// File: cmd/lakehouse/root.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"lakehouse/internal/flags"
	"lakehouse/internal/logger"

	"github.com/spf13/cobra"
)

func newRootCmd(app *appContainer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "lakehouse",
		Short: "Lakehouse provisions the storage buckets and analytics datasets of a data-lake landing zone.",
		Long: `A declarative CLI for a data-lake landing zone on Google Cloud. Describe the
storage buckets and BigQuery datasets you need in a descriptor file, then
validate, plan, apply and destroy them from one place.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger.SetDebug(app.flags.debug)
			app.exitCode = 0
			if !needsConfig(cmd) {
				return nil
			}
			return app.checkConfig()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&app.flags.file, flags.File, flags.FileShort, flags.DefaultDescriptorFile, "Path to the descriptor file")
	rootCmd.PersistentFlags().StringArrayVar(&app.flags.vars, flags.Var, nil, "Override a descriptor variable (key=value, repeatable)")
	rootCmd.PersistentFlags().BoolVarP(&app.flags.debug, flags.Debug, flags.DebugShort, false, "Enable debug logging")

	rootCmd.AddCommand(
		newValidateCmd(app),
		newPlanCmd(app),
		newApplyCmd(app),
		newDestroyCmd(app),
		newShowCmd(app),
		newStateCmd(app),
		newConfigCmd(app),
		newVersionCmd(),
	)
	return rootCmd
}

// Marks commands that must keep working with an invalid config
const skipConfigCheck = "skip-config-check"

func needsConfig(cmd *cobra.Command) bool {
	if cmd.Name() == "help" {
		return false
	}
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations[skipConfigCheck] == "true" {
			return false
		}
	}
	return true
}

// Execute runs the CLI and returns the process exit code
func Execute(app *appContainer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(app).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return app.exitCode
}
