// File: cmd/lakehouse/version_cmd.go
package main

import (
	"fmt"
	"strings"

	"lakehouse/internal/provider/registry"

	"github.com/spf13/cobra"
)

// Overridden at build time with -ldflags "-X main.version=..."
var version = "dev"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print the version",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipConfigCheck: "true"},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "lakehouse %s (providers: %s)\n", version, strings.Join(registry.GetSupportedProviders(), ", "))
		},
	}
}
