// File: cmd/lakehouse/validate_cmd.go
package main

import (
	"fmt"

	"lakehouse/internal/descriptor"

	"github.com/spf13/cobra"
)

func newValidateCmd(app *appContainer) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the descriptor without contacting the cloud provider",
		Long: `Parses the descriptor, resolves its variables and checks every declared
resource against the naming and shape rules of the provider. Warnings are
reported but do not fail the command.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			d, err := app.readDescriptor()
			if err != nil {
				return err
			}

			results := descriptor.Validate(d)
			for _, w := range results.Warnings() {
				fmt.Fprintf(out, "Warning: %s\n", w.Error())
			}
			if err := results.Err(); err != nil {
				return err
			}

			fingerprint, err := descriptor.Fingerprint(d)
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "The descriptor is valid: %d bucket(s), %d dataset(s) in project %s.\n", len(d.Buckets), len(d.Datasets), d.Provider.Project)
			fmt.Fprintf(out, "Fingerprint: %s\n", fingerprint)
			return nil
		},
	}
}
