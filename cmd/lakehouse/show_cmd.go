// File: cmd/lakehouse/show_cmd.go
package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newShowCmd(app *appContainer) *cobra.Command {
	return &cobra.Command{
		Use:   "show [address]",
		Short: "Show the remote status of declared resources",
		Long: `Lists every declared resource with its remote status and bucket usage.
Pass an address such as 'bucket/my-landing-bucket' or 'dataset/my-project.trips_data_all'
to see one resource in detail.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			d, err := app.loadDescriptor()
			if err != nil {
				return err
			}

			svc, closeFn, err := app.newProvisionService(ctx, d, 0)
			if err != nil {
				return err
			}
			defer closeFn()

			statuses, err := svc.Show(ctx, d)
			if err != nil {
				return err
			}

			if len(args) == 0 {
				if len(statuses) == 0 {
					fmt.Fprintln(out, "The descriptor declares no resources.")
					return nil
				}
				fmt.Fprintln(out, app.ResourceFormatter.FormatStatusList(statuses))
				return nil
			}

			for _, s := range statuses {
				if s.Address != args[0] {
					continue
				}
				switch {
				case s.Bucket != nil:
					fmt.Fprint(out, app.ResourceFormatter.FormatBucketDetails(*s.Bucket))
				case s.Dataset != nil:
					fmt.Fprint(out, app.ResourceFormatter.FormatDatasetDetails(*s.Dataset))
				default:
					fmt.Fprintf(out, "%s is declared but does not exist yet.\n", s.Address)
				}
				return nil
			}
			return fmt.Errorf("resource '%s' is not declared in %s", args[0], app.flags.file)
		},
	}
}

func newStateCmd(app *appContainer) *cobra.Command {
	stateCmd := &cobra.Command{
		Use:   "state",
		Short: "Inspect the recorded state",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List the resources recorded in state",
		Long:  `Lists the resources lakehouse has applied, as recorded by the configured state backend.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			backend, err := app.openBackend(ctx, nil)
			if err != nil {
				return err
			}
			defer backend.Close()

			st, err := backend.Load(ctx)
			if err != nil {
				return fmt.Errorf("error loading state from %s: %w", backend.Describe(), err)
			}

			fmt.Fprint(cmd.OutOrStdout(), app.ResourceFormatter.FormatState(st))
			return nil
		},
	}

	stateCmd.AddCommand(listCmd)
	return stateCmd
}
