// File: cmd/lakehouse/plan_cmd.go
package main

import (
	"fmt"

	"lakehouse/internal/flags"

	"github.com/spf13/cobra"
)

const approvalValue = "yes"

func newPlanCmd(app *appContainer) *cobra.Command {
	var detailedExitCode bool

	planCmd := &cobra.Command{
		Use:   "plan",
		Short: "Show the changes needed to match the descriptor",
		Long: `Reads the current state of every declared and previously applied resource
and prints the changes an apply would make. Nothing is modified.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			d, err := app.loadDescriptor()
			if err != nil {
				return err
			}

			svc, closeFn, err := app.newProvisionService(ctx, d, 0)
			if err != nil {
				return err
			}
			defer closeFn()

			p, err := svc.Plan(ctx, d)
			if err != nil {
				return err
			}

			fmt.Fprint(cmd.OutOrStdout(), app.PlanFormatter.FormatPlan(p))
			if detailedExitCode && p.HasChanges() {
				app.exitCode = 2
			}
			return nil
		},
	}
	planCmd.Flags().BoolVar(&detailedExitCode, flags.DetailedExitCode, false, "Exit with code 2 when changes are pending")

	return planCmd
}

func newApplyCmd(app *appContainer) *cobra.Command {
	var autoApprove bool
	var parallelism int

	applyCmd := &cobra.Command{
		Use:   "apply",
		Short: "Create or update resources to match the descriptor",
		Long: `Plans the changes, asks for confirmation and applies them. Resources that
were applied before but are no longer declared are deleted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			d, err := app.loadDescriptor()
			if err != nil {
				return err
			}

			svc, closeFn, err := app.newProvisionService(ctx, d, parallelism)
			if err != nil {
				return err
			}
			defer closeFn()

			p, err := svc.Plan(ctx, d)
			if err != nil {
				return err
			}

			fmt.Fprint(out, app.PlanFormatter.FormatPlan(p))
			if !p.HasChanges() {
				return nil
			}

			if !autoApprove {
				confirmed, err := app.Prompter.Confirm("Do you want to perform these actions?", approvalValue)
				if err != nil {
					return err
				}
				if !confirmed {
					fmt.Fprintln(out, "Apply cancelled.")
					return nil
				}
			}

			result, err := svc.Apply(ctx, d, p)
			if result != nil {
				fmt.Fprintln(out, app.ResourceFormatter.FormatApplyResult(result))
			}
			return err
		},
	}
	applyCmd.Flags().BoolVar(&autoApprove, flags.AutoApprove, false, "Skip interactive approval")
	applyCmd.Flags().IntVar(&parallelism, flags.Parallelism, 0, "Maximum concurrent resource operations (defaults to apply.parallelism)")

	return applyCmd
}

func newDestroyCmd(app *appContainer) *cobra.Command {
	var autoApprove bool
	var parallelism int

	destroyCmd := &cobra.Command{
		Use:   "destroy",
		Short: "Delete every resource managed by the descriptor",
		Long: `Deletes every declared or previously applied resource that still exists.
Buckets holding objects are only emptied when force_destroy is set, and
datasets holding tables only when delete_contents_on_destroy is set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			d, err := app.loadDescriptor()
			if err != nil {
				return err
			}

			svc, closeFn, err := app.newProvisionService(ctx, d, parallelism)
			if err != nil {
				return err
			}
			defer closeFn()

			p, err := svc.PlanDestroy(ctx, d)
			if err != nil {
				return err
			}

			fmt.Fprint(out, app.PlanFormatter.FormatPlan(p))
			if !p.HasChanges() {
				return nil
			}

			if !autoApprove {
				message := fmt.Sprintf("Do you really want to destroy all resources in project %s? There is no undo.", p.Project)
				confirmed, err := app.Prompter.Confirm(message, approvalValue)
				if err != nil {
					return err
				}
				if !confirmed {
					fmt.Fprintln(out, "Destroy cancelled.")
					return nil
				}
			}

			result, err := svc.Apply(ctx, d, p)
			if result != nil {
				fmt.Fprintln(out, app.ResourceFormatter.FormatApplyResult(result))
			}
			return err
		},
	}
	destroyCmd.Flags().BoolVar(&autoApprove, flags.AutoApprove, false, "Skip interactive approval")
	destroyCmd.Flags().IntVar(&parallelism, flags.Parallelism, 0, "Maximum concurrent resource operations (defaults to apply.parallelism)")

	return destroyCmd
}
