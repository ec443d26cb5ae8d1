package main

import (
	"context"

	"github.com/spf13/cobra"
)

func newReconcileCmd(e *env) *cobra.Command {
	var (
		userID string
		async  bool
		runID  string
	)
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Audit a user's documents across the metadata, vector, graph and blob stores",
		Long: `Compares chunk counts per completed document, flags documents stuck in
processing and lists orphaned vectors, graph nodes and blobs. Findings are
recorded in the audit ledger. Nothing is repaired; use requeue or reprocess.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := e.openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close(context.Background())
			analysis := a.AnalysisService()

			switch {
			case runID != "":
				run, err := analysis.ReconcileRun(ctx, runID, userID)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), run)
			case async:
				ref, err := analysis.SubmitReconcile(ctx, userID)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), ref)
			default:
				run, err := analysis.Reconcile(ctx, userID)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), run)
			}
		},
	}
	cmd.Flags().StringVarP(&userID, "user", "u", "", "User whose documents are audited")
	cmd.Flags().BoolVar(&async, "async", false, "Queue the run instead of running it here")
	cmd.Flags().StringVar(&runID, "run", "", "Show a recorded run instead of starting one")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
