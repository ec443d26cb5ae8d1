package main

import (
	"context"

	"github.com/spf13/cobra"
)

func newStatusCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "status [task-id]",
		Short: "Show the state of a queued task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := e.openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close(context.Background())

			info, err := a.Queue.TaskState(ctx, args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), info)
		},
	}
}
