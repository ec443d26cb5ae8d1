package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func newRequeueCmd(e *env) *cobra.Command {
	var (
		queueName string
		list      bool
		all       bool
	)
	cmd := &cobra.Command{
		Use:   "requeue [task-id]",
		Short: "List or requeue tasks whose retries were exhausted",
		Long: `Archived tasks are those that failed every retry. --list prints them,
--all requeues every one, and a task id requeues a single task.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !list && !all && len(args) == 0 {
				return errors.New("give a task id, --all or --list")
			}

			insp, err := e.newInspector()
			if err != nil {
				return err
			}
			defer insp.Close()
			out := cmd.OutOrStdout()

			switch {
			case list:
				tasks, err := insp.ListDead(queueName)
				if err != nil {
					return err
				}
				return printJSON(out, tasks)
			case all:
				n, err := insp.RequeueAll(queueName)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "requeued %d tasks\n", n)
				return nil
			default:
				if err := insp.Requeue(queueName, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(out, "requeued %s\n", args[0])
				return nil
			}
		},
	}
	cmd.Flags().StringVarP(&queueName, "queue", "q", "", "Queue name (default: all queues)")
	cmd.Flags().BoolVar(&list, "list", false, "List archived tasks")
	cmd.Flags().BoolVar(&all, "all", false, "Requeue every archived task")
	return cmd
}
