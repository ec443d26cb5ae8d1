package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"documind/internal/service"
)

var analysisKinds = map[string]service.AnalysisKind{
	"similarity": service.AnalysisSimilarity,
	"topics":     service.AnalysisTopics,
	"cluster":    service.AnalysisCluster,
}

func newAnalyzeCmd(e *env) *cobra.Command {
	var (
		userID    string
		maxTopics int
		async     bool
	)
	cmd := &cobra.Command{
		Use:       "analyze [similarity|topics|cluster]",
		Short:     "Run a graph analysis pass for a user",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"similarity", "topics", "cluster"},
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, ok := analysisKinds[args[0]]
			if !ok {
				return fmt.Errorf("unknown analysis %q: want similarity, topics or cluster", args[0])
			}

			ctx := cmd.Context()
			a, err := e.openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close(context.Background())
			analysis := a.AnalysisService()

			if async {
				ref, err := analysis.Submit(ctx, kind, userID, maxTopics)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), ref)
			}
			res, err := analysis.Run(ctx, kind, userID, maxTopics)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVarP(&userID, "user", "u", "", "User whose graph is analyzed")
	cmd.Flags().IntVar(&maxTopics, "max-topics", 0, "Topic count cap (topics only, default 8)")
	cmd.Flags().BoolVar(&async, "async", false, "Queue the pass instead of running it here")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
