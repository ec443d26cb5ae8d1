package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"documind/internal/blob"
	"documind/internal/graphstore"
	"documind/internal/importer"
	"documind/internal/service"
	"documind/internal/storage"
	"documind/internal/vectorstore"
)

// dryRunDimensions sizes the in-memory vector store; nothing is embedded.
const dryRunDimensions = 1536

func newImportCmd(e *env) *cobra.Command {
	var (
		userID      string
		dryRun      bool
		concurrency int
	)
	cmd := &cobra.Command{
		Use:   "import [dir]",
		Short: "Upload every supported file under a directory",
		Long: `Walks dir, skipping hidden entries and unsupported extensions, and uploads
each file for the given user. With --dry-run files are validated against
in-memory stores and nothing is queued.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var uploader importer.Uploader
			if dryRun {
				uploader = dryRunDocuments()
			} else {
				a, err := e.openApp(ctx)
				if err != nil {
					return err
				}
				defer a.Close(context.Background())
				uploader = a.DocumentService()
			}

			report, err := importer.New(uploader, concurrency).Import(ctx, userID, args[0])
			if err != nil {
				return err
			}
			if err := printJSON(cmd.OutOrStdout(), report); err != nil {
				return err
			}
			if len(report.Failed) > 0 {
				return fmt.Errorf("%d of %d files failed", len(report.Failed), len(report.Failed)+len(report.Imported))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&userID, "user", "u", "", "Owner of the imported documents")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Validate files without touching the real stores")
	cmd.Flags().IntVarP(&concurrency, "concurrency", "c", 4, "Parallel uploads")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

// dryRunDocuments is a DocumentService over in-memory stores.
func dryRunDocuments() service.DocumentService {
	return service.NewDocumentService(service.DocumentDeps{
		Documents: storage.NewMemoryDocumentStore(),
		Blobs:     blob.NewMemoryStore(),
		Vectors:   vectorstore.NewMemoryStore(dryRunDimensions),
		Graph:     graphstore.NewMemoryStore(),
		Queue:     dryRunSubmitter{},
	}, service.DocumentConfig{})
}

type dryRunSubmitter struct{}

func (dryRunSubmitter) SubmitIngest(context.Context, string, string) (string, error) {
	return "dry-run", nil
}

func (dryRunSubmitter) SubmitAnalysis(context.Context, string, string, int) (string, error) {
	return "dry-run", nil
}

func (dryRunSubmitter) SubmitReconcile(context.Context, string) (string, error) {
	return "dry-run", nil
}
