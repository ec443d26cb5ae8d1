package importer

import (
	"context"
	"fmt"
	"os"
	"sync"

	"golang.org/x/sync/errgroup"

	"documind/internal/contextutil"
	"documind/internal/service"
)

const defaultConcurrency = 4

// Uploader accepts one file for indexing.
type Uploader interface {
	Upload(ctx context.Context, req service.UploadRequest) (service.UploadResult, error)
}

// ImportedFile is a file accepted by the uploader.
type ImportedFile struct {
	RelPath string `json:"path"`
	DocID   string `json:"docId"`
	TaskID  string `json:"taskId,omitempty"`
}

// FailedFile is a file the uploader rejected.
type FailedFile struct {
	RelPath string `json:"path"`
	Error   string `json:"error"`
}

// Report summarizes an import.
type Report struct {
	Imported []ImportedFile `json:"imported"`
	Skipped  []SkippedFile  `json:"skipped"`
	Failed   []FailedFile   `json:"failed"`
}

// Importer uploads every supported file of a directory tree.
type Importer struct {
	uploader    Uploader
	concurrency int
}

// New creates an Importer. concurrency <= 0 uses a small default.
func New(uploader Uploader, concurrency int) *Importer {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &Importer{uploader: uploader, concurrency: concurrency}
}

// Import scans root and uploads each file for userID. One file failing does
// not stop the others.
func (im *Importer) Import(ctx context.Context, userID, root string) (Report, error) {
	logger := contextutil.LoggerFromContext(ctx).With("user_id", userID, "root", root)

	scan, err := Scan(ctx, root)
	if err != nil {
		return Report{}, err
	}
	logger.InfoContext(ctx, "import scan completed", "files", len(scan.Files), "skipped", len(scan.Skipped))

	report := Report{Skipped: scan.Skipped}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(im.concurrency)
	for _, f := range scan.Files {
		g.Go(func() error {
			res, err := im.importFile(gctx, userID, f)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				logger.WarnContext(ctx, "failed to import file", "path", f.RelPath, "error", err)
				report.Failed = append(report.Failed, FailedFile{RelPath: f.RelPath, Error: err.Error()})
				return nil
			}
			report.Imported = append(report.Imported, ImportedFile{RelPath: f.RelPath, DocID: res.DocID, TaskID: res.TaskID})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return report, err
	}
	if err := ctx.Err(); err != nil {
		return report, err
	}

	logger.InfoContext(ctx, "import completed",
		"imported", len(report.Imported),
		"failed", len(report.Failed),
		"skipped", len(report.Skipped),
	)
	return report, nil
}

func (im *Importer) importFile(ctx context.Context, userID string, f ScannedFile) (service.UploadResult, error) {
	data, err := os.ReadFile(f.AbsPath)
	if err != nil {
		return service.UploadResult{}, fmt.Errorf("failed to read file: %w", err)
	}
	return im.uploader.Upload(ctx, service.UploadRequest{
		UserID:   userID,
		Filename: f.RelPath,
		MIMEType: f.MIMEType,
		Data:     data,
	})
}
