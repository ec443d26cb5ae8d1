package importer

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"documind/internal/extract"
)

// ScannedFile is a supported document found under the import root.
type ScannedFile struct {
	RelPath  string // Relative path from the root, slash separated (e.g. "reports/q3.pdf")
	Folder   string // Folder part of RelPath, "" for root-level files
	AbsPath  string
	MIMEType string
	Size     int64
}

// SkippedFile is a file the scanner ignored.
type SkippedFile struct {
	RelPath string `json:"path"`
	Reason  string `json:"reason"`
}

// ScanResult lists what a scan found.
type ScanResult struct {
	Files   []ScannedFile
	Skipped []SkippedFile
}

// Scan walks root and returns every supported document. Hidden directories
// and hidden files are skipped, as are unsupported extensions.
func Scan(ctx context.Context, root string) (ScanResult, error) {
	var res ScanResult

	root, err := filepath.Abs(root)
	if err != nil {
		return res, fmt.Errorf("failed to resolve %s: %w", root, err)
	}

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("failed to access path %s: %w", path, err)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		name := d.Name()
		if d.IsDir() {
			if path != root && strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return fmt.Errorf("failed to compute relative path for %s: %w", path, err)
		}
		relPath = filepath.ToSlash(relPath)

		if strings.HasPrefix(name, ".") {
			return nil
		}
		if !d.Type().IsRegular() {
			res.Skipped = append(res.Skipped, SkippedFile{RelPath: relPath, Reason: "not a regular file"})
			return nil
		}
		mimeType := extract.MIMETypeFromFilename(name)
		if mimeType == "" {
			res.Skipped = append(res.Skipped, SkippedFile{RelPath: relPath, Reason: "unsupported extension"})
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return fmt.Errorf("failed to stat %s: %w", path, err)
		}

		folder := filepath.ToSlash(filepath.Dir(relPath))
		if folder == "." {
			folder = ""
		}

		res.Files = append(res.Files, ScannedFile{
			RelPath:  relPath,
			Folder:   folder,
			AbsPath:  path,
			MIMEType: mimeType,
			Size:     info.Size(),
		})
		return nil
	})
	if err != nil {
		return res, fmt.Errorf("failed to scan %s: %w", root, err)
	}
	return res, nil
}
