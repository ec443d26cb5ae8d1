package extract

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// Supported MIME types.
const (
	MIMEPDF      = "application/pdf"
	MIMEDOCX     = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MIMEDOC      = "application/msword"
	MIMEText     = "text/plain"
	MIMEMarkdown = "text/markdown"
)

var extensionMIME = map[string]string{
	".pdf":      MIMEPDF,
	".docx":     MIMEDOCX,
	".doc":      MIMEDOC,
	".txt":      MIMEText,
	".md":       MIMEMarkdown,
	".markdown": MIMEMarkdown,
}

// Metadata describes what could be learned about a document while extracting it.
type Metadata struct {
	Title     string
	Author    string
	Subject   string
	PageCount int
	WordCount int
}

// Result is the plain text of a document plus its metadata.
type Result struct {
	Text     string
	Metadata Metadata
}

// Extractor converts uploaded file bytes into plain text.
type Extractor struct {
	markdown goldmark.Markdown
}

// NewExtractor creates an Extractor.
func NewExtractor() *Extractor {
	return &Extractor{
		markdown: goldmark.New(goldmark.WithExtensions(extension.Table)),
	}
}

// Supported reports whether mimeType can be extracted.
func Supported(mimeType string) bool {
	switch normalizeMIME(mimeType) {
	case MIMEPDF, MIMEDOCX, MIMEDOC, MIMEText, MIMEMarkdown:
		return true
	}
	return false
}

// MIMETypeFromFilename maps a file extension to a supported MIME type, or "".
func MIMETypeFromFilename(name string) string {
	return extensionMIME[strings.ToLower(filepath.Ext(name))]
}

// Extract dispatches on mimeType. Unknown types fail with ErrUnsupportedFormat;
// parse failures wrap ErrExtractionFailed.
func (e *Extractor) Extract(ctx context.Context, data []byte, mimeType string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	var (
		res Result
		err error
	)
	switch normalizeMIME(mimeType) {
	case MIMEPDF:
		res, err = extractPDF(ctx, data)
	case MIMEDOCX:
		res, err = extractDOCX(data)
	case MIMEDOC:
		res, err = extractDOC(data)
	case MIMEText:
		res, err = extractText(data)
	case MIMEMarkdown:
		res, err = e.extractMarkdown(data)
	default:
		return Result{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, mimeType)
	}
	if err != nil {
		return Result{}, err
	}

	res.Metadata.WordCount = WordCount(res.Text)
	return res, nil
}

// WordCount counts whitespace-separated words.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

func normalizeMIME(mimeType string) string {
	mt := strings.ToLower(strings.TrimSpace(mimeType))
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	return mt
}

func extractText(data []byte) (Result, error) {
	data = trimBOM(data)
	text := string(data)
	if !utf8.Valid(data) {
		text = strings.ToValidUTF8(text, "�")
	}
	return Result{Text: text}, nil
}

func trimBOM(data []byte) []byte {
	if len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF {
		return data[3:]
	}
	return data
}
