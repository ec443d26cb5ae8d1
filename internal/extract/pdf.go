package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

func extractPDF(ctx context.Context, data []byte) (res Result, err error) {
	// The pdf package panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			err = failed("pdf", fmt.Errorf("parser panic: %v", r))
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Result{}, failed("pdf", err)
	}

	var sb strings.Builder
	numPages := reader.NumPage()
	fonts := make(map[string]*pdf.Font)
	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		for _, name := range page.Fonts() {
			if _, ok := fonts[name]; !ok {
				f := page.Font(name)
				fonts[name] = &f
			}
		}
		text, err := page.GetPlainText(fonts)
		if err != nil {
			return Result{}, failed("pdf", fmt.Errorf("page %d: %w", i, err))
		}
		sb.WriteString(text)
		sb.WriteByte('\n')
	}

	text := sb.String()
	if strings.TrimSpace(text) == "" && numPages > 0 {
		return Result{}, failed("pdf", errors.New("no extractable text (scanned document?)"))
	}

	info := reader.Trailer().Key("Info")
	return Result{
		Text: text,
		Metadata: Metadata{
			Title:     strings.TrimSpace(info.Key("Title").Text()),
			Author:    strings.TrimSpace(info.Key("Author").Text()),
			Subject:   strings.TrimSpace(info.Key("Subject").Text()),
			PageCount: numPages,
		},
	}, nil
}
