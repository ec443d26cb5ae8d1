package extract

import (
	"strings"

	"github.com/yuin/goldmark/ast"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// extractMarkdown renders the markdown AST to plain text, one block per line.
// The first level-1 heading (or level-2 if there is none) becomes the title.
func (e *Extractor) extractMarkdown(data []byte) (Result, error) {
	data = trimBOM(data)
	doc := e.markdown.Parser().Parse(text.NewReader(data))

	var (
		sb             strings.Builder
		firstH1, first string
	)
	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := n.(type) {
		case *ast.Heading:
			heading := nodeText(v, data)
			if v.Level == 1 && firstH1 == "" {
				firstH1 = heading
			} else if v.Level == 2 && first == "" {
				first = heading
			}
			writeLine(&sb, heading)
			return ast.WalkSkipChildren, nil
		case *ast.Paragraph, *ast.TextBlock:
			writeLine(&sb, nodeText(v, data))
			return ast.WalkSkipChildren, nil
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			writeLine(&sb, blockLines(v, data))
			return ast.WalkSkipChildren, nil
		case *east.TableRow, *east.TableHeader:
			writeLine(&sb, tableRowText(v, data))
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return Result{}, failed("markdown", err)
	}

	title := firstH1
	if title == "" {
		title = first
	}
	return Result{Text: sb.String(), Metadata: Metadata{Title: title}}, nil
}

func writeLine(sb *strings.Builder, line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	sb.WriteString(line)
	sb.WriteByte('\n')
}

// nodeText concatenates the inline text beneath n.
func nodeText(n ast.Node, source []byte) string {
	var sb strings.Builder
	_ = ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := node.(type) {
		case *ast.Text:
			sb.Write(v.Segment.Value(source))
			if v.SoftLineBreak() || v.HardLineBreak() {
				sb.WriteByte(' ')
			}
		case *ast.String:
			sb.Write(v.Value)
		}
		return ast.WalkContinue, nil
	})
	return sb.String()
}

func blockLines(n ast.Node, source []byte) string {
	var sb strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		sb.Write(seg.Value(source))
	}
	return sb.String()
}

func tableRowText(row ast.Node, source []byte) string {
	cells := make([]string, 0, row.ChildCount())
	for c := row.FirstChild(); c != nil; c = c.NextSibling() {
		cells = append(cells, strings.TrimSpace(nodeText(c, source)))
	}
	return strings.Join(cells, " | ")
}
