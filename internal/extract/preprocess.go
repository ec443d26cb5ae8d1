package extract

import (
	"regexp"
	"strings"
)

var (
	ellipsisRun = regexp.MustCompile(`\.{3,}`)
	dashRun     = regexp.MustCompile(`-{3,}`)

	quoteReplacer = strings.NewReplacer(
		"\u201c", `"`, "\u201d", `"`, "\u201e", `"`, "\u00ab", `"`, "\u00bb", `"`,
		"\u2018", "'", "\u2019", "'", "\u201a", "'", "`", "'",
	)
	artifactReplacer = strings.NewReplacer(
		"\f", " ", "\r\n", " ", "\r", " ", "\n", " ", "\u00a0", " ",
	)
)

// Preprocess normalizes extracted text before chunking. Break artifacts and
// whitespace runs collapse to single spaces and typographic quotes become
// ASCII. Chunk offsets always refer to the text this function returns.
func Preprocess(text string) string {
	text = artifactReplacer.Replace(text)
	text = strings.Join(strings.Fields(text), " ")
	text = ellipsisRun.ReplaceAllString(text, "...")
	text = dashRun.ReplaceAllString(text, "---")
	text = quoteReplacer.Replace(text)
	return text
}
