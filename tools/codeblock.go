package tools

import (
	"regexp"
	"strings"
)

var codeBlockPattern = regexp.MustCompile("(?s)```(.*?)```")

// ExtractCodeBlocks returns the contents of every fenced block in text with
// the language tag line removed. Text without fences yields a single block:
// the whole text trimmed of whitespace and stray backticks.
func ExtractCodeBlocks(text string) []string {
	matches := codeBlockPattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return []string{strings.Trim(text, " \t\r\n`")}
	}

	blocks := make([]string, 0, len(matches))
	for _, m := range matches {
		blocks = append(blocks, stripLanguageTag(m[1]))
	}
	return blocks
}

// FirstCodeBlock returns the first block ExtractCodeBlocks finds
func FirstCodeBlock(text string) string {
	return ExtractCodeBlocks(text)[0]
}

var languageTagPattern = regexp.MustCompile(`^[A-Za-z][\w+#.-]*$`)

// statement keywords that can legitimately sit alone on the first line
var leadingKeywords = map[string]bool{
	"SELECT": true, "WITH": true, "INSERT": true, "UPDATE": true, "DELETE": true,
	"CREATE": true, "DROP": true, "ALTER": true, "EXPLAIN": true, "VALUES": true,
}

// stripLanguageTag drops a leading "sql", "python" etc. when it sits alone on
// the opening fence line
func stripLanguageTag(block string) string {
	first, rest, found := strings.Cut(block, "\n")
	if !found {
		return strings.TrimSpace(block)
	}
	tag := strings.TrimSpace(first)
	if tag == "" || (languageTagPattern.MatchString(tag) && !leadingKeywords[strings.ToUpper(tag)]) {
		block = rest
	}
	return strings.TrimSpace(block)
}
