package fuzzy

import (
	"regexp"
	"strings"
	"unicode"
)

type rule struct {
	re          *regexp.Regexp
	placeholder string
}

// Order matters: broader shapes must be replaced before the numbers inside
// them.
var rules = []rule{
	{regexp.MustCompile(`[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`), "<UUID>"},
	{regexp.MustCompile(`\b(?:[0-9a-fA-F]{2}:){5}[0-9a-fA-F]{2}\b`), "<MAC>"},
	{regexp.MustCompile(`\b\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}(:\d+)?\b`), "<IP>"},
	{regexp.MustCompile(`\b0x[0-9a-fA-F]+\b`), "<HEX>"},
	{regexp.MustCompile(`\b[0-9a-fA-F]{24,}\b`), "<HEX>"},
	{regexp.MustCompile(`\d{4}-\d{2}-\d{2}[T ]\d{2}:\d{2}:\d{2}(\.\d+)?(Z|[+-]\d{2}:?\d{2})?`), "<TIMESTAMP>"},
	{regexp.MustCompile(`\b\d{1,2}:\d{2}:\d{2}\b`), "<TIME>"},
	{regexp.MustCompile(`/[\w./-]+(:\d+)?`), "<PATH>"},
	{regexp.MustCompile(`\b\d+(\.\d+)?\b`), "<NUM>"},
}

// Normalize replaces variable parts of a log message with placeholders.
func Normalize(msg string) string {
	for _, r := range rules {
		msg = r.re.ReplaceAllString(msg, r.placeholder)
	}
	return strings.TrimSpace(msg)
}

// Tokens splits text into lowercase word tokens. Placeholder brackets are
// kept so <ip> and <num> survive as single tokens.
func Tokens(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '<' && r != '>' && r != '_'
	})
}
