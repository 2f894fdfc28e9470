// Package textnorm folds free-text questions into a canonical form for
// keyword and entity matching: lower case, no Vietnamese diacritics, common
// course abbreviations expanded and whitespace collapsed.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Alias is a literal abbreviation and its expansion, both already folded.
type Alias struct {
	Short    string
	Expanded string
}

// DefaultAliases are matched on word boundaries, longest first.
var DefaultAliases = []Alias{
	{Short: "kh&cn", Expanded: "khoa hoc va cong nghe"},
	{Short: "lt web", Expanded: "lap trinh web"},
	{Short: "do an", Expanded: "do an tot nghiep"},
	{Short: "csdl", Expanded: "co so du lieu"},
	{Short: "ttcn", Expanded: "thuc tap chuyen nganh"},
	{Short: "tttn", Expanded: "thuc tap tot nghiep"},
	{Short: "cn", Expanded: "chuyen nganh"},
}

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize folds text with DefaultAliases.
func Normalize(text string) string {
	return NormalizeWith(text, DefaultAliases)
}

// NormalizeWith folds text with the given alias table. The result is stable:
// normalizing an already-normalized string returns it unchanged.
func NormalizeWith(text string, aliases []Alias) string {
	if text == "" {
		return ""
	}

	folded := Fold(text)
	folded = collapseSpaces(folded)
	for _, a := range aliases {
		folded = expand(folded, a)
	}
	return collapseSpaces(folded)
}

// Fold lower-cases text and strips diacritics without alias expansion.
// "đ" has no canonical decomposition and is mapped explicitly.
func Fold(text string) string {
	lowered := strings.ToLower(text)
	lowered = strings.ReplaceAll(lowered, "đ", "d")

	result, _, err := transform.String(stripMarks, lowered)
	if err != nil {
		return lowered
	}
	return result
}

// Tokens splits normalized text into word tokens.
func Tokens(normalized string) []string {
	return strings.FieldsFunc(normalized, func(r rune) bool {
		return !isWordRune(r)
	})
}

// ContainsAny reports whether text contains any of the phrases.
func ContainsAny(text string, phrases ...string) bool {
	for _, p := range phrases {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}

// HasToken reports whether any of the words appears as a whole token.
func HasToken(normalized string, words ...string) bool {
	for _, tok := range Tokens(normalized) {
		for _, w := range words {
			if tok == w {
				return true
			}
		}
	}
	return false
}

// expand replaces whole-word occurrences of a.Short with a.Expanded.
// An occurrence already followed by the rest of the expansion is left alone.
func expand(text string, a Alias) string {
	if a.Short == "" || !strings.Contains(text, a.Short) {
		return text
	}

	var b strings.Builder
	b.Grow(len(text) + len(a.Expanded))

	i := 0
	for i < len(text) {
		j := strings.Index(text[i:], a.Short)
		if j < 0 {
			b.WriteString(text[i:])
			break
		}
		start := i + j
		end := start + len(a.Short)

		if !boundaryBefore(text, start) || !boundaryAfter(text, end) {
			b.WriteString(text[i:end])
			i = end
			continue
		}

		b.WriteString(text[i:start])
		if strings.HasPrefix(text[start:], a.Expanded) && boundaryAfter(text, start+len(a.Expanded)) {
			b.WriteString(a.Expanded)
			i = start + len(a.Expanded)
			continue
		}
		b.WriteString(a.Expanded)
		i = end
	}
	return b.String()
}

func boundaryBefore(s string, i int) bool {
	if i == 0 {
		return true
	}
	r := lastRune(s[:i])
	return !isWordRune(r)
}

func boundaryAfter(s string, i int) bool {
	if i >= len(s) {
		return true
	}
	r := []rune(s[i:])[0]
	return !isWordRune(r)
}

func lastRune(s string) rune {
	rs := []rune(s)
	return rs[len(rs)-1]
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
