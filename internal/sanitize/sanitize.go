// Package sanitize cleans raw forum content before it is sent to the
// model: markup is stripped, prompt-injection style control sequences
// are neutralized, whitespace is collapsed, and the result is truncated
// to a token budget.
package sanitize

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pkoukk/tiktoken-go"
)

// DefaultTokenBudget caps sanitized item length when no budget is configured.
const DefaultTokenBudget = 2000

// encodingName selects the BPE vocabulary used for token counting.
const encodingName = "cl100k_base"

var (
	zeroWidthRe  = regexp.MustCompile(`[\x{200B}-\x{200F}\x{202A}-\x{202E}\x{FEFF}]`)
	roleMarkerRe = regexp.MustCompile(`(?im)^[ \t]*(system|assistant|user|human)[ \t]*:`)
	spacesRe     = regexp.MustCompile(`[ \t]+`)
	blankLinesRe = regexp.MustCompile(`\n{3,}`)
)

// Sanitizer is a pure text cleaner. Clean is deterministic, never
// errors, and never produces output above the token budget.
type Sanitizer struct {
	tokenBudget int
	enc         *tiktoken.Tiktoken
}

// New creates a sanitizer with the given token budget. When the BPE
// encoding cannot be loaded, truncation falls back to a rune count
// approximation.
func New(tokenBudget int) *Sanitizer {
	if tokenBudget <= 0 {
		tokenBudget = DefaultTokenBudget
	}
	enc, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		slog.Warn("token encoding unavailable, using rune approximation", "encoding", encodingName, "error", err)
		enc = nil
	}
	return &Sanitizer{tokenBudget: tokenBudget, enc: enc}
}

// Clean strips markup, neutralizes control sequences, collapses
// whitespace, and truncates to the token budget (head preserved).
func (s *Sanitizer) Clean(text string) string {
	text = stripMarkup(text)
	text = neutralize(text)
	text = collapseWhitespace(text)
	return s.truncate(text)
}

// stripMarkup extracts the text content from HTML-ish input. Plain text
// passes through unchanged.
func stripMarkup(text string) string {
	if !strings.ContainsRune(text, '<') {
		return text
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(text))
	if err != nil {
		return text
	}
	doc.Find("script, style").Remove()
	return doc.Text()
}

// neutralize removes sequences that could break out of the grading
// prompt: zero-width characters, special-token delimiters, markdown
// fences, and chat role markers at line starts.
func neutralize(text string) string {
	text = zeroWidthRe.ReplaceAllString(text, "")
	text = strings.ReplaceAll(text, "<|", "< |")
	text = strings.ReplaceAll(text, "|>", "| >")
	text = strings.ReplaceAll(text, "```", "'''")
	text = roleMarkerRe.ReplaceAllString(text, "$1 -")
	return text
}

func collapseWhitespace(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = spacesRe.ReplaceAllString(text, " ")
	text = blankLinesRe.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// truncate drops the tail of text beyond the token budget. Truncation
// is silent: callers get the head of the text, always the same head for
// the same input.
func (s *Sanitizer) truncate(text string) string {
	if s.enc == nil {
		// Approximation: cl100k averages roughly four characters per token.
		limit := s.tokenBudget * 4
		runes := []rune(text)
		if len(runes) <= limit {
			return text
		}
		return strings.TrimSpace(string(runes[:limit]))
	}

	tokens := s.enc.Encode(text, nil, nil)
	if len(tokens) <= s.tokenBudget {
		return text
	}
	return strings.TrimSpace(s.enc.Decode(tokens[:s.tokenBudget]))
}
