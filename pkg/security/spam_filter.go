package security

import (
	"regexp"
	"strings"
	"unicode"
)

// SpamReason names the heuristic that flagged a text. It is for server-side
// logs only and must never be echoed back to the client.
type SpamReason string

const (
	SpamReasonNone          SpamReason = ""
	SpamReasonURL           SpamReason = "url"
	SpamReasonBlockedWord   SpamReason = "blocked_word"
	SpamReasonRepeatedChars SpamReason = "repeated_chars"
)

// DefaultBlockedWords are matched case-insensitively on word boundaries
var DefaultBlockedWords = []string{
	"viagra", "casino", "crypto", "bitcoin", "lottery", "winner", "congratulations",
}

// DefaultMaxRepeatedRun is the longest run of one character still accepted
const DefaultMaxRepeatedRun = 10

var urlPattern = regexp.MustCompile(`(?i)https?://`)

// SpamFilter applies pattern heuristics to free-text form input
type SpamFilter struct {
	blockedWords   *regexp.Regexp
	maxRepeatedRun int
}

// NewSpamFilter builds a filter for the given blocklist.
// A nil or empty list falls back to DefaultBlockedWords.
func NewSpamFilter(blockedWords []string, maxRepeatedRun int) *SpamFilter {
	if len(blockedWords) == 0 {
		blockedWords = DefaultBlockedWords
	}
	if maxRepeatedRun <= 0 {
		maxRepeatedRun = DefaultMaxRepeatedRun
	}

	quoted := make([]string, len(blockedWords))
	for i, w := range blockedWords {
		quoted[i] = regexp.QuoteMeta(w)
	}
	pattern := `(?i)\b(` + strings.Join(quoted, "|") + `)\b`

	return &SpamFilter{
		blockedWords:   regexp.MustCompile(pattern),
		maxRepeatedRun: maxRepeatedRun,
	}
}

// Check returns the first heuristic that matches text, or SpamReasonNone
func (f *SpamFilter) Check(text string) SpamReason {
	if urlPattern.MatchString(text) {
		return SpamReasonURL
	}
	if f.blockedWords.MatchString(text) {
		return SpamReasonBlockedWord
	}
	if hasRepeatedRun(text, f.maxRepeatedRun+1) {
		return SpamReasonRepeatedChars
	}
	return SpamReasonNone
}

// IsSpam is shorthand for Check(text) != SpamReasonNone
func (f *SpamFilter) IsSpam(text string) bool {
	return f.Check(text) != SpamReasonNone
}

// hasRepeatedRun reports whether any character (case-folded, line breaks
// excluded) occurs at least n times in a row. RE2 has no backreferences,
// so this replaces a (.)\1{n-1,} pattern.
func hasRepeatedRun(text string, n int) bool {
	var prev rune
	run := 0
	for _, r := range text {
		if isLineTerminator(r) {
			run = 0
			continue
		}
		r = unicode.ToLower(r)
		if run > 0 && r == prev {
			run++
		} else {
			prev = r
			run = 1
		}
		if run >= n {
			return true
		}
	}
	return false
}

func isLineTerminator(r rune) bool {
	return r == '\n' || r == '\r' || r == '\u2028' || r == '\u2029'
}
