// Package splitter separates a raw record's text into message and stack trace.
package splitter

import (
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/ccollicutt/logscope/pkg/source"
)

// Strategy names the rule that produced a split.
type Strategy string

const (
	StrategyUTF16     Strategy = "utf16_offset"
	StrategyUTF8      Strategy = "utf8_offset"
	StrategyHeuristic Strategy = "heuristic"
	StrategyNone      Strategy = "none"
)

// DefaultFramePrefixes are namespace prefixes that start a stack frame line.
var DefaultFramePrefixes = []string{
	"UnityEngine.",
	"UnityEditor.",
	"System.",
	"Unity.",
	"Mono.",
	"Microsoft.",
}

// Result is the outcome of splitting one record.
type Result struct {
	Message    string
	StackTrace string
	Strategy   Strategy
}

// Splitter holds the frame prefixes used by the heuristic fallback.
type Splitter struct {
	prefixes []string
}

// New creates a Splitter. With no prefixes, DefaultFramePrefixes are used.
func New(prefixes ...string) *Splitter {
	if len(prefixes) == 0 {
		prefixes = DefaultFramePrefixes
	}
	return &Splitter{prefixes: append([]string(nil), prefixes...)}
}

// Split separates raw into message and stack trace.
// Offsets are tried first (UTF-16, then UTF-8), then the line heuristic.
func (s *Splitter) Split(raw source.RawRecord) Result {
	if r, ok := cutUTF16(raw.Text, int(raw.UTF16CallstackOffset)); ok {
		return r
	}
	if r, ok := cutUTF8(raw.Text, int(raw.UTF8CallstackOffset)); ok {
		return r
	}
	return s.heuristic(raw.Text)
}

func cutUTF16(text string, offset int) (Result, bool) {
	if offset <= 0 {
		return Result{}, false
	}
	units := utf16.Encode([]rune(text))
	if offset >= len(units) {
		return Result{}, false
	}
	// A cut between the halves of a surrogate pair is not a valid boundary.
	if isLowSurrogate(units[offset]) && isHighSurrogate(units[offset-1]) {
		return Result{}, false
	}
	return Result{
		Message:    trimNewlines(string(utf16.Decode(units[:offset]))),
		StackTrace: string(utf16.Decode(units[offset:])),
		Strategy:   StrategyUTF16,
	}, true
}

func cutUTF8(text string, offset int) (Result, bool) {
	if offset <= 0 || offset >= len(text) || !utf8.RuneStart(text[offset]) {
		return Result{}, false
	}
	return Result{
		Message:    trimNewlines(text[:offset]),
		StackTrace: text[offset:],
		Strategy:   StrategyUTF8,
	}, true
}

func (s *Splitter) heuristic(text string) Result {
	lines := strings.Split(text, "\n")
	if len(lines) < 2 {
		return Result{Message: text, Strategy: StrategyNone}
	}

	for i := 1; i < len(lines); i++ {
		if s.IsFrame(lines[i]) {
			return Result{
				Message:    trimNewlines(strings.Join(lines[:i], "\n")),
				StackTrace: strings.Join(lines[i:], "\n"),
				Strategy:   StrategyHeuristic,
			}
		}
	}
	return Result{Message: text, Strategy: StrategyNone}
}

// IsFrame reports whether line looks like a stack frame.
func (s *Splitter) IsFrame(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return false
	}
	for _, p := range s.prefixes {
		if strings.HasPrefix(trimmed, p) {
			return true
		}
	}
	if strings.Contains(trimmed, " (at ") {
		return true
	}
	return strings.Contains(trimmed, "(") && strings.Contains(trimmed, ")") && strings.Contains(trimmed, ":")
}

func isHighSurrogate(u uint16) bool { return u >= 0xD800 && u < 0xDC00 }

func isLowSurrogate(u uint16) bool { return u >= 0xDC00 && u < 0xE000 }

func trimNewlines(s string) string {
	return strings.TrimRight(s, "\r\n")
}
