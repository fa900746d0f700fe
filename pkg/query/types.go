// Package query lists and searches the host log buffer.
//
// Every call re-derives its result from the live source inside one scoped
// enumeration session. Nothing is cached between calls.
package query

import (
	"errors"
	"fmt"

	"github.com/ccollicutt/logscope/pkg/severity"
	"github.com/ccollicutt/logscope/pkg/splitter"
)

// Paging bounds.
const (
	DefaultLimit = 100
	MaxLimit     = 1000
)

// ErrNoSearchTerm is returned by Search when neither keyword nor pattern is given.
var ErrNoSearchTerm = errors.New("search requires a keyword or a pattern")

// ErrIndexOutOfRange is returned by Inspect for an index outside the buffer.
var ErrIndexOutOfRange = errors.New("record index out of range")

// ErrUnreadable is returned by Inspect when the host cannot materialize a record.
var ErrUnreadable = errors.New("record could not be read")

// PatternError reports a search pattern that does not compile.
type PatternError struct {
	Pattern string
	Err     error
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("invalid search pattern %q: %v", e.Pattern, e.Err)
}

func (e *PatternError) Unwrap() error {
	return e.Err
}

// Page is a result window. Use NewPage to build a clamped value.
type Page struct {
	Offset int
	Limit  int
}

// NewPage clamps offset to >= 0 and limit to [1, MaxLimit].
func NewPage(offset, limit int) Page {
	if offset < 0 {
		offset = 0
	}
	if limit < 1 {
		limit = 1
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return Page{Offset: offset, Limit: limit}
}

func (p Page) contains(n int) bool {
	return n >= p.Offset && n < p.Offset+p.Limit
}

func (p Page) end() int {
	return p.Offset + p.Limit
}

// ParsedEntry is one record after splitting and classification.
type ParsedEntry struct {
	Message     string
	StackTrace  string
	Severity    severity.Severity
	SourceIndex int

	// Split and Rule record how the entry was derived.
	Split splitter.Strategy
	Rule  string
}

// Entry is the client view of a ParsedEntry.
type Entry struct {
	Index      int               `json:"index"`
	Type       severity.Severity `json:"type"`
	Message    string            `json:"message"`
	StackTrace string            `json:"stackTrace,omitempty"`
}

func (p ParsedEntry) view(includeStackTrace bool) Entry {
	e := Entry{Index: p.SourceIndex, Type: p.Severity, Message: p.Message}
	if includeStackTrace {
		e.StackTrace = p.StackTrace
	}
	return e
}

// Result is the outcome of a List or Search call.
//
// ReturnedCount == len(Items) <= Limit. FilteredCount <= TotalCount and
// MatchedCount <= FilteredCount. Items are ordered newest first.
type Result struct {
	Items         []Entry `json:"items"`
	TotalCount    int     `json:"totalCount"`
	FilteredCount int     `json:"filteredCount"`
	MatchedCount  int     `json:"matchedCount"`
	ReturnedCount int     `json:"returnedCount"`
	Success       bool    `json:"success"`
	Message       string  `json:"message,omitempty"`

	// PartialCounts is set when a search stopped before the oldest record,
	// so FilteredCount and MatchedCount cover only the scanned prefix.
	PartialCounts bool `json:"partialCounts,omitempty"`
}

// ListRequest holds the parameters of a List call.
type ListRequest struct {
	Category          string
	Page              Page
	IncludeStackTrace bool
}

// SearchRequest holds the parameters of a Search call.
type SearchRequest struct {
	Keyword           string
	Pattern           string
	Category          string
	CaseSensitive     bool
	IncludeStackTrace bool
	Page              Page
}

// Inspection describes how one record was split and classified.
type Inspection struct {
	Entry      ParsedEntry
	Mode       int32
	Text       string
	TotalCount int
}
