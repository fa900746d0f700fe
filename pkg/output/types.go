// Package output provides formatting for query results.
package output

import (
	"time"

	"github.com/ccollicutt/logscope/pkg/query"
)

// Report is a query result together with the parameters that produced it.
type Report struct {
	// Operation is "list" or "search".
	Operation string `json:"operation"`

	// Query records the request parameters.
	Query QueryInfo `json:"query"`

	// Result is the engine output.
	Result *query.Result `json:"result"`

	// Metadata provides context about the run.
	Metadata Metadata `json:"metadata"`
}

// QueryInfo describes the request.
type QueryInfo struct {
	Category          string `json:"category,omitempty"`
	Keyword           string `json:"keyword,omitempty"`
	Pattern           string `json:"pattern,omitempty"`
	CaseSensitive     bool   `json:"caseSensitive,omitempty"`
	IncludeStackTrace bool   `json:"includeStackTrace"`
	Offset            int    `json:"offset"`
	Limit             int    `json:"limit"`
}

// Metadata provides context about the query run.
type Metadata struct {
	// Source is the host buffer that was read.
	Source string `json:"source,omitempty"`

	// GeneratedAt is when the query completed.
	GeneratedAt time.Time `json:"generatedAt"`

	// Duration is how long the query took.
	Duration time.Duration `json:"duration"`
}

// NewReport wraps a result.
func NewReport(op string, q QueryInfo, result *query.Result, src string, started time.Time) *Report {
	now := time.Now()
	return &Report{
		Operation: op,
		Query:     q,
		Result:    result,
		Metadata: Metadata{
			Source:      src,
			GeneratedAt: now,
			Duration:    now.Sub(started),
		},
	}
}

// HasResults returns true if the query succeeded and returned entries.
func (r *Report) HasResults() bool {
	return r.Result != nil && r.Result.Success && r.Result.ReturnedCount > 0
}
