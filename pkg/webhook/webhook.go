// Package webhook notifies HTTP endpoints about list and search results.
//
// Endpoints receive a compact Notification rather than the full report: the
// counters, the query that produced them and the headline of each returned
// entry. Stack traces are never posted.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/ccollicutt/logscope/pkg/output"
	"github.com/ccollicutt/logscope/pkg/query"
	"github.com/ccollicutt/logscope/pkg/severity"
)

const (
	// DefaultTimeout bounds one delivery when the target sets none.
	DefaultTimeout = 10 * time.Second

	// MaxEntries caps the headlines carried by one notification.
	MaxEntries = 20

	// MaxMessageLen caps each headline, in bytes.
	MaxMessageLen = 256

	// DeliveryHeader carries the notification's delivery id.
	DeliveryHeader = "X-Logscope-Delivery"

	maxResponseBody = 64 * 1024
)

// Counts mirrors the engine counters of one call.
type Counts struct {
	TotalCount    int  `json:"totalCount"`
	FilteredCount int  `json:"filteredCount"`
	MatchedCount  int  `json:"matchedCount"`
	ReturnedCount int  `json:"returnedCount"`
	PartialCounts bool `json:"partialCounts,omitempty"`
}

// Headline is a returned entry without its stack trace.
type Headline struct {
	Index   int               `json:"index"`
	Type    severity.Severity `json:"type"`
	Message string            `json:"message"`
}

// Notification is the JSON body posted to a webhook.
type Notification struct {
	Delivery    string           `json:"delivery"`
	Operation   string           `json:"operation"`
	Source      string           `json:"source,omitempty"`
	Query       output.QueryInfo `json:"query"`
	Success     bool             `json:"success"`
	Message     string           `json:"message,omitempty"`
	Counts      Counts           `json:"counts"`
	Entries     []Headline       `json:"entries"`
	Truncated   bool             `json:"truncated,omitempty"`
	GeneratedAt time.Time        `json:"generatedAt"`
}

// NewNotification summarizes a report under a fresh delivery id.
func NewNotification(report *output.Report) *Notification {
	n := &Notification{
		Delivery:    uuid.NewString(),
		Operation:   report.Operation,
		Source:      report.Metadata.Source,
		Query:       report.Query,
		GeneratedAt: report.Metadata.GeneratedAt,
		Entries:     []Headline{},
	}
	if report.Result == nil {
		return n
	}

	r := report.Result
	n.Success = r.Success
	n.Message = r.Message
	n.Counts = Counts{
		TotalCount:    r.TotalCount,
		FilteredCount: r.FilteredCount,
		MatchedCount:  r.MatchedCount,
		ReturnedCount: r.ReturnedCount,
		PartialCounts: r.PartialCounts,
	}

	items := r.Items
	if len(items) > MaxEntries {
		items = items[:MaxEntries]
		n.Truncated = true
	}
	for _, e := range items {
		n.Entries = append(n.Entries, headline(e))
	}
	return n
}

func headline(e query.Entry) Headline {
	msg := e.Message
	if len(msg) > MaxMessageLen {
		msg = msg[:MaxMessageLen]
	}
	return Headline{Index: e.Index, Type: e.Type, Message: msg}
}

// Target is one webhook endpoint.
type Target struct {
	URL     string
	Token   string        // sent as a Bearer token when set
	Timeout time.Duration // DefaultTimeout when zero
}

// Delivery is the outcome of posting one notification.
type Delivery struct {
	ID         string
	StatusCode int
	Body       string
	Duration   time.Duration
	Error      error
}

// Success reports whether the endpoint accepted the notification.
func (d *Delivery) Success() bool {
	return d.Error == nil && d.StatusCode >= 200 && d.StatusCode < 300
}

// Client posts notifications.
type Client struct {
	httpClient *http.Client
	userAgent  string
}

// NewClient returns a client identifying itself with the given version.
func NewClient(version string) *Client {
	ua := "logscope-webhook"
	if version != "" {
		ua += "/" + version
	}
	return &Client{httpClient: &http.Client{}, userAgent: ua}
}

// Notify posts n to the target. Failures are reported in the returned
// Delivery, never as a panic or a separate error.
func (c *Client) Notify(ctx context.Context, n *Notification, t Target) *Delivery {
	start := time.Now()
	d := &Delivery{ID: n.Delivery}
	defer func() { d.Duration = time.Since(start) }()

	body, err := json.Marshal(n)
	if err != nil {
		d.Error = fmt.Errorf("encoding notification: %w", err)
		return d
	}

	timeout := t.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.URL, bytes.NewReader(body))
	if err != nil {
		d.Error = fmt.Errorf("building request: %w", err)
		return d
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set(DeliveryHeader, n.Delivery)
	if t.Token != "" {
		req.Header.Set("Authorization", "Bearer "+t.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		d.Error = fmt.Errorf("posting to %s: %w", t.URL, err)
		return d
	}
	defer resp.Body.Close()

	d.StatusCode = resp.StatusCode
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		d.Error = fmt.Errorf("reading response: %w", err)
		return d
	}
	d.Body = string(raw)

	if !d.Success() {
		d.Error = fmt.Errorf("endpoint returned status %d", resp.StatusCode)
	}
	return d
}
