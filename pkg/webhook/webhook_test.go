package webhook

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ccollicutt/logscope/pkg/output"
	"github.com/ccollicutt/logscope/pkg/query"
	"github.com/ccollicutt/logscope/pkg/severity"
)

func newTestReport() *output.Report {
	return output.NewReport("search",
		output.QueryInfo{Keyword: "boom", Limit: 10},
		&query.Result{
			Items: []query.Entry{
				{Index: 4, Type: severity.Error, Message: "boom", StackTrace: "at Player.Update ()"},
			},
			TotalCount:    5,
			FilteredCount: 3,
			MatchedCount:  1,
			ReturnedCount: 1,
			Success:       true,
			PartialCounts: true,
		},
		"editor.jsonl",
		time.Now())
}

func TestNewNotification(t *testing.T) {
	n := NewNotification(newTestReport())

	if _, err := uuid.Parse(n.Delivery); err != nil {
		t.Errorf("Delivery = %q is not a uuid: %v", n.Delivery, err)
	}
	if n.Operation != "search" || n.Source != "editor.jsonl" || n.Query.Keyword != "boom" {
		t.Errorf("unexpected header fields: %+v", n)
	}
	want := Counts{TotalCount: 5, FilteredCount: 3, MatchedCount: 1, ReturnedCount: 1, PartialCounts: true}
	if n.Counts != want {
		t.Errorf("Counts = %+v, want %+v", n.Counts, want)
	}
	if len(n.Entries) != 1 || n.Entries[0] != (Headline{Index: 4, Type: severity.Error, Message: "boom"}) {
		t.Errorf("Entries = %+v", n.Entries)
	}

	body, err := json.Marshal(n)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if strings.Contains(string(body), "Player.Update") {
		t.Error("notification should not carry stack traces")
	}

	if other := NewNotification(newTestReport()); other.Delivery == n.Delivery {
		t.Error("each notification should get its own delivery id")
	}
}

func TestNewNotification_Caps(t *testing.T) {
	items := make([]query.Entry, MaxEntries+5)
	for i := range items {
		items[i] = query.Entry{Index: i, Type: severity.Info, Message: strings.Repeat("m", MaxMessageLen+10)}
	}
	report := output.NewReport("list", output.QueryInfo{Limit: len(items)},
		&query.Result{Items: items, TotalCount: len(items), FilteredCount: len(items), MatchedCount: len(items), ReturnedCount: len(items), Success: true},
		"", time.Now())

	n := NewNotification(report)
	if len(n.Entries) != MaxEntries || !n.Truncated {
		t.Errorf("got %d entries, truncated=%v; want %d, true", len(n.Entries), n.Truncated, MaxEntries)
	}
	if len(n.Entries[0].Message) != MaxMessageLen {
		t.Errorf("message length = %d, want %d", len(n.Entries[0].Message), MaxMessageLen)
	}
	if n.Counts.ReturnedCount != len(items) {
		t.Errorf("ReturnedCount = %d, counts should not be capped", n.Counts.ReturnedCount)
	}
}

func TestNewNotification_FailedResult(t *testing.T) {
	report := output.NewReport("list", output.QueryInfo{}, &query.Result{Items: []query.Entry{}, Message: "source unavailable"}, "", time.Now())

	n := NewNotification(report)
	if n.Success || n.Message != "source unavailable" {
		t.Errorf("unexpected notification: %+v", n)
	}
	if n.Entries == nil {
		t.Error("Entries should encode as an empty array")
	}

	if n := NewNotification(&output.Report{Operation: "list"}); n.Success || n.Entries == nil {
		t.Errorf("nil result notification = %+v", n)
	}
}

func TestClient_Notify_Success(t *testing.T) {
	var (
		received    Notification
		contentType string
		auth        string
		delivery    string
		userAgent   string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		auth = r.Header.Get("Authorization")
		delivery = r.Header.Get(DeliveryHeader)
		userAgent = r.Header.Get("User-Agent")
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &received); err != nil {
			t.Errorf("invalid body: %v", err)
		}
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer server.Close()

	n := NewNotification(newTestReport())
	d := NewClient("1.2.3").Notify(context.Background(), n, Target{URL: server.URL, Token: "tok"})

	if !d.Success() {
		t.Fatalf("expected success, got error: %v", d.Error)
	}
	if d.ID != n.Delivery || delivery != n.Delivery {
		t.Errorf("delivery id: result %q, header %q, want %q", d.ID, delivery, n.Delivery)
	}
	if d.Body != `{"status":"ok"}` {
		t.Errorf("unexpected body: %s", d.Body)
	}
	if contentType != "application/json" {
		t.Errorf("Content-Type = %s", contentType)
	}
	if auth != "Bearer tok" {
		t.Errorf("Authorization = %q", auth)
	}
	if userAgent != "logscope-webhook/1.2.3" {
		t.Errorf("User-Agent = %q", userAgent)
	}
	if received.Operation != "search" || received.Counts.MatchedCount != 1 || !received.Counts.PartialCounts {
		t.Errorf("received = %+v", received)
	}
}

func TestClient_Notify_Failures(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer slow.Close()

	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer broken.Close()

	tests := []struct {
		name   string
		target Target
	}{
		{"server error", Target{URL: broken.URL}},
		{"timeout", Target{URL: slow.URL, Timeout: 50 * time.Millisecond}},
		{"invalid url", Target{URL: "://invalid-url"}},
		{"connection refused", Target{URL: "http://127.0.0.1:59999", Timeout: 100 * time.Millisecond}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewClient("").Notify(context.Background(), NewNotification(newTestReport()), tt.target)
			if d.Success() {
				t.Error("expected failure, got success")
			}
			if d.Error == nil {
				t.Error("expected error to be set")
			}
		})
	}
}

func TestDelivery_Success(t *testing.T) {
	tests := []struct {
		name string
		d    Delivery
		want bool
	}{
		{"200 OK", Delivery{StatusCode: 200}, true},
		{"204 No Content", Delivery{StatusCode: 204}, true},
		{"302 Found", Delivery{StatusCode: 302}, false},
		{"400 Bad Request", Delivery{StatusCode: 400}, false},
		{"with error", Delivery{StatusCode: 200, Error: io.EOF}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.d.Success(); got != tt.want {
				t.Errorf("Success() = %v, want %v", got, tt.want)
			}
		})
	}
}
