package tools

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"

	"github.com/ccollicutt/logscope/pkg/query"
	"github.com/ccollicutt/logscope/pkg/source"
)

func newTestHandler(n, defaultLimit int) *Handler {
	recs := make([]source.RawRecord, n)
	for i := range recs {
		mode := int32(1 << 2)
		if i%2 == 0 {
			mode = 1 << 0
		}
		recs[i] = source.RawRecord{Text: fmt.Sprintf("entry %d", i), Mode: mode}
	}
	engine := query.NewEngine(source.NewMemorySource(recs...))
	return NewHandler(engine, defaultLimit, zerolog.Nop())
}

func boolPtr(b bool) *bool { return &b }

func TestList_Defaults(t *testing.T) {
	h := newTestHandler(30, 10)

	res := h.List(context.Background(), ListInput{})
	if !res.Success {
		t.Fatalf("List() failed: %s", res.Message)
	}
	if res.ReturnedCount != 10 {
		t.Errorf("ReturnedCount = %d, want default limit 10", res.ReturnedCount)
	}
	if res.Items[0].Index != 29 {
		t.Errorf("first index = %d, want newest 29", res.Items[0].Index)
	}
}

func TestList_ClampsPaging(t *testing.T) {
	h := newTestHandler(1200, 10)

	tests := []struct {
		name         string
		in           ListInput
		wantReturned int
		wantFirst    int
	}{
		{"limit above max", ListInput{Limit: 5000}, query.MaxLimit, 1199},
		{"negative offset", ListInput{Offset: -3, Limit: 2}, 2, 1199},
		{"negative limit", ListInput{Limit: -4}, 1, 1199},
		{"offset", ListInput{Offset: 5, Limit: 1}, 1, 1194},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := h.List(context.Background(), tt.in)
			if res.ReturnedCount != tt.wantReturned {
				t.Errorf("ReturnedCount = %d, want %d", res.ReturnedCount, tt.wantReturned)
			}
			if res.Items[0].Index != tt.wantFirst {
				t.Errorf("first index = %d, want %d", res.Items[0].Index, tt.wantFirst)
			}
		})
	}
}

func TestList_Category(t *testing.T) {
	h := newTestHandler(10, 0)

	res := h.List(context.Background(), ListInput{Type: "error", IncludeStackTrace: boolPtr(false)})
	if res.FilteredCount != 5 || res.TotalCount != 10 {
		t.Errorf("counts = %d/%d, want 5/10", res.FilteredCount, res.TotalCount)
	}
}

func TestSearch_RequiresTerm(t *testing.T) {
	h := newTestHandler(5, 0)

	_, err := h.Search(context.Background(), SearchInput{Type: "error"})
	if !errors.Is(err, query.ErrNoSearchTerm) {
		t.Errorf("Search() error = %v, want ErrNoSearchTerm", err)
	}
}

func TestSearch_Matches(t *testing.T) {
	h := newTestHandler(12, 0)

	res, err := h.Search(context.Background(), SearchInput{Keyword: "ENTRY 1", Limit: 2})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	// entry 1, 10, 11
	if res.MatchedCount != 3 {
		t.Errorf("MatchedCount = %d, want 3", res.MatchedCount)
	}
	if res.ReturnedCount != 2 || res.Items[0].Index != 11 {
		t.Errorf("items = %+v", res.Items)
	}
}

func TestSearch_InvalidPattern(t *testing.T) {
	h := newTestHandler(3, 0)

	res, err := h.Search(context.Background(), SearchInput{Pattern: "("})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if res.Success || res.Message == "" {
		t.Errorf("expected unsuccessful result with message, got %+v", res)
	}
}

func TestServer_CallTools(t *testing.T) {
	ctx := context.Background()
	h := newTestHandler(4, 0)
	server := NewServer(h, "test")

	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	serverSession, err := server.Connect(ctx, serverTransport, nil)
	if err != nil {
		t.Fatalf("server.Connect() error = %v", err)
	}
	defer serverSession.Close()

	client := mcp.NewClient(&mcp.Implementation{Name: "client", Version: "test"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		t.Fatalf("client.Connect() error = %v", err)
	}
	defer session.Close()

	tools, err := session.ListTools(ctx, nil)
	if err != nil {
		t.Fatalf("ListTools() error = %v", err)
	}
	names := map[string]bool{}
	for _, tool := range tools.Tools {
		names[tool.Name] = true
	}
	if !names[ListToolName] || !names[SearchToolName] {
		t.Errorf("tools = %v, want %s and %s", names, ListToolName, SearchToolName)
	}

	res, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      ListToolName,
		Arguments: map[string]any{"type": "error", "limit": 1},
	})
	if err != nil {
		t.Fatalf("CallTool(list_logs) error = %v", err)
	}
	if res.IsError {
		t.Fatalf("CallTool(list_logs) returned tool error: %+v", res.Content)
	}
	out, ok := res.StructuredContent.(map[string]any)
	if !ok {
		t.Fatalf("StructuredContent = %T, want object", res.StructuredContent)
	}
	if out["filteredCount"] != float64(2) || out["returnedCount"] != float64(1) {
		t.Errorf("structured content = %v", out)
	}

	res, err = session.CallTool(ctx, &mcp.CallToolParams{
		Name:      SearchToolName,
		Arguments: map[string]any{"type": "error"},
	})
	if err == nil && !res.IsError {
		t.Error("search_logs without keyword or pattern should fail")
	}
}
