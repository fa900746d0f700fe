// Package tools exposes the query engine as MCP tools.
//
// This is the calling boundary: it applies parameter defaults, clamps paging,
// serializes calls into the engine and logs every invocation.
package tools

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"

	"github.com/ccollicutt/logscope/pkg/query"
)

// Tool names.
const (
	ListToolName   = "list_logs"
	SearchToolName = "search_logs"
)

// ListInput are the list_logs parameters.
type ListInput struct {
	Type              string `json:"type,omitempty" jsonschema:"category filter: error, warning, info, or a severity name"`
	Offset            int    `json:"offset,omitempty" jsonschema:"number of entries to skip, newest first"`
	Limit             int    `json:"limit,omitempty" jsonschema:"maximum entries to return, 1 to 1000"`
	IncludeStackTrace *bool  `json:"includeStackTrace,omitempty" jsonschema:"include stack traces in entries, default true"`
}

// SearchInput are the search_logs parameters.
type SearchInput struct {
	Keyword           string `json:"keyword,omitempty" jsonschema:"substring to search for"`
	Pattern           string `json:"pattern,omitempty" jsonschema:"regular expression, used instead of keyword when both are given"`
	Type              string `json:"type,omitempty" jsonschema:"category filter: error, warning, info, or a severity name"`
	IncludeStackTrace *bool  `json:"includeStackTrace,omitempty" jsonschema:"search and return stack traces, default true"`
	CaseSensitive     bool   `json:"caseSensitive,omitempty" jsonschema:"match case, default false"`
	Offset            int    `json:"offset,omitempty" jsonschema:"number of matches to skip, newest first"`
	Limit             int    `json:"limit,omitempty" jsonschema:"maximum matches to return, 1 to 1000"`
}

// Handler serves tool calls against one engine.
type Handler struct {
	mu           sync.Mutex
	engine       *query.Engine
	defaultLimit int
	logger       zerolog.Logger
}

// NewHandler creates a Handler. defaultLimit applies when a caller omits limit.
func NewHandler(engine *query.Engine, defaultLimit int, logger zerolog.Logger) *Handler {
	if defaultLimit <= 0 {
		defaultLimit = query.DefaultLimit
	}
	return &Handler{engine: engine, defaultLimit: defaultLimit, logger: logger}
}

// List runs list_logs.
func (h *Handler) List(ctx context.Context, in ListInput) *query.Result {
	log := h.callLogger(ListToolName)
	start := time.Now()

	h.mu.Lock()
	res := h.engine.List(ctx, query.ListRequest{
		Category:          in.Type,
		Page:              h.page(in.Offset, in.Limit),
		IncludeStackTrace: boolOr(in.IncludeStackTrace, true),
	})
	h.mu.Unlock()

	log.Info().
		Str("type", in.Type).
		Bool("success", res.Success).
		Int("returned", res.ReturnedCount).
		Dur("took", time.Since(start)).
		Msg("tool call")
	return res
}

// Search runs search_logs. It returns query.ErrNoSearchTerm when neither
// keyword nor pattern is supplied.
func (h *Handler) Search(ctx context.Context, in SearchInput) (*query.Result, error) {
	log := h.callLogger(SearchToolName)
	start := time.Now()

	include := boolOr(in.IncludeStackTrace, true)
	h.mu.Lock()
	res, err := h.engine.Search(ctx, query.SearchRequest{
		Keyword:           in.Keyword,
		Pattern:           in.Pattern,
		Category:          in.Type,
		CaseSensitive:     in.CaseSensitive,
		IncludeStackTrace: include,
		Page:              h.page(in.Offset, in.Limit),
	})
	h.mu.Unlock()

	if err != nil {
		log.Warn().Err(err).Msg("tool call rejected")
		return nil, err
	}

	log.Info().
		Str("type", in.Type).
		Bool("pattern", in.Pattern != "").
		Bool("success", res.Success).
		Int("matched", res.MatchedCount).
		Int("returned", res.ReturnedCount).
		Dur("took", time.Since(start)).
		Msg("tool call")
	return res, nil
}

func (h *Handler) page(offset, limit int) query.Page {
	if limit == 0 {
		limit = h.defaultLimit
	}
	return query.NewPage(offset, limit)
}

func (h *Handler) callLogger(tool string) zerolog.Logger {
	return h.logger.With().Str("tool", tool).Str("call_id", uuid.NewString()).Logger()
}

func boolOr(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}

// NewServer registers the tools on a new MCP server.
func NewServer(h *Handler, version string) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: "logscope", Version: version}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        ListToolName,
		Description: "List host log entries newest first, optionally filtered by category, with paging and total, filtered and returned counts.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in ListInput) (*mcp.CallToolResult, query.Result, error) {
		return nil, *h.List(ctx, in), nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        SearchToolName,
		Description: "Search host log entries newest first by keyword or regular expression, optionally filtered by category. Requires keyword or pattern.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in SearchInput) (*mcp.CallToolResult, query.Result, error) {
		res, err := h.Search(ctx, in)
		if err != nil {
			return nil, query.Result{}, err
		}
		return nil, *res, nil
	})

	return server
}

// Serve runs server over stdin and stdout until ctx is done or the client
// disconnects.
func Serve(ctx context.Context, server *mcp.Server) error {
	return server.Run(ctx, &mcp.StdioTransport{})
}
