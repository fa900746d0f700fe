package query

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ccollicutt/logscope/pkg/category"
	"github.com/ccollicutt/logscope/pkg/severity"
	"github.com/ccollicutt/logscope/pkg/source"
	"github.com/ccollicutt/logscope/pkg/splitter"
)

// errScanPanic wraps a panic recovered while scanning.
var errScanPanic = errors.New("scan aborted")

// Engine runs List and Search against a RawRecordSource.
// An Engine serves one call at a time.
type Engine struct {
	src        source.RawRecordSource
	splitter   *splitter.Splitter
	classifier *severity.Classifier
	categories *category.Mapper
	logger     zerolog.Logger

	exactCounts bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithSplitter replaces the default splitter.
func WithSplitter(s *splitter.Splitter) Option {
	return func(e *Engine) {
		if s != nil {
			e.splitter = s
		}
	}
}

// WithClassifier replaces the default classifier.
func WithClassifier(c *severity.Classifier) Option {
	return func(e *Engine) {
		if c != nil {
			e.classifier = c
		}
	}
}

// WithCategories replaces the default category mapper.
func WithCategories(m *category.Mapper) Option {
	return func(e *Engine) {
		if m != nil {
			e.categories = m
		}
	}
}

// WithExactCounts controls whether Search scans the whole buffer.
// When false, Search stops once the page is filled and reports partial counts.
func WithExactCounts(exact bool) Option {
	return func(e *Engine) {
		e.exactCounts = exact
	}
}

// NewEngine creates an engine over src with default tables.
func NewEngine(src source.RawRecordSource, opts ...Option) *Engine {
	e := &Engine{
		src:         src,
		splitter:    splitter.New(),
		classifier:  severity.NewClassifier(nil),
		categories:  category.NewMapper(nil),
		logger:      zerolog.Nop(),
		exactCounts: true,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// List returns the records passing the category filter, newest first.
// The whole buffer is always scanned so FilteredCount is exact.
func (e *Engine) List(ctx context.Context, req ListRequest) *Result {
	page := NewPage(req.Page.Offset, req.Page.Limit)
	filter := e.categories.Resolve(req.Category)
	res := &Result{Items: []Entry{}}

	total, err := e.scan(ctx, func(p ParsedEntry) bool {
		if !filter.Allows(p.Severity) {
			return false
		}
		if page.contains(res.FilteredCount) {
			res.Items = append(res.Items, p.view(req.IncludeStackTrace))
		}
		res.FilteredCount++
		return false
	})
	res.TotalCount = total
	if err != nil {
		return e.fail(res, "list", err)
	}

	res.MatchedCount = res.FilteredCount
	res.ReturnedCount = len(res.Items)
	res.Success = true
	res.Message = fmt.Sprintf("Returned %d of %d matching log entries (%d total)",
		res.ReturnedCount, res.FilteredCount, res.TotalCount)

	e.logger.Debug().
		Str("op", "list").
		Str("category", filter.Name()).
		Int("total", res.TotalCount).
		Int("filtered", res.FilteredCount).
		Int("returned", res.ReturnedCount).
		Msg("query complete")

	return res
}

// Search returns records passing the category filter and matching the
// search, newest first.
//
// A missing keyword and pattern is an error. An invalid pattern yields an
// unsuccessful result without scanning.
func (e *Engine) Search(ctx context.Context, req SearchRequest) (*Result, error) {
	crit, err := NewCriteria(req.Keyword, req.Pattern, req.CaseSensitive, req.IncludeStackTrace)
	if err != nil {
		var perr *PatternError
		if errors.As(err, &perr) {
			e.logger.Warn().Err(err).Msg("rejecting search pattern")
			return &Result{Items: []Entry{}, Message: perr.Error()}, nil
		}
		return nil, err
	}

	page := NewPage(req.Page.Offset, req.Page.Limit)
	filter := e.categories.Resolve(req.Category)
	res := &Result{Items: []Entry{}}

	total, err := e.scan(ctx, func(p ParsedEntry) bool {
		if !filter.Allows(p.Severity) {
			return false
		}
		res.FilteredCount++
		if !crit.Match(p.Message, p.StackTrace) {
			return false
		}
		if page.contains(res.MatchedCount) {
			res.Items = append(res.Items, p.view(req.IncludeStackTrace))
		}
		res.MatchedCount++
		if !e.exactCounts && res.MatchedCount >= page.end() {
			res.PartialCounts = p.SourceIndex > 0
			return true
		}
		return false
	})
	res.TotalCount = total
	if err != nil {
		return e.fail(res, "search", err), nil
	}

	res.ReturnedCount = len(res.Items)
	res.Success = true
	res.Message = fmt.Sprintf("Found %d matching log entries, returned %d (%d searched of %d total)",
		res.MatchedCount, res.ReturnedCount, res.FilteredCount, res.TotalCount)

	e.logger.Debug().
		Str("op", "search").
		Str("category", filter.Name()).
		Int("total", res.TotalCount).
		Int("filtered", res.FilteredCount).
		Int("matched", res.MatchedCount).
		Int("returned", res.ReturnedCount).
		Bool("partial", res.PartialCounts).
		Msg("query complete")

	return res, nil
}

// Inspect splits and classifies the record at index.
func (e *Engine) Inspect(ctx context.Context, index int) (*Inspection, error) {
	sess, err := source.Begin(e.src)
	if err != nil {
		return nil, err
	}
	defer sess.End()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if index < 0 || index >= sess.Total() {
		return nil, fmt.Errorf("%w: %d (buffer holds %d records)", ErrIndexOutOfRange, index, sess.Total())
	}

	raw, ok := sess.At(index)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnreadable, index)
	}
	raw.SourceIndex = index

	return &Inspection{
		Entry:      e.parse(raw),
		Mode:       raw.Mode,
		Text:       raw.Text,
		TotalCount: sess.Total(),
	}, nil
}

// scan visits records newest first until visit returns true. The session is
// released on every path, including a panic inside the source or visit.
func (e *Engine) scan(ctx context.Context, visit func(ParsedEntry) bool) (total int, err error) {
	sess, err := source.Begin(e.src)
	if err != nil {
		return 0, err
	}
	defer sess.End()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", errScanPanic, r)
		}
	}()

	total = sess.Total()
	for i := total - 1; i >= 0; i-- {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		raw, ok := sess.At(i)
		if !ok {
			e.logger.Debug().Int("index", i).Msg("skipping unreadable record")
			continue
		}
		raw.SourceIndex = i

		if visit(e.parse(raw)) {
			return total, nil
		}
	}
	return total, nil
}

func (e *Engine) parse(raw source.RawRecord) ParsedEntry {
	split := e.splitter.Split(raw)
	class := e.classifier.Explain(raw.Mode, split.StackTrace)
	return ParsedEntry{
		Message:     split.Message,
		StackTrace:  split.StackTrace,
		Severity:    class.Severity,
		SourceIndex: raw.SourceIndex,
		Split:       split.Strategy,
		Rule:        class.Rule,
	}
}

// fail converts a scan error into an unsuccessful result with no items.
func (e *Engine) fail(res *Result, op string, err error) *Result {
	if errors.Is(err, source.ErrUnavailable) {
		e.logger.Warn().Err(err).Str("op", op).Msg("log source unavailable")
	} else {
		e.logger.Error().Err(err).Str("op", op).Msg("query failed")
	}

	// counters gathered before the failure are not reported
	*res = Result{Items: []Entry{}}
	res.Message = fmt.Sprintf("%s failed: %v", op, err)
	return res
}
