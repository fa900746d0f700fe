package query

import (
	"regexp"
	"strings"
)

// Criteria is a compiled search. A pattern takes precedence over a keyword.
type Criteria struct {
	keyword           string
	pattern           *regexp.Regexp
	caseSensitive     bool
	includeStackTrace bool
}

// NewCriteria compiles a search. It returns ErrNoSearchTerm when both keyword
// and pattern are empty and a *PatternError when pattern does not compile.
func NewCriteria(keyword, pattern string, caseSensitive, includeStackTrace bool) (*Criteria, error) {
	c := &Criteria{caseSensitive: caseSensitive, includeStackTrace: includeStackTrace}

	switch {
	case pattern != "":
		expr := pattern
		if !caseSensitive {
			expr = "(?i)" + pattern
		}
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, &PatternError{Pattern: pattern, Err: err}
		}
		c.pattern = re
	case keyword != "":
		c.keyword = keyword
		if !caseSensitive {
			c.keyword = strings.ToLower(keyword)
		}
	default:
		return nil, ErrNoSearchTerm
	}

	return c, nil
}

// Match reports whether message, or stackTrace when enabled, satisfies c.
func (c *Criteria) Match(message, stackTrace string) bool {
	if c.matchOne(message) {
		return true
	}
	return c.includeStackTrace && stackTrace != "" && c.matchOne(stackTrace)
}

func (c *Criteria) matchOne(s string) bool {
	if c.pattern != nil {
		return c.pattern.MatchString(s)
	}
	if c.caseSensitive {
		return strings.Contains(s, c.keyword)
	}
	return strings.Contains(strings.ToLower(s), c.keyword)
}
