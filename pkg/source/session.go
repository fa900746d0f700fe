package source

import "fmt"

// Session brackets a read window over a RawRecordSource.
// End is idempotent so it can be deferred unconditionally.
type Session struct {
	src   RawRecordSource
	total int
	ended bool
}

// Begin opens a session on src and captures the record count.
func Begin(src RawRecordSource) (*Session, error) {
	if src == nil {
		return nil, fmt.Errorf("%w: no source configured", ErrUnavailable)
	}
	if err := src.BeginEnumeration(); err != nil {
		return nil, err
	}
	return &Session{src: src, total: src.Count()}, nil
}

// Total returns the record count captured when the session began.
func (s *Session) Total() int {
	return s.total
}

// At returns the record at index, or false if it cannot be read.
func (s *Session) At(index int) (RawRecord, bool) {
	if s.ended || index < 0 || index >= s.total {
		return RawRecord{}, false
	}
	return s.src.RecordAt(index)
}

// End releases the session.
func (s *Session) End() {
	if s.ended {
		return
	}
	s.ended = true
	s.src.EndEnumeration()
}
