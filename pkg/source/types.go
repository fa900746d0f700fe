// Package source provides access to the host's diagnostic log buffer.
//
// The buffer is append-only and owned by the host. Every read happens inside
// a scoped enumeration session; nothing is cached across sessions.
package source

import (
	"errors"
	"time"
)

// RawRecord is one host-supplied diagnostic entry.
type RawRecord struct {
	// Text is the full record text: message, optionally followed by a stack trace.
	Text string

	// Mode is the opaque severity bitmask reported by the host.
	Mode int32

	// UTF16CallstackOffset is the stack trace start in UTF-16 code units.
	// Zero, negative or out-of-range values mean "absent".
	UTF16CallstackOffset int32

	// UTF8CallstackOffset is the stack trace start in bytes.
	UTF8CallstackOffset int32

	// SourceIndex is the record's position in the host buffer (0 is oldest).
	SourceIndex int
}

// ErrUnavailable is returned when the host accessor is missing or cannot be read.
var ErrUnavailable = errors.New("log source unavailable")

// ErrSessionActive is returned when an enumeration session is begun twice.
var ErrSessionActive = errors.New("enumeration session already active")

// RawRecordSource is the capability the host must provide.
// Implementations are not safe for concurrent sessions.
type RawRecordSource interface {
	// BeginEnumeration opens a read session over the current buffer contents.
	BeginEnumeration() error

	// EndEnumeration closes the read session. Calling it without an open
	// session is a no-op.
	EndEnumeration()

	// Count returns the number of records visible to the open session.
	Count() int

	// RecordAt returns the record at index. A false result means the record
	// could not be materialized and should be skipped.
	RecordAt(index int) (RawRecord, bool)
}

// Change describes a modification of the host buffer.
type Change struct {
	Path string
	Op   string
	At   time.Time
	Err  error
}

// Notifier is implemented by sources that can report buffer changes.
type Notifier interface {
	// Subscribe registers fn for change notifications and returns a function
	// that cancels the subscription.
	Subscribe(fn func(Change)) (unsubscribe func(), err error)
}
