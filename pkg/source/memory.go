package source

import (
	"sync"
	"time"
)

// MemorySource is an in-process host buffer. Records are appended oldest first.
type MemorySource struct {
	mu          sync.Mutex
	records     []RawRecord
	unreadable  map[int]bool
	subscribers map[int]func(Change)
	nextSub     int

	snapshot []RawRecord
	active   bool
}

// NewMemorySource creates a source holding records, oldest first.
func NewMemorySource(records ...RawRecord) *MemorySource {
	m := &MemorySource{
		unreadable:  make(map[int]bool),
		subscribers: make(map[int]func(Change)),
	}
	for _, r := range records {
		m.appendLocked(r)
	}
	return m
}

// Append adds a record and notifies subscribers.
func (m *MemorySource) Append(r RawRecord) {
	m.mu.Lock()
	m.appendLocked(r)
	subs := make([]func(Change), 0, len(m.subscribers))
	for _, fn := range m.subscribers {
		subs = append(subs, fn)
	}
	m.mu.Unlock()

	for _, fn := range subs {
		fn(Change{Path: "memory", Op: "append", At: time.Now()})
	}
}

func (m *MemorySource) appendLocked(r RawRecord) {
	r.SourceIndex = len(m.records)
	m.records = append(m.records, r)
}

// MarkUnreadable makes RecordAt fail for index.
func (m *MemorySource) MarkUnreadable(index int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unreadable[index] = true
}

// BeginEnumeration snapshots the current records.
func (m *MemorySource) BeginEnumeration() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active {
		return ErrSessionActive
	}
	m.snapshot = append([]RawRecord(nil), m.records...)
	m.active = true
	return nil
}

// EndEnumeration drops the snapshot.
func (m *MemorySource) EndEnumeration() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshot = nil
	m.active = false
}

// Count returns the snapshot size.
func (m *MemorySource) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.snapshot)
}

// RecordAt returns the snapshot record at index.
func (m *MemorySource) RecordAt(index int) (RawRecord, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.active || index < 0 || index >= len(m.snapshot) || m.unreadable[index] {
		return RawRecord{}, false
	}
	return m.snapshot[index], true
}

// Subscribe registers fn to be called after every Append.
func (m *MemorySource) Subscribe(fn func(Change)) (func(), error) {
	m.mu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subscribers[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.subscribers, id)
		m.mu.Unlock()
	}, nil
}
