package source

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// FileSource reads a host buffer dump: one JSON record per line, oldest first.
type FileSource struct {
	path   string
	layout Layout

	// maxRecord bounds one line; longer lines stay in the snapshot as
	// unreadable records.
	maxRecord int

	lines  []string
	active bool
}

// MaxRecordSize is the longest dump line decoded as a record.
const MaxRecordSize = 4 * 1024 * 1024

// NewFileSource creates a source over the dump at path decoded with layout.
func NewFileSource(path string, layout Layout) *FileSource {
	return &FileSource{path: path, layout: layout, maxRecord: MaxRecordSize}
}

// Open returns the source backend for the given host version.
// This is the only place host versions are distinguished.
func Open(path string, version HostVersion) (RawRecordSource, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("%w: no source path", ErrUnavailable)
	}
	layout, err := LayoutFor(version)
	if err != nil {
		return nil, err
	}
	return NewFileSource(path, layout), nil
}

// Path returns the dump file path.
func (s *FileSource) Path() string {
	return s.path
}

// BeginEnumeration snapshots the dump's current lines.
func (s *FileSource) BeginEnumeration() error {
	if s.active {
		return ErrSessionActive
	}

	f, err := os.Open(s.path) // #nosec G304 -- user-provided dump path is expected
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s does not exist", ErrUnavailable, s.path)
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer f.Close()

	lines, err := readRecords(f, s.maxRecord)
	if err != nil {
		return fmt.Errorf("reading %s: %w", s.path, err)
	}

	s.lines = lines
	s.active = true
	return nil
}

// EndEnumeration drops the snapshot.
func (s *FileSource) EndEnumeration() {
	s.lines = nil
	s.active = false
}

// Count returns the number of records in the snapshot.
func (s *FileSource) Count() int {
	return len(s.lines)
}

// RecordAt decodes the record at index. Malformed lines report false.
func (s *FileSource) RecordAt(index int) (RawRecord, bool) {
	if !s.active || index < 0 || index >= len(s.lines) || s.lines[index] == oversized {
		return RawRecord{}, false
	}
	rec, err := s.layout.Decode([]byte(s.lines[index]))
	if err != nil {
		return RawRecord{}, false
	}
	rec.SourceIndex = index
	return rec, true
}

// Subscribe watches the dump file for writes, creation, removal and renames.
// The directory is watched so that editors and log rotation that replace the
// file are still observed.
func (s *FileSource) Subscribe(fn func(Change)) (func(), error) {
	abs, err := filepath.Abs(s.path)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", s.path, err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("watching %s: %w", filepath.Dir(abs), err)
	}

	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != abs {
					continue
				}
				if op := opName(ev.Op); op != "" {
					fn(Change{Path: abs, Op: op, At: time.Now()})
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				fn(Change{Path: abs, Op: "error", At: time.Now(), Err: err})
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
			_ = w.Close()
		})
	}, nil
}

// oversized stands in for a line longer than maxRecord. Blank lines are never
// kept, so it cannot collide with a real record.
const oversized = ""

// readRecords returns the non-blank lines of r. A line longer than maxLen is
// drained and kept as oversized so record indexes stay aligned with the dump.
func readRecords(r io.Reader, maxLen int) ([]string, error) {
	br := bufio.NewReaderSize(r, 64*1024)
	var (
		lines []string
		buf   []byte
		skip  bool
	)
	for {
		chunk, isPrefix, err := br.ReadLine()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		if !skip {
			if len(buf)+len(chunk) > maxLen {
				skip = true
				buf = buf[:0]
			} else {
				buf = append(buf, chunk...)
			}
		}
		if isPrefix {
			continue
		}

		switch {
		case skip:
			lines = append(lines, oversized)
		case len(bytes.TrimSpace(buf)) > 0:
			lines = append(lines, string(buf))
		}
		buf = buf[:0]
		skip = false
	}
	return lines, nil
}

func opName(op fsnotify.Op) string {
	switch {
	case op.Has(fsnotify.Write):
		return "write"
	case op.Has(fsnotify.Create):
		return "create"
	case op.Has(fsnotify.Remove):
		return "remove"
	case op.Has(fsnotify.Rename):
		return "rename"
	default:
		return ""
	}
}
