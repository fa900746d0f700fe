package commands

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ccollicutt/logscope/pkg/query"
	"github.com/ccollicutt/logscope/pkg/source"
)

// lineWriter forwards each Write to a channel.
type lineWriter chan string

func (w lineWriter) Write(p []byte) (int, error) {
	w <- string(p)
	return len(p), nil
}

func waitFor(t *testing.T, lines lineWriter, substr string) string {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case line := <-lines:
			if strings.Contains(line, substr) {
				return line
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %q", substr)
			return ""
		}
	}
}

func TestWatchSource_Refresh(t *testing.T) {
	src := source.NewMemorySource(source.RawRecord{Text: "first", Mode: 1})
	engine := query.NewEngine(src)

	ctx, cancel := context.WithCancel(context.Background())
	lines := make(lineWriter, 64)
	done := make(chan error, 1)
	go func() {
		done <- watchSource(ctx, lines, src, engine, &WatchOptions{Refresh: true, Type: "error"})
	}()

	waitFor(t, lines, "Watching for changes")

	src.Append(source.RawRecord{Text: "second", Mode: 1})
	waitFor(t, lines, "append memory")
	waitFor(t, lines, "2 in category, 2 total")

	src.Append(source.RawRecord{Text: "third", Mode: 4})
	waitFor(t, lines, "2 in category, 3 total")

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("watchSource() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watchSource did not stop after cancel")
	}
}

func TestWatchSource_FileNamesPath(t *testing.T) {
	path := writeDump(t)
	src, err := source.Open(path, source.HostModern)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	lines := make(lineWriter, 64)
	done := make(chan error, 1)
	go func() {
		done <- watchSource(ctx, lines, src, query.NewEngine(src), &WatchOptions{})
	}()

	if line := waitFor(t, lines, "Watching"); !strings.Contains(line, path) {
		t.Errorf("banner %q should name %s", line, path)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("watchSource() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watchSource did not stop after cancel")
	}
}

// staticSource has no change notifications.
type staticSource struct{ source.RawRecordSource }

func TestWatchSource_NoNotifier(t *testing.T) {
	src := staticSource{source.NewMemorySource()}

	err := watchSource(context.Background(), make(lineWriter, 1), src, query.NewEngine(src), &WatchOptions{})
	if !errors.Is(err, errNoNotifier) {
		t.Errorf("watchSource() error = %v, want errNoNotifier", err)
	}
}

func TestPrintChange(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 6_000_000, time.UTC)
	lines := make(lineWriter, 1)

	printChange(lines, source.Change{Path: "/tmp/dump.jsonl", Op: "write", At: at})
	if got := <-lines; got != "03:04:05.006 write /tmp/dump.jsonl\n" {
		t.Errorf("printChange() = %q", got)
	}

	printChange(lines, source.Change{Path: "/tmp/dump.jsonl", Op: "error", At: at, Err: errors.New("overflow")})
	if got := <-lines; !strings.HasSuffix(got, "error /tmp/dump.jsonl: overflow\n") {
		t.Errorf("printChange() = %q", got)
	}
}
