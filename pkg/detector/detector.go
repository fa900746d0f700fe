// Package detector identifies the host record layout of a buffer dump.
package detector

import (
	"bufio"
	"context"
	"os"
	"sort"
	"strings"

	"github.com/ccollicutt/logscope/pkg/source"
)

// DetectionResult holds the result of analyzing a dump file.
type DetectionResult struct {
	Matches      []LayoutMatch // Layouts that decoded at least one line, best first
	SampledLines int           // Number of lines sampled
	DecodedLines int           // Lines decoded by the best layout
}

// LayoutMatch represents a layout that decoded sampled lines.
type LayoutMatch struct {
	Version     source.HostVersion
	Confidence  float64 // 0.0 to 1.0 (share of sampled lines decoded)
	MatchCount  int     // Number of lines decoded
	WithOffsets int     // Decoded lines carrying a callstack offset
	SampleText  string  // First line of text from an example record
}

// Detector scores host layouts against dump lines.
type Detector struct {
	layouts    []source.Layout
	sampleSize int
}

// Option configures the Detector.
type Option func(*Detector)

// WithSampleSize sets the number of lines to sample (default 100).
func WithSampleSize(n int) Option {
	return func(d *Detector) {
		if n > 0 {
			d.sampleSize = n
		}
	}
}

// New creates a Detector over every known layout.
func New(opts ...Option) *Detector {
	d := &Detector{
		layouts:    source.Layouts(),
		sampleSize: 100,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// DetectFromFile samples a dump file and returns ranked layouts.
func (d *Detector) DetectFromFile(ctx context.Context, path string) (*DetectionResult, error) {
	lines, err := d.sampleFile(ctx, path)
	if err != nil {
		return nil, err
	}
	return d.DetectFromLines(lines), nil
}

// DetectFromLines scores every layout against lines.
func (d *Detector) DetectFromLines(lines []string) *DetectionResult {
	result := &DetectionResult{SampledLines: len(lines)}
	if len(lines) == 0 {
		return result
	}

	rank := make(map[source.HostVersion]int, len(d.layouts))
	for i, layout := range d.layouts {
		rank[layout.Version()] = i

		m := LayoutMatch{Version: layout.Version()}
		for _, line := range lines {
			rec, err := layout.Decode([]byte(line))
			if err != nil {
				continue
			}
			m.MatchCount++
			if rec.UTF16CallstackOffset > 0 || rec.UTF8CallstackOffset > 0 {
				m.WithOffsets++
			}
			if m.SampleText == "" {
				m.SampleText, _, _ = strings.Cut(rec.Text, "\n")
			}
		}
		if m.MatchCount == 0 {
			continue
		}
		m.Confidence = float64(m.MatchCount) / float64(len(lines))
		result.Matches = append(result.Matches, m)
	}

	// Confidence first; newer layouts win ties.
	sort.Slice(result.Matches, func(i, j int) bool {
		a, b := result.Matches[i], result.Matches[j]
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		return rank[a.Version] < rank[b.Version]
	})

	if len(result.Matches) > 0 {
		result.DecodedLines = result.Matches[0].MatchCount
	}

	return result
}

// sampleFile reads up to sampleSize non-blank lines from the head of a file.
func (d *Detector) sampleFile(_ context.Context, path string) ([]string, error) {
	// #nosec G304 - path is provided by user via CLI
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	for scanner.Scan() && len(lines) < d.sampleSize {
		line := scanner.Text()
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return lines, nil
}

// BestMatch returns the highest confidence match, or nil if none found.
func (r *DetectionResult) BestMatch() *LayoutMatch {
	if len(r.Matches) == 0 {
		return nil
	}
	return &r.Matches[0]
}

// HasMatch returns true if at least one layout matched.
func (r *DetectionResult) HasMatch() bool {
	return len(r.Matches) > 0
}
