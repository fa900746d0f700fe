package source

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// HostVersion names a host record layout.
type HostVersion string

const (
	// HostModern records carry the text in "message" plus both callstack offsets.
	HostModern HostVersion = "modern"

	// HostLegacy records carry the text in "condition" and no offsets.
	HostLegacy HostVersion = "legacy"
)

// ErrMissingText is returned when a line lacks the layout's text field.
var ErrMissingText = errors.New("record has no text field")

// Layout decodes one dumped host record.
type Layout interface {
	Version() HostVersion
	Decode(line []byte) (RawRecord, error)
}

// Layouts returns every known layout, newest host first.
func Layouts() []Layout {
	return []Layout{modernLayout{}, legacyLayout{}}
}

// LayoutFor returns the layout for the named host version.
func LayoutFor(v HostVersion) (Layout, error) {
	name := HostVersion(strings.ToLower(strings.TrimSpace(string(v))))
	if name == "" {
		name = HostModern
	}
	for _, l := range Layouts() {
		if l.Version() == name {
			return l, nil
		}
	}
	return nil, fmt.Errorf("unknown host version %q (must be modern or legacy)", v)
}

type modernRecord struct {
	Message   *string `json:"message"`
	Mode      int32   `json:"mode"`
	UTF16From int32   `json:"callstackTextStartUTF16"`
	UTF8From  int32   `json:"callstackTextStartUTF8"`
}

type modernLayout struct{}

func (modernLayout) Version() HostVersion { return HostModern }

func (modernLayout) Decode(line []byte) (RawRecord, error) {
	var r modernRecord
	if err := json.Unmarshal(line, &r); err != nil {
		return RawRecord{}, fmt.Errorf("decoding record: %w", err)
	}
	if r.Message == nil {
		return RawRecord{}, ErrMissingText
	}
	return RawRecord{
		Text:                 *r.Message,
		Mode:                 r.Mode,
		UTF16CallstackOffset: r.UTF16From,
		UTF8CallstackOffset:  r.UTF8From,
	}, nil
}

type legacyRecord struct {
	Condition *string `json:"condition"`
	Mode      int32   `json:"mode"`
}

type legacyLayout struct{}

func (legacyLayout) Version() HostVersion { return HostLegacy }

func (legacyLayout) Decode(line []byte) (RawRecord, error) {
	var r legacyRecord
	if err := json.Unmarshal(line, &r); err != nil {
		return RawRecord{}, fmt.Errorf("decoding record: %w", err)
	}
	if r.Condition == nil {
		return RawRecord{}, ErrMissingText
	}
	return RawRecord{Text: *r.Condition, Mode: r.Mode}, nil
}
