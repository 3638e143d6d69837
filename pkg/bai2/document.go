package bai2

import (
	"fmt"
	"io"
	"strings"
)

// Totals are the figures reported by a document's file trailer.
type Totals struct {
	ControlTotal int64
	GroupCount   int
	AccountCount int
	RecordCount  int
}

// Document is a rendered BAI2 file. It is immutable once produced.
type Document struct {
	lines  []string
	totals Totals
	stub   bool
}

// Lines returns a copy of the rendered records, one per element, without
// line breaks.
func (d *Document) Lines() []string {
	out := make([]string, len(d.lines))
	copy(out, d.lines)
	return out
}

// Totals returns the file trailer figures.
func (d *Document) Totals() Totals {
	return d.totals
}

// IsStub reports whether the document was produced for a failed
// extraction.
func (d *Document) IsStub() bool {
	return d.stub
}

// String returns the document with one record per line.
func (d *Document) String() string {
	if len(d.lines) == 0 {
		return ""
	}
	return strings.Join(d.lines, "\n") + "\n"
}

// Bytes returns the document text.
func (d *Document) Bytes() []byte {
	return []byte(d.String())
}

// WriteTo writes the document text to w.
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	n, err := io.WriteString(w, d.String())
	return int64(n), err
}

// verify re-reads the serialized document and validates what a consumer of
// the file would see, not the in-memory lines.
func (d *Document) verify() error {
	parsed, err := Parse(strings.NewReader(d.String()))
	if err != nil {
		return err
	}
	if err := Validate(parsed); err != nil {
		return err
	}
	if len(parsed.lines) != len(d.lines) {
		return &StructuralError{
			Reason: fmt.Sprintf("serialized document has %d records, rendered %d", len(parsed.lines), len(d.lines)),
		}
	}
	return nil
}

func render(f *File, maxText int) (*Document, error) {
	lines := make([]string, 0, f.RecordCount())
	add := func(line string, err error) error {
		if err != nil {
			return err
		}
		lines = append(lines, line)
		return nil
	}

	if err := add(f.Header.line()); err != nil {
		return nil, err
	}
	for _, g := range f.Groups {
		if err := add(g.headerLine()); err != nil {
			return nil, err
		}
		for _, a := range g.Accounts {
			if err := add(a.identifierLine()); err != nil {
				return nil, err
			}
			for _, s := range a.Summaries {
				if err := add(s.line()); err != nil {
					return nil, err
				}
			}
			for _, d := range a.Details {
				if err := add(d.line(maxText)); err != nil {
					return nil, err
				}
			}
			if err := add(accountTrailerLine(a.ControlTotal(), a.RecordCount())); err != nil {
				return nil, err
			}
		}
		if err := add(groupTrailerLine(g.ControlTotal(), len(g.Accounts), g.RecordCount())); err != nil {
			return nil, err
		}
	}
	if err := add(fileTrailerLine(f.ControlTotal(), len(f.Groups), f.RecordCount())); err != nil {
		return nil, err
	}

	return &Document{
		lines: lines,
		totals: Totals{
			ControlTotal: f.ControlTotal(),
			GroupCount:   len(f.Groups),
			AccountCount: f.AccountCount(),
			RecordCount:  f.RecordCount(),
		},
	}, nil
}
