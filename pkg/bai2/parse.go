package bai2

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Parse reads a BAI2 document, one record per line, for validation. Blank
// lines and carriage returns are ignored. Parse does not validate; totals
// are populated only when the document is well formed.
func Parse(r io.Reader) (*Document, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read BAI2 document: %w", err)
	}

	doc := &Document{lines: lines}
	if t, err := walk(lines); err == nil {
		doc.totals = t
	}
	return doc, nil
}
