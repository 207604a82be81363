package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// writeDiff writes a line diff of a and b to w, prefixing lines with
// "-", "+" or " ". It reports whether a and b differ.
func writeDiff(w io.Writer, a, b string, p *palette) (bool, error) {
	dmp := diffmatchpatch.New()
	ca, cb, lines := dmp.DiffLinesToChars(a, b)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(ca, cb, false), lines)
	changed := false
	for _, d := range diffs {
		prefix, paint := " ", fmt.Sprintf
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			prefix, paint, changed = "+", p.add, true
		case diffmatchpatch.DiffDelete:
			prefix, paint, changed = "-", p.del, true
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			if !strings.HasSuffix(line, "\n") {
				line += "\n"
			}
			if _, err := io.WriteString(w, paint("%s%s", prefix, line)); err != nil {
				return changed, err
			}
		}
	}
	return changed, nil
}
