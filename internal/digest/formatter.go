// Package digest implements the plain-text daily digest format and the
// normalizations applied to a digest before it is rewritten.
//
// The format is:
//
//	2025-01-02
//
//	1. first entry
//	2. second entry
//
// Numbers are positional and carry no identity across edits.
package digest

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/final0920/mcp-worklog/internal/model"
)

var entryPattern = regexp.MustCompile(`^(\d+)\.\s(.*)$`)

// Format renders d. The output has no trailing newline.
func Format(d *model.Digest) string {
	var b strings.Builder
	b.WriteString(d.DateString())
	b.WriteString("\n")
	for i, e := range d.Entries {
		b.WriteString("\n")
		b.WriteString(strconv.Itoa(i + 1))
		b.WriteString(". ")
		b.WriteString(e.Content)
	}
	return b.String()
}

// Parse reads a digest from text. Any date line is skipped wherever it appears
// and the returned digest is dated fallback. Lines that are not numbered entries
// are ignored, so Parse never fails.
func Parse(text string, fallback time.Time) *model.Digest {
	d := model.EmptyDigest(fallback)
	for _, line := range strings.Split(text, "\n") {
		// leading whitespace only; trailing whitespace belongs to the content
		line = strings.TrimLeftFunc(line, unicode.IsSpace)
		if strings.TrimSpace(line) == "" {
			continue
		}
		if isDateLine(line) {
			continue
		}
		m := entryPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		e, err := model.NewEntry(m[2])
		if err != nil {
			continue
		}
		d.Append(e)
	}
	return d
}

func isDateLine(line string) bool {
	_, err := time.Parse(model.DateLayout, strings.TrimSpace(line))
	return err == nil
}
