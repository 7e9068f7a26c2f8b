// Package diff renders line-oriented unified diffs. The upgrade command uses
// it to show what a settings migration changed before and after the rewrite.
package diff

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

const (
	maxLines         = 10000
	truncationNotice = "... diff truncated after 10000 lines ..."
)

// Unified compares two file contents line by line and renders the result in
// unified-diff form with the given labels in the --- and +++ headers. It
// returns the empty string when the contents are identical. Output carries no
// timestamps, so equal inputs always render equal diffs.
func Unified(before, after []byte, beforeLabel, afterLabel string) string {
	if bytes.Equal(before, after) {
		return ""
	}

	dmp := diffmatchpatch.New()
	beforeChars, afterChars, lineIndex := dmp.DiffLinesToChars(string(before), string(after))
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(beforeChars, afterChars, false), lineIndex)

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "--- %s\n", beforeLabel)
	fmt.Fprintf(&buf, "+++ %s\n", afterLabel)

	written := 0
	for _, d := range diffs {
		prefix := " "
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			prefix = "-"
		case diffmatchpatch.DiffInsert:
			prefix = "+"
		}
		for _, line := range splitLines(d.Text) {
			if written == maxLines {
				buf.WriteString(truncationNotice)
				buf.WriteByte('\n')
				return buf.String()
			}
			buf.WriteString(prefix)
			buf.WriteString(line)
			buf.WriteByte('\n')
			written++
		}
	}

	return buf.String()
}

// splitLines breaks a diff fragment into lines, treating the trailing newline
// as the last line's terminator rather than an extra empty line.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(text, "\n"), "\n")
}
