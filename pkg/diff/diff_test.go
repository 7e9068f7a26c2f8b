package diff

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUnifiedIdenticalContentRendersNothing(t *testing.T) {
	t.Parallel()

	content := []byte("{\n  \"version\": \"2.1.0\"\n}\n")

	require.Empty(t, Unified(content, content, "before", "after"))
}

func TestUnifiedMarksChangedLines(t *testing.T) {
	t.Parallel()

	before := []byte("appName: demo\nversion: 2.1.0\nhost: Azure\n")
	after := []byte("appName: demo\nversion: 3.0.0\nhost: Azure\n")

	result := Unified(before, after, "settings (legacy)", "settings (components)")

	require.Contains(t, result, "--- settings (legacy)")
	require.Contains(t, result, "+++ settings (components)")
	require.Contains(t, result, "-version: 2.1.0")
	require.Contains(t, result, "+version: 3.0.0")
	require.Contains(t, result, " appName: demo")
	require.Contains(t, result, " host: Azure")
}

func TestUnifiedIsDeterministic(t *testing.T) {
	t.Parallel()

	before := []byte("a\nb\n")
	after := []byte("a\nc\n")

	first := Unified(before, after, "x", "y")
	second := Unified(before, after, "x", "y")

	require.NotEmpty(t, first)
	require.Equal(t, first, second)
}

func TestUnifiedShowsAdditionsToEmptyContent(t *testing.T) {
	t.Parallel()

	result := Unified(nil, []byte("new content\n"), "before", "after")

	require.Contains(t, result, "+new content")
	require.NotContains(t, result, "-new content")
}

func TestUnifiedTruncatesHugeDiffs(t *testing.T) {
	t.Parallel()

	var before, after strings.Builder
	for i := 0; i < maxLines+1000; i++ {
		before.WriteString("old line\n")
		after.WriteString("new line\n")
	}

	result := Unified([]byte(before.String()), []byte(after.String()), "before", "after")

	require.Contains(t, result, "truncated")
	require.LessOrEqual(t, strings.Count(result, "\n"), maxLines+3)
}
