package ui

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScriptedInteractorAnswersInOrder(t *testing.T) {
	t.Parallel()

	scripted := &ScriptedInteractor{
		Selections: []string{"first", "second"},
		Confirms:   []bool{true, false},
	}

	choice, err := scripted.Select("pick one", []string{"first", "second"}, "first")
	require.NoError(t, err)
	require.Equal(t, "first", choice)

	choice, err = scripted.Select("pick again", []string{"first", "second"}, "")
	require.NoError(t, err)
	require.Equal(t, "second", choice)

	ok, err := scripted.Confirm("proceed?", false)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = scripted.Confirm("really?", true)
	require.NoError(t, err)
	require.False(t, ok)

	require.Equal(t, []string{"pick one", "pick again"}, scripted.SelectPrompts)
	require.Equal(t, []string{"proceed?", "really?"}, scripted.ConfirmPrompts)
}

func TestScriptedInteractorFailsWhenScriptRunsOut(t *testing.T) {
	t.Parallel()

	scripted := &ScriptedInteractor{}

	_, err := scripted.Select("pick", []string{"a"}, "")
	require.Error(t, err)

	_, err = scripted.Confirm("sure?", true)
	require.Error(t, err)
}

func TestScriptedInteractorInjectsErrors(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	scripted := &ScriptedInteractor{
		Selections: []string{"a"},
		SelectErr:  boom,
	}

	_, err := scripted.Select("pick", []string{"a"}, "")
	require.ErrorIs(t, err, boom)
}

func TestScriptedInteractorRecordsOpenedURLs(t *testing.T) {
	t.Parallel()

	scripted := &ScriptedInteractor{}
	require.NoError(t, scripted.OpenURL("https://example.test/pricing"))
	require.Equal(t, []string{"https://example.test/pricing"}, scripted.OpenedURLs)
}

func TestNonInteractiveRefusesPrompts(t *testing.T) {
	t.Parallel()

	var ni NonInteractive

	_, err := ni.Select("pick", []string{"a"}, "")
	require.ErrorIs(t, err, ErrNonInteractive)

	_, err = ni.Confirm("sure?", true)
	require.ErrorIs(t, err, ErrNonInteractive)
}

func TestPrompterOpenURLWritesLink(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	p := NewPrompter(&buf)

	require.NoError(t, p.OpenURL("https://example.test/docs"))
	require.Contains(t, buf.String(), "https://example.test/docs")
}
