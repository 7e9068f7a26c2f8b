package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/appfx/appfx/internal/scaffold"
)

// execute runs the root command with args and returns its combined output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	root := newRootCmd()
	buf := &bytes.Buffer{}
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)

	err := root.Execute()
	return buf.String(), err
}

// scaffoldProject creates a project on the current settings generation and
// returns its directory.
func scaffoldProject(t *testing.T, capabilities ...string) string {
	t.Helper()

	if len(capabilities) == 0 {
		capabilities = []string{scaffold.CapabilityTab}
	}

	dir := filepath.Join(t.TempDir(), "proj")
	_, err := scaffold.New(context.Background(), scaffold.Options{
		ProjectPath:  dir,
		AppName:      "Demo App",
		Capabilities: capabilities,
	}, nil)
	require.NoError(t, err)

	return dir
}
