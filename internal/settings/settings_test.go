package settings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	apperrors "github.com/appfx/appfx/pkg/errors"
)

func validProject() *ProjectSettings {
	return &ProjectSettings{
		AppName:             "myapp",
		ProjectID:           "4f2d9b1e-5c3a-4e8f-9d27-1a6b8c0e4f55",
		Version:             ComponentsVersion,
		ProgrammingLanguage: "typescript",
		Components: []Component{
			{Name: "bot", Hosting: "web-app", Build: true, Deploy: true, Scenario: ScenarioBot},
			{Name: "web-app", Provision: true, Connections: []string{"bot"}},
			{Name: "bot-service", Provision: true},
		},
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	original := validProject()

	require.NoError(t, Save(dir, original))
	loaded, err := Load(dir)

	require.NoError(t, err)
	require.Equal(t, original, loaded)
	require.Equal(t, GenerationComponents, loaded.Generation())
}

func TestLoadRejectsNonProjects(t *testing.T) {
	t.Parallel()

	_, err := Load(t.TempDir())

	require.Error(t, err)
	require.True(t, apperrors.HasName(err, apperrors.NameInvalidProject))
	require.True(t, apperrors.IsUser(err))
}

func TestLoadRejectsMalformedSettings(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := Path(dir)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(`{"appName": `), 0o644))

	_, err := Load(dir)

	require.Error(t, err)
	require.True(t, apperrors.HasName(err, apperrors.NameInvalidProject))
}

func TestGenerationDiscrimination(t *testing.T) {
	t.Parallel()

	legacy := legacyProject(PluginTab)
	require.Equal(t, GenerationLegacy, legacy.Generation())

	require.Equal(t, GenerationComponents, validProject().Generation())

	empty := &ProjectSettings{AppName: "x", ProjectID: "4f2d9b1e-5c3a-4e8f-9d27-1a6b8c0e4f55"}
	require.Equal(t, GenerationComponents, empty.Generation())
}

func TestValidateRejectsUnknownHostingTarget(t *testing.T) {
	t.Parallel()

	s := validProject()
	s.Components[0].Hosting = "missing-host"

	err := s.Validate()

	require.Error(t, err)
	require.Contains(t, err.Error(), "missing-host")
}

func TestValidateRejectsConnectionCycles(t *testing.T) {
	t.Parallel()

	s := &ProjectSettings{
		AppName:   "myapp",
		ProjectID: "4f2d9b1e-5c3a-4e8f-9d27-1a6b8c0e4f55",
		Components: []Component{
			{Name: "a", Connections: []string{"b"}},
			{Name: "b", Connections: []string{"a"}},
		},
	}

	err := s.Validate()

	require.Error(t, err)
	require.Contains(t, err.Error(), "cycle")
}

func TestValidateRejectsDuplicateComponents(t *testing.T) {
	t.Parallel()

	s := validProject()
	s.Components = append(s.Components, Component{Name: "bot"})

	err := s.Validate()

	require.Error(t, err)
	require.Contains(t, err.Error(), "duplicate")
}

func TestActiveComponentsFollowDeclarationOrder(t *testing.T) {
	t.Parallel()

	s := validProject()

	require.Equal(t, []string{"web-app", "bot-service"}, s.ActiveComponents())
}
