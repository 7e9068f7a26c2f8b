package scaffold

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/appfx/appfx/internal/environment"
	"github.com/appfx/appfx/internal/settings"
	apperrors "github.com/appfx/appfx/pkg/errors"
)

func TestNewScaffoldsSettingsAndEnvironments(t *testing.T) {
	t.Parallel()

	projectDir := filepath.Join(t.TempDir(), "myapp")

	project, err := New(context.Background(), Options{
		ProjectPath:  projectDir,
		AppName:      "My App",
		Language:     "typescript",
		Capabilities: []string{CapabilityTab, CapabilityBot},
	}, nil)

	require.NoError(t, err)
	require.Equal(t, settings.GenerationComponents, project.Generation())
	require.Equal(t, settings.ComponentsVersion, project.Version)

	_, err = uuid.Parse(project.ProjectID)
	require.NoError(t, err)

	require.Equal(t,
		[]string{"static-storage", "web-app", "bot-service", "app-registration", "app-manifest"},
		project.ActiveComponents())

	loaded, err := settings.Load(projectDir)
	require.NoError(t, err)
	require.Equal(t, project, loaded)

	envs, err := environment.ListEnvs(projectDir)
	require.NoError(t, err)
	require.Equal(t, []string{"dev", "local"}, envs)
}

func TestNewMintsDistinctProjectIDs(t *testing.T) {
	t.Parallel()

	opts := func(dir string) Options {
		return Options{ProjectPath: dir, AppName: "app", Capabilities: []string{CapabilityAPI}}
	}

	first, err := New(context.Background(), opts(filepath.Join(t.TempDir(), "a")), nil)
	require.NoError(t, err)
	second, err := New(context.Background(), opts(filepath.Join(t.TempDir(), "b")), nil)
	require.NoError(t, err)

	require.NotEqual(t, first.ProjectID, second.ProjectID)
}

func TestNewRefusesExistingProject(t *testing.T) {
	t.Parallel()

	projectDir := filepath.Join(t.TempDir(), "myapp")
	opts := Options{ProjectPath: projectDir, AppName: "app", Capabilities: []string{CapabilityTab}}

	_, err := New(context.Background(), opts, nil)
	require.NoError(t, err)

	_, err = New(context.Background(), opts, nil)

	require.Error(t, err)
	require.True(t, apperrors.HasName(err, apperrors.NameProjectAlreadyExist))
	require.True(t, apperrors.IsUser(err))
}

func TestNewRejectsInvalidOptions(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		opts Options
	}{
		{name: "unknown capability", opts: Options{AppName: "app", Capabilities: []string{"vr"}}},
		{name: "duplicate capabilities", opts: Options{AppName: "app", Capabilities: []string{"tab", "tab"}}},
		{name: "no capabilities", opts: Options{AppName: "app"}},
		{name: "unknown language", opts: Options{AppName: "app", Language: "cobol", Capabilities: []string{"tab"}}},
		{name: "missing app name", opts: Options{Capabilities: []string{"tab"}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			dir := filepath.Join(t.TempDir(), "myapp")
			tc.opts.ProjectPath = dir

			_, err := New(context.Background(), tc.opts, nil)

			require.Error(t, err)
			require.True(t, apperrors.HasName(err, apperrors.NameInvalidInput))
			require.True(t, apperrors.IsUser(err))
			require.NoFileExists(t, settings.Path(dir))
		})
	}
}

func TestNewAppliesTemplate(t *testing.T) {
	t.Parallel()

	source := initTemplateRepo(t, map[string]string{
		DescriptorFile:      "name: tab-starter\nlanguage: javascript\ncapabilities: [tab]\n",
		"src/index.js":      "module.exports = {};",
		"manifest/app.json": "{}",
	})
	projectDir := filepath.Join(t.TempDir(), "myapp")

	project, err := New(context.Background(), Options{
		ProjectPath:  projectDir,
		AppName:      "My App",
		Language:     "javascript",
		Capabilities: []string{CapabilityTab},
		TemplateURL:  source,
		TemplateRef:  "v1.0.0",
	}, nil)

	require.NoError(t, err)
	require.FileExists(t, filepath.Join(projectDir, "src", "index.js"))
	require.FileExists(t, filepath.Join(projectDir, "manifest", "app.json"))
	require.NoFileExists(t, filepath.Join(projectDir, DescriptorFile))
	require.NoDirExists(t, filepath.Join(projectDir, ".git"))

	loaded, err := settings.Load(projectDir)
	require.NoError(t, err)
	require.Equal(t, project.ProjectID, loaded.ProjectID)
}

func TestNewChecksTemplateBeforeWritingAnything(t *testing.T) {
	t.Parallel()

	source := initTemplateRepo(t, map[string]string{
		DescriptorFile: "name: tab-starter\ncapabilities: [tab]\n",
	})
	projectDir := filepath.Join(t.TempDir(), "myapp")

	_, err := New(context.Background(), Options{
		ProjectPath:  projectDir,
		AppName:      "My App",
		Capabilities: []string{CapabilityBot},
		TemplateURL:  source,
	}, nil)

	require.Error(t, err)
	require.True(t, apperrors.HasName(err, apperrors.NameInvalidTemplate))
	require.NoFileExists(t, settings.Path(projectDir))

	envs, err := environment.ListEnvs(projectDir)
	require.NoError(t, err)
	require.Empty(t, envs)
}

func TestNewFailsCleanlyOnUnfetchableTemplate(t *testing.T) {
	t.Parallel()

	projectDir := filepath.Join(t.TempDir(), "myapp")

	_, err := New(context.Background(), Options{
		ProjectPath:  projectDir,
		AppName:      "My App",
		Capabilities: []string{CapabilityTab},
		TemplateURL:  filepath.Join(t.TempDir(), "nowhere"),
	}, nil)

	require.Error(t, err)
	require.True(t, apperrors.HasName(err, apperrors.NameFetchTemplate))
	require.NoFileExists(t, settings.Path(projectDir))
}

func TestApplyTemplateCopiesTreeSkippingMetadata(t *testing.T) {
	t.Parallel()

	templateDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(templateDir, DescriptorFile), []byte("name: x\ncapabilities: [tab]\n"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(templateDir, ".git"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(templateDir, ".git", "config"), []byte("[core]"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(templateDir, "scripts"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(templateDir, "scripts", "run.sh"), []byte("#!/bin/sh\n"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(templateDir, "index.html"), []byte("<html/>"), 0o644))

	projectDir := filepath.Join(t.TempDir(), "proj")
	require.NoError(t, ApplyTemplate(projectDir, templateDir, &Descriptor{Name: "x", Capabilities: []string{"tab"}}))

	require.FileExists(t, filepath.Join(projectDir, "index.html"))
	require.NoFileExists(t, filepath.Join(projectDir, DescriptorFile))
	require.NoDirExists(t, filepath.Join(projectDir, ".git"))

	info, err := os.Stat(filepath.Join(projectDir, "scripts", "run.sh"))
	require.NoError(t, err)
	require.NotZero(t, info.Mode()&0o100, "executable bit should survive the copy")
}

func TestApplyTemplateHonorsFileList(t *testing.T) {
	t.Parallel()

	templateDir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(templateDir, "src"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(templateDir, "src", "app.js"), []byte("app"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(templateDir, "notes.txt"), []byte("internal"), 0o644))

	projectDir := filepath.Join(t.TempDir(), "proj")
	d := &Descriptor{Name: "x", Capabilities: []string{"tab"}, Files: []string{"src/app.js"}}
	require.NoError(t, ApplyTemplate(projectDir, templateDir, d))

	require.FileExists(t, filepath.Join(projectDir, "src", "app.js"))
	require.NoFileExists(t, filepath.Join(projectDir, "notes.txt"))
}

func TestApplyTemplateFailsOnMissingListedFile(t *testing.T) {
	t.Parallel()

	d := &Descriptor{Name: "x", Capabilities: []string{"tab"}, Files: []string{"gone.js"}}

	err := ApplyTemplate(filepath.Join(t.TempDir(), "proj"), t.TempDir(), d)

	require.Error(t, err)
	require.Contains(t, err.Error(), "gone.js")
}
