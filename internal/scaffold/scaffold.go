// Package scaffold creates new projects. It mints the project identity,
// writes current-generation settings for the requested capabilities, creates
// the default environments, and lays down starter source from a template
// repository.
//
// Capability wiring is not defined here. A scaffold builds the legacy plugin
// list for what was asked and runs it through the settings generation
// upgrade, so new projects and migrated ones get their component graphs from
// the same table.
package scaffold

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/appfx/appfx/internal/environment"
	"github.com/appfx/appfx/internal/logger"
	"github.com/appfx/appfx/internal/settings"
	apperrors "github.com/appfx/appfx/pkg/errors"
)

// Capability names accepted by New.
const (
	CapabilityTab = "tab"
	CapabilityBot = "bot"
	CapabilityAPI = "api"
)

// DefaultEnvs are created for every new project: local for the inner loop,
// dev as the first shared target.
var DefaultEnvs = []string{"local", "dev"}

// legacyPlugins maps a capability to the resource plugins a legacy project
// would declare for it. App registration and manifest are appended for every
// project regardless of capability.
var legacyPlugins = map[string][]string{
	CapabilityTab: {settings.PluginTab},
	CapabilityBot: {settings.PluginBot, settings.PluginBotService},
	CapabilityAPI: {settings.PluginAPI},
}

// Options configures a scaffold run.
type Options struct {
	ProjectPath  string   `validate:"required"`
	AppName      string   `validate:"required,min=1,max=64"`
	Language     string   `validate:"omitempty,oneof=javascript typescript csharp"`
	Capabilities []string `validate:"required,min=1,unique,dive,oneof=tab bot api"`

	// TemplateURL and TemplateRef select the starter source to lay down.
	// An empty URL scaffolds settings and environments only.
	TemplateURL string
	TemplateRef string
}

// New scaffolds a project at opts.ProjectPath and returns its settings.
//
// The template, when requested, is fetched and checked before anything is
// written, so a bad remote or a descriptor that does not serve the requested
// capabilities leaves the directory untouched.
func New(ctx context.Context, opts Options, log *logger.Logger) (*settings.ProjectSettings, error) {
	log = log.WithComponent("scaffold")

	if err := validatorInstance().Struct(&opts); err != nil {
		return nil, apperrors.NewInvalidInputError(err, "invalid scaffold options")
	}
	if _, err := os.Stat(settings.Path(opts.ProjectPath)); err == nil {
		return nil, apperrors.NewProjectAlreadyExistError(opts.ProjectPath)
	}

	project := settings.Upgrade(&settings.ProjectSettings{
		AppName:             opts.AppName,
		ProjectID:           uuid.NewString(),
		Version:             settings.LegacyVersion,
		ProgrammingLanguage: opts.Language,
		Solution: &settings.SolutionSettings{
			Name:                  "azure",
			HostType:              "Azure",
			Capabilities:          scenarioLabels(opts.Capabilities),
			ActiveResourcePlugins: pluginList(opts.Capabilities),
		},
	})
	if err := project.Validate(); err != nil {
		return nil, fmt.Errorf("scaffolded settings are invalid: %w", err)
	}

	var (
		templateDir string
		descriptor  *Descriptor
	)
	if opts.TemplateURL != "" {
		dir, err := FetchTemplate(ctx, opts.TemplateURL, opts.TemplateRef)
		if err != nil {
			return nil, err
		}
		defer func() { _ = os.RemoveAll(dir) }()

		descriptor, err = ParseDescriptor(dir)
		if err != nil {
			return nil, err
		}
		if err := descriptor.serveCheck(opts.Capabilities); err != nil {
			return nil, err
		}
		templateDir = dir
		log.Debugf("template %q fetched from %s", descriptor.Name, opts.TemplateURL)
	}

	if err := settings.Save(opts.ProjectPath, project); err != nil {
		return nil, err
	}
	for _, env := range DefaultEnvs {
		if err := environment.CreateEnv(opts.ProjectPath, env, environment.Config{}); err != nil {
			return nil, err
		}
	}

	if templateDir != "" {
		if err := ApplyTemplate(opts.ProjectPath, templateDir, descriptor); err != nil {
			return nil, err
		}
	}

	log.Infof("scaffolded %q with components %v", opts.AppName, project.ActiveComponents())
	return project, nil
}

// pluginList expands requested capabilities into the legacy plugin list, in
// request order, with the per-project plugins appended once.
func pluginList(capabilities []string) []string {
	var plugins []string
	for _, c := range capabilities {
		plugins = append(plugins, legacyPlugins[c]...)
	}
	return append(plugins, settings.PluginAppRegistration, settings.PluginAppManifest)
}

// scenarioLabels maps capability names to the coarse labels the legacy shape
// records alongside the plugin list.
func scenarioLabels(capabilities []string) []string {
	labels := make([]string, 0, len(capabilities))
	for _, c := range capabilities {
		switch c {
		case CapabilityTab:
			labels = append(labels, settings.ScenarioTab)
		case CapabilityBot:
			labels = append(labels, settings.ScenarioBot)
		case CapabilityAPI:
			labels = append(labels, settings.ScenarioAPI)
		}
	}
	return labels
}

// ApplyTemplate copies template source into the project. A descriptor with an
// explicit file list copies exactly those files; otherwise the whole tree is
// copied, minus git metadata and the descriptor itself.
func ApplyTemplate(projectPath, templateDir string, d *Descriptor) error {
	if len(d.Files) > 0 {
		for _, rel := range d.Files {
			src := filepath.Join(templateDir, filepath.FromSlash(rel))
			dst := filepath.Join(projectPath, filepath.FromSlash(rel))
			if err := copyFile(src, dst); err != nil {
				return fmt.Errorf("failed to copy template file %s: %w", rel, err)
			}
		}
		return nil
	}
	if err := copyTree(templateDir, projectPath); err != nil {
		return fmt.Errorf("failed to copy template: %w", err)
	}
	return nil
}

func copyTree(srcRoot, dstRoot string) error {
	return filepath.WalkDir(srcRoot, func(p string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(srcRoot, p)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}

		if entry.IsDir() {
			if entry.Name() == ".git" {
				return filepath.SkipDir
			}
			return os.MkdirAll(filepath.Join(dstRoot, rel), 0o755)
		}
		if rel == DescriptorFile {
			return nil
		}
		return copyFile(p, filepath.Join(dstRoot, rel))
	})
}

// copyFile copies one regular file, preserving its permission bits.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
