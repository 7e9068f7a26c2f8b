// Package settings owns the project settings file: identity, language, and
// the description of what the project is made of. Two generations of that
// description exist side by side in the wild. The legacy generation lists
// active resource plugins flatly; the current generation describes a small
// component graph. Exactly one generation is authoritative per file, and all
// consumers dispatch on Generation() instead of probing fields.
package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/appfx/appfx/internal/environment"
	apperrors "github.com/appfx/appfx/pkg/errors"
)

const settingsFile = "project.json"

// Versions stamped into the settings file per generation.
const (
	LegacyVersion     = "2.1.0"
	ComponentsVersion = "3.0.0"
)

// Generation names which settings shape is authoritative.
type Generation string

const (
	// GenerationLegacy is the flat plugin-list shape.
	GenerationLegacy Generation = "legacy"
	// GenerationComponents is the component-graph shape.
	GenerationComponents Generation = "components"
)

// ProjectSettings is the root of the project settings file.
type ProjectSettings struct {
	AppName             string `json:"appName" validate:"required"`
	ProjectID           string `json:"projectId" validate:"required,uuid"`
	Version             string `json:"version,omitempty"`
	ProgrammingLanguage string `json:"programmingLanguage,omitempty"`

	// Solution carries the legacy generation; Components the current one.
	Solution   *SolutionSettings `json:"solutionSettings,omitempty"`
	Components []Component       `json:"components,omitempty" validate:"dive"`
}

// SolutionSettings is the legacy description: a flat list of resource plugin
// names plus coarse capability labels.
type SolutionSettings struct {
	Name                  string   `json:"name,omitempty"`
	HostType              string   `json:"hostType,omitempty"`
	Capabilities          []string `json:"capabilities,omitempty"`
	ActiveResourcePlugins []string `json:"activeResourcePlugins,omitempty"`
}

// Component is one node of the current generation's graph.
type Component struct {
	Name        string   `json:"name" validate:"required,component_name"`
	Hosting     string   `json:"hosting,omitempty"`
	Provision   bool     `json:"provision,omitempty"`
	Build       bool     `json:"build,omitempty"`
	Deploy      bool     `json:"deploy,omitempty"`
	Connections []string `json:"connections,omitempty"`
	Scenario    string   `json:"scenario,omitempty"`
}

// Generation reports which shape is authoritative. A populated component list
// always wins; a file with neither list is an empty current-generation
// project.
func (s *ProjectSettings) Generation() Generation {
	if len(s.Components) > 0 || s.Solution == nil {
		return GenerationComponents
	}
	return GenerationLegacy
}

// ComponentByName returns the named component of the current generation.
func (s *ProjectSettings) ComponentByName(name string) (*Component, bool) {
	for i := range s.Components {
		if s.Components[i].Name == name {
			return &s.Components[i], true
		}
	}
	return nil, false
}

// ActiveComponents returns the names of components that participate in
// provisioning, in declaration order.
func (s *ProjectSettings) ActiveComponents() []string {
	var names []string
	for _, c := range s.Components {
		if c.Provision {
			names = append(names, c.Name)
		}
	}
	return names
}

var (
	settingsValidatorOnce sync.Once
	settingsValidator     *validator.Validate

	// Permissive on purpose: carried-through legacy plugin names become
	// component names and must stay valid.
	componentNamePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,63}$`)
)

func validatorInstance() *validator.Validate {
	settingsValidatorOnce.Do(func() {
		v := validator.New()

		_ = v.RegisterValidation("component_name", func(fl validator.FieldLevel) bool {
			return componentNamePattern.MatchString(fl.Field().String())
		})

		settingsValidator = v
	})

	return settingsValidator
}

// Validate checks structural constraints plus graph well-formedness: every
// hosting or connection target must exist and connections must be acyclic.
func (s *ProjectSettings) Validate() error {
	if err := validatorInstance().Struct(s); err != nil {
		return err
	}
	if s.Generation() != GenerationComponents {
		return nil
	}

	index := make(map[string]struct{}, len(s.Components))
	for _, c := range s.Components {
		if _, dup := index[c.Name]; dup {
			return fmt.Errorf("duplicate component %q", c.Name)
		}
		index[c.Name] = struct{}{}
	}

	edges := make(map[string][]string, len(s.Components))
	for _, c := range s.Components {
		if c.Hosting != "" {
			if _, ok := index[c.Hosting]; !ok {
				return fmt.Errorf("component %q hosts on unknown component %q", c.Name, c.Hosting)
			}
		}
		for _, target := range c.Connections {
			if _, ok := index[target]; !ok {
				return fmt.Errorf("component %q connects to unknown component %q", c.Name, target)
			}
			edges[c.Name] = append(edges[c.Name], target)
		}
	}

	return checkAcyclic(index, edges)
}

// checkAcyclic runs Kahn's algorithm over the connection edges; leftover
// nodes mean a cycle.
func checkAcyclic(index map[string]struct{}, edges map[string][]string) error {
	inDegree := make(map[string]int, len(index))
	for name := range index {
		inDegree[name] = 0
	}
	for _, targets := range edges {
		for _, t := range targets {
			inDegree[t]++
		}
	}

	queue := make([]string, 0, len(index))
	for name, deg := range inDegree {
		if deg == 0 {
			queue = append(queue, name)
		}
	}

	processed := 0
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		processed++
		for _, t := range edges[node] {
			inDegree[t]--
			if inDegree[t] == 0 {
				queue = append(queue, t)
			}
		}
	}

	if processed != len(index) {
		return fmt.Errorf("component connections contain a cycle")
	}
	return nil
}

// Path returns the settings file location inside a project.
func Path(projectPath string) string {
	return filepath.Join(projectPath, environment.MetaDir, settingsFile)
}

// Load reads and validates the project settings. A directory without a
// settings file is not a project.
func Load(projectPath string) (*ProjectSettings, error) {
	path := Path(projectPath)

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.NewInvalidProjectError(projectPath, err)
	}

	var s ProjectSettings
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, apperrors.NewInvalidProjectError(projectPath, err)
	}
	if err := s.Validate(); err != nil {
		return nil, apperrors.NewInvalidProjectError(projectPath, err)
	}

	return &s, nil
}

// Save persists the project settings atomically.
func Save(projectPath string, s *ProjectSettings) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal project settings: %w", err)
	}
	return environment.WriteFileAtomic(Path(projectPath), data)
}
