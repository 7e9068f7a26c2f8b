package scaffold

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	apperrors "github.com/appfx/appfx/pkg/errors"
)

// DescriptorFile is the manifest every template repository carries at its
// root. It names the template, declares which capabilities its source serves,
// and optionally narrows the copy to an explicit file list.
const DescriptorFile = "template.yaml"

// Descriptor is the parsed template manifest.
type Descriptor struct {
	Name         string   `yaml:"name" validate:"required"`
	Language     string   `yaml:"language,omitempty" validate:"omitempty,oneof=javascript typescript csharp"`
	Capabilities []string `yaml:"capabilities" validate:"required,min=1,dive,oneof=tab bot api"`

	// Files lists repo-relative paths to copy. Empty means the whole tree
	// minus git metadata and the descriptor itself.
	Files []string `yaml:"files,omitempty" validate:"omitempty,dive,template_path"`
}

var (
	scaffoldValidatorOnce sync.Once
	scaffoldValidator     *validator.Validate
)

func validatorInstance() *validator.Validate {
	scaffoldValidatorOnce.Do(func() {
		v := validator.New()

		// Descriptor paths are forward-slash and must stay inside the
		// template root.
		_ = v.RegisterValidation("template_path", func(fl validator.FieldLevel) bool {
			return templatePathOK(fl.Field().String())
		})

		scaffoldValidator = v
	})

	return scaffoldValidator
}

func templatePathOK(p string) bool {
	if p == "" || strings.HasPrefix(p, "/") || filepath.IsAbs(p) {
		return false
	}
	clean := path.Clean(p)
	return clean != "." && clean != ".." && !strings.HasPrefix(clean, "../")
}

// ParseDescriptor reads and validates the manifest at the root of a fetched
// template directory.
func ParseDescriptor(templateDir string) (*Descriptor, error) {
	manifest := filepath.Join(templateDir, DescriptorFile)

	raw, err := os.ReadFile(manifest)
	if err != nil {
		return nil, apperrors.NewInvalidTemplateError(manifest, err)
	}

	var d Descriptor
	if err := yaml.Unmarshal(raw, &d); err != nil {
		return nil, apperrors.NewInvalidTemplateError(manifest, err)
	}
	if err := d.Validate(); err != nil {
		return nil, apperrors.NewInvalidTemplateError(manifest, err)
	}

	return &d, nil
}

// Validate checks the descriptor's structural constraints.
func (d *Descriptor) Validate() error {
	return validatorInstance().Struct(d)
}

// Serves reports whether the template provides source for a capability.
func (d *Descriptor) Serves(capability string) bool {
	for _, c := range d.Capabilities {
		if c == capability {
			return true
		}
	}
	return false
}

// serveCheck returns an error naming the first requested capability the
// template cannot provide.
func (d *Descriptor) serveCheck(capabilities []string) error {
	for _, c := range capabilities {
		if !d.Serves(c) {
			return apperrors.NewInvalidTemplateError(d.Name,
				fmt.Errorf("template serves %s, not %q", strings.Join(d.Capabilities, ", "), c))
		}
	}
	return nil
}
