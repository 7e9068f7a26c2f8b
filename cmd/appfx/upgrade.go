package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/appfx/appfx/internal/environment"
	"github.com/appfx/appfx/internal/settings"
	"github.com/appfx/appfx/pkg/diff"
	apperrors "github.com/appfx/appfx/pkg/errors"
)

type upgradeOptions struct {
	rollback bool
}

func newUpgradeCmd(root *rootFlags) *cobra.Command {
	opts := upgradeOptions{}

	cmd := &cobra.Command{
		Use:   "upgrade",
		Short: "Migrate project settings to the component generation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.rollback {
				return runRollback(cmd.OutOrStdout(), root.projectDir)
			}
			return runUpgrade(cmd.OutOrStdout(), root.projectDir)
		},
	}

	cmd.Flags().BoolVar(&opts.rollback, "rollback", false, "Restore the pre-upgrade settings")

	return cmd
}

func backupPath(projectDir string) string {
	return settings.Path(projectDir) + ".bak"
}

func runUpgrade(out io.Writer, projectDir string) error {
	project, err := settings.Load(projectDir)
	if err != nil {
		return err
	}

	if project.Generation() == settings.GenerationComponents {
		fmt.Fprintln(out, "project already uses the component generation")
		return nil
	}

	raw, err := os.ReadFile(settings.Path(projectDir))
	if err != nil {
		return err
	}
	if err := environment.WriteFileAtomic(backupPath(projectDir), raw); err != nil {
		return err
	}

	upgraded := settings.Upgrade(project)
	if err := settings.Save(projectDir, upgraded); err != nil {
		return err
	}

	fmt.Fprintf(out, "settings upgraded to the component generation (%d components)\n", len(upgraded.Components))
	fmt.Fprintf(out, "backup written to %s\n", backupPath(projectDir))

	rewritten, err := os.ReadFile(settings.Path(projectDir))
	if err != nil {
		return err
	}
	if d := diff.Unified(raw, rewritten, "project.json (legacy)", "project.json (components)"); d != "" {
		fmt.Fprintln(out)
		fmt.Fprint(out, d)
	}
	return nil
}

// runRollback restores the pre-upgrade settings file when a backup exists;
// that exactly undoes the upgrade, including anything the lossy downgrade
// cannot reconstruct. Without a backup it falls back to Downgrade.
func runRollback(out io.Writer, projectDir string) error {
	project, err := settings.Load(projectDir)
	if err != nil {
		return err
	}

	raw, err := os.ReadFile(backupPath(projectDir))
	switch {
	case err == nil:
		var restored settings.ProjectSettings
		if err := json.Unmarshal(raw, &restored); err != nil {
			return apperrors.NewInvalidProjectError(projectDir, fmt.Errorf("settings backup is corrupt: %w", err))
		}
		if err := restored.Validate(); err != nil {
			return apperrors.NewInvalidProjectError(projectDir, fmt.Errorf("settings backup is invalid: %w", err))
		}
		if err := environment.WriteFileAtomic(settings.Path(projectDir), raw); err != nil {
			return err
		}
		if err := os.Remove(backupPath(projectDir)); err != nil {
			return err
		}
		fmt.Fprintln(out, "settings restored from backup")
		return nil

	case os.IsNotExist(err):
		if project.Generation() == settings.GenerationLegacy {
			return apperrors.New(apperrors.NameInvalidInput, apperrors.ClassUser,
				"nothing to roll back: project already uses the legacy generation")
		}
		if err := settings.Save(projectDir, settings.Downgrade(project)); err != nil {
			return err
		}
		fmt.Fprintln(out, "settings downgraded to the legacy generation (no backup found; downgrade is lossy)")
		return nil

	default:
		return err
	}
}
