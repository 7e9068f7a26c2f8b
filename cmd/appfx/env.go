package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/appfx/appfx/internal/environment"
	"github.com/appfx/appfx/internal/settings"
)

func newEnvCmd(root *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "env",
		Short: "Manage project environments",
	}

	cmd.AddCommand(newEnvListCmd(root))
	cmd.AddCommand(newEnvAddCmd(root))

	return cmd
}

func newEnvListCmd(root *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the project's environments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := settings.Load(root.projectDir); err != nil {
				return err
			}

			envs, err := environment.ListEnvs(root.projectDir)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(envs) == 0 {
				fmt.Fprintln(out, "no environments found")
				return nil
			}
			for _, env := range envs {
				fmt.Fprintln(out, env)
			}
			return nil
		},
	}
}

type envAddOptions struct {
	copyFrom string
}

func newEnvAddCmd(root *rootFlags) *cobra.Command {
	opts := envAddOptions{}

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Create an environment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEnvAdd(cmd, root, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.copyFrom, "copy-from", "", "Copy configuration from an existing environment")

	return cmd
}

func runEnvAdd(cmd *cobra.Command, root *rootFlags, name string, opts envAddOptions) error {
	project, err := settings.Load(root.projectDir)
	if err != nil {
		return err
	}

	cfg := environment.Config{}
	if opts.copyFrom != "" {
		crypto := environment.NewLocalCrypto(project.ProjectID)
		source, err := environment.Load(root.projectDir, crypto, opts.copyFrom)
		if err != nil {
			return err
		}

		cfg = source.Config
		if cfg.Azure != nil {
			// The suffix names concrete resources; a new environment
			// mints its own on first provision.
			azure := *cfg.Azure
			azure.ResourceNameSuffix = ""
			cfg.Azure = &azure
		}
	}

	if err := environment.CreateEnv(root.projectDir, name, cfg); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "environment %q created\n", name)
	return nil
}
