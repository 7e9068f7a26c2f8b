package main

import (
	"github.com/spf13/cobra"
)

type rootFlags struct {
	verbose    bool
	projectDir string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "appfx",
		Short:         "AppFx scaffolds, provisions, and deploys messaging-platform apps",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().StringVarP(&flags.projectDir, "project", "p", ".", "Project directory")

	cmd.AddCommand(newNewCmd(flags))
	cmd.AddCommand(newProvisionCmd(flags))
	cmd.AddCommand(newDeployCmd(flags))
	cmd.AddCommand(newEnvCmd(flags))
	cmd.AddCommand(newUpgradeCmd(flags))
	cmd.AddCommand(newVersionCmd())

	return cmd
}
