package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/appfx/appfx/internal/environment"
)

type deployOptions struct {
	envName string
}

func newDeployCmd(root *rootFlags) *cobra.Command {
	opts := deployOptions{}

	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Deploy application code to provisioned resources",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDeploy(cmd, root, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.envName, "env", "e", "dev", "Target environment")

	return cmd
}

func runDeploy(cmd *cobra.Command, root *rootFlags, opts deployOptions) error {
	app, err := newAppContext(root)
	if err != nil {
		return err
	}

	env, err := environment.Load(app.dir, app.crypto, opts.envName)
	if err != nil {
		return err
	}

	interactive := term.IsTerminal(int(os.Stdout.Fd()))

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	progress := newRunProgress("deploy", opts.envName, interactive, cancel)
	eng := app.engine(cmd.OutOrStdout(), progress)

	runErr := eng.Deploy(ctx, app.project, env)

	if err := progress.finish(cmd.OutOrStdout(), runErr); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}
