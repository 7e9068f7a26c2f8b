package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/appfx/appfx/internal/engine"
	"github.com/appfx/appfx/internal/environment"
)

type provisionOptions struct {
	envName        string
	subscriptionID string
	resourceGroup  string
	dryRun         bool
}

func newProvisionCmd(root *rootFlags) *cobra.Command {
	opts := provisionOptions{}

	cmd := &cobra.Command{
		Use:   "provision",
		Short: "Provision cloud resources for an environment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProvision(cmd, root, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.envName, "env", "e", "dev", "Target environment")
	cmd.Flags().StringVar(&opts.subscriptionID, "subscription", "", "Subscription to provision into (overrides config and state)")
	cmd.Flags().StringVar(&opts.resourceGroup, "resource-group", "", "Resource group name (overrides the default)")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Preview the run without prompting or creating anything")

	return cmd
}

func runProvision(cmd *cobra.Command, root *rootFlags, opts provisionOptions) error {
	app, err := newAppContext(root)
	if err != nil {
		return err
	}

	env, err := environment.Load(app.dir, app.crypto, opts.envName)
	if err != nil {
		return err
	}

	interactive := term.IsTerminal(int(os.Stdout.Fd())) && !opts.dryRun

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	progress := newRunProgress("provision", opts.envName, interactive, cancel)
	eng := app.engine(cmd.OutOrStdout(), progress)

	runErr := eng.Provision(ctx, app.project, env, engine.Inputs{
		SubscriptionID:    opts.subscriptionID,
		ResourceGroupName: opts.resourceGroup,
		Interactive:       interactive,
		DryRun:            opts.dryRun,
	})

	if err := progress.finish(cmd.OutOrStdout(), runErr); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}
