package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/appfx/appfx/internal/logger"
	"github.com/appfx/appfx/internal/scaffold"
)

type newOptions struct {
	appName      string
	language     string
	capabilities []string
	templateURL  string
	templateRef  string
	verbose      bool
}

func newNewCmd(root *rootFlags) *cobra.Command {
	opts := newOptions{}

	cmd := &cobra.Command{
		Use:   "new [directory]",
		Short: "Scaffold a project",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.verbose = root.verbose

			dir := projectDirName(opts.appName)
			if len(args) == 1 {
				dir = args[0]
			}

			return runNew(cmd, dir, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.appName, "app-name", "n", "", "Application name")
	cmd.MarkFlagRequired("app-name") //nolint:errcheck
	cmd.Flags().StringSliceVarP(&opts.capabilities, "capabilities", "c", []string{scaffold.CapabilityTab}, "Capabilities to scaffold: tab, bot, api")
	cmd.Flags().StringVarP(&opts.language, "language", "l", "javascript", "Programming language: javascript, typescript, csharp")
	cmd.Flags().StringVar(&opts.templateURL, "template-url", "", "Template repository to copy starter source from (git URL or path)")
	cmd.Flags().StringVar(&opts.templateRef, "template-ref", "", "Template tag or branch")

	return cmd
}

func runNew(cmd *cobra.Command, dir string, opts newOptions) error {
	level := "info"
	if opts.verbose {
		level = "debug"
	}
	log, err := logger.New(logger.Options{Level: level, HumanReadable: true})
	if err != nil {
		return err
	}

	project, err := scaffold.New(cmd.Context(), scaffold.Options{
		ProjectPath:  dir,
		AppName:      opts.appName,
		Language:     opts.language,
		Capabilities: opts.capabilities,
		TemplateURL:  opts.templateURL,
		TemplateRef:  opts.templateRef,
	}, log)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created %q in %s\n", project.AppName, dir)
	fmt.Fprintf(out, "  components:   %s\n", strings.Join(project.ActiveComponents(), ", "))
	fmt.Fprintf(out, "  environments: %s\n", strings.Join(scaffold.DefaultEnvs, ", "))
	return nil
}

// projectDirName derives a directory name from the app name when the
// operator does not pass one.
func projectDirName(appName string) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		case r == ' ':
			return '-'
		default:
			return -1
		}
	}, strings.ToLower(strings.TrimSpace(appName)))

	if name == "" {
		return "app"
	}
	return name
}
