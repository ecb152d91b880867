package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zjrosen/stackline/internal/forge"
	gitapp "github.com/zjrosen/stackline/internal/git/application"
	gitinfra "github.com/zjrosen/stackline/internal/git/infrastructure"
	"github.com/zjrosen/stackline/internal/log"
	"github.com/zjrosen/stackline/internal/projects"
)

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "List and print the project's review templates",
}

var templatesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List review templates for a forge",
	Args:  cobra.NoArgs,
	RunE:  runTemplatesList,
}

var templatesShowCmd = &cobra.Command{
	Use:   "show PATH",
	Short: "Print a review template",
	Args:  cobra.ExactArgs(1),
	RunE:  runTemplatesShow,
}

var (
	templatesProject string
	templatesForge   string
)

func init() {
	templatesCmd.PersistentFlags().StringVarP(&templatesProject, "project", "p", "", "project id or name (default: project of the working directory)")
	templatesCmd.PersistentFlags().StringVar(&templatesForge, "forge", "", "github, gitlab, bitbucket or azure (default: detected from origin, else forge.default)")

	templatesCmd.AddCommand(templatesListCmd, templatesShowCmd)
	rootCmd.AddCommand(templatesCmd)
}

// selectedForge returns --forge, else the forge of the project's origin
// remote, else forge.default.
func selectedForge(ctx context.Context, p projects.Project) (forge.Name, error) {
	if templatesForge != "" {
		return forge.ParseName(templatesForge)
	}
	state, err := gitapp.Inspect(ctx, gitinfra.NewRealExecutor(p.Path))
	if err != nil {
		log.Debug(log.CatCLI, "Falling back to default forge", "project", p.ID, "error", err)
		return cfg.DefaultForge(), nil
	}
	if info, ok, _ := gitapp.DetectForge(state); ok {
		return info.Name, nil
	}
	return cfg.DefaultForge(), nil
}

func runTemplatesList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp()
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	p, err := a.resolveProject(ctx, templatesProject)
	if err != nil {
		return err
	}
	name, err := selectedForge(ctx, p)
	if err != nil {
		return err
	}
	svc := forge.NewService(a.router, a.bus, p.ID, a.cacheOptions())
	defer svc.Close()

	paths, err := svc.AvailableReviewTemplates(ctx, name)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	heading(out, "%s review templates in %s", name, p.Name)
	if len(paths) == 0 {
		_, _ = fmt.Fprintln(out, mutedStyle.Render("  (none)"))
	}
	for _, path := range paths {
		_, _ = fmt.Fprintf(out, "  %s\n", path)
	}
	return nil
}

func runTemplatesShow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp()
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	p, err := a.resolveProject(ctx, templatesProject)
	if err != nil {
		return err
	}
	name, err := selectedForge(ctx, p)
	if err != nil {
		return err
	}
	svc := forge.NewService(a.router, a.bus, p.ID, a.cacheOptions())
	defer svc.Close()

	contents, err := svc.ReviewTemplateContents(ctx, name, args[0])
	if err != nil {
		return err
	}
	_, _ = fmt.Fprint(cmd.OutOrStdout(), contents)
	return nil
}
