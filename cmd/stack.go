package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zjrosen/stackline/internal/stack/application"
	"github.com/zjrosen/stackline/internal/stack/domain"
	"github.com/zjrosen/stackline/internal/stack/infrastructure"
)

var stackCmd = &cobra.Command{
	Use:   "stack",
	Short: "Show, import and reorder virtual branches",
}

var stackShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the project's virtual branches",
	Args:  cobra.NoArgs,
	RunE:  runStackShow,
}

var stackImportCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Import virtual branches from a YAML file",
	Long: `Import virtual branches from a YAML file ("-" reads stdin).

  branches:
    - name: feature
      series:
        - name: api
          patches:
            - id: 3f2a9c1
              subject: Add endpoint`,
	Args: cobra.ExactArgs(1),
	RunE: runStackImport,
}

var stackReorderCmd = &cobra.Command{
	Use:   "reorder",
	Short: "Move a commit to the top of a series or below another commit",
	Example: `  stackline stack reorder --branch b1 --series api --actor 3f2a9c1 --target top
  stackline stack reorder --branch b1 --series api --actor 3f2a9c1 --target 9e01b7d --dry-run`,
	Args: cobra.NoArgs,
	RunE: runStackReorder,
}

var (
	stackProject string
	stackBranch  string

	reorderSeries string
	reorderActor  string
	reorderTarget string
	reorderDryRun bool
)

func init() {
	stackCmd.PersistentFlags().StringVarP(&stackProject, "project", "p", "", "project id or name (default: project of the working directory)")
	stackShowCmd.Flags().StringVarP(&stackBranch, "branch", "b", "", "only show this branch")

	stackReorderCmd.Flags().StringVarP(&stackBranch, "branch", "b", "", "virtual branch id")
	stackReorderCmd.Flags().StringVarP(&reorderSeries, "series", "s", "", "series receiving the commit")
	stackReorderCmd.Flags().StringVar(&reorderActor, "actor", "", "commit being moved")
	stackReorderCmd.Flags().StringVar(&reorderTarget, "target", domain.TopTarget, `commit to insert below, or "top"`)
	stackReorderCmd.Flags().BoolVar(&reorderDryRun, "dry-run", false, "print the new order without saving it")
	_ = stackReorderCmd.MarkFlagRequired("branch")
	_ = stackReorderCmd.MarkFlagRequired("series")
	_ = stackReorderCmd.MarkFlagRequired("actor")

	stackCmd.AddCommand(stackShowCmd, stackImportCmd, stackReorderCmd)
	rootCmd.AddCommand(stackCmd)
}

func runStackShow(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	p, err := a.resolveProject(cmd.Context(), stackProject)
	if err != nil {
		return err
	}
	ctrl := infrastructure.NewController(a.router, p.ID)

	var branches []domain.VirtualBranch
	if stackBranch != "" {
		b, err := ctrl.FindBranch(cmd.Context(), stackBranch)
		if err != nil {
			return err
		}
		branches = append(branches, b)
	} else if branches, err = ctrl.ListVirtualBranches(cmd.Context()); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(branches) == 0 {
		_, _ = fmt.Fprintf(out, "No virtual branches in %s\n", p.Name)
		return nil
	}
	for _, b := range branches {
		renderBranch(out, b)
	}
	return nil
}

func runStackImport(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	p, err := a.resolveProject(cmd.Context(), stackProject)
	if err != nil {
		return err
	}

	in := cmd.InOrStdin()
	if args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("opening %s: %w", args[0], err)
		}
		defer func() { _ = f.Close() }()
		in = f
	}

	imported, err := a.backend.ImportBranches(p.ID, in)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, b := range imported {
		_, _ = fmt.Fprintf(out, "Imported %s (%s)\n", b.Name, b.ID)
	}
	return nil
}

func runStackReorder(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp()
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	p, err := a.resolveProject(ctx, stackProject)
	if err != nil {
		return err
	}
	ctrl := infrastructure.NewController(a.router, p.ID)
	branch, err := ctrl.FindBranch(ctx, stackBranch)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if reorderActor == reorderTarget {
		_, _ = fmt.Fprintf(out, "%s is already in place\n", reorderActor)
		return nil
	}

	before := domain.ArrangementOf(branch)
	after, err := application.Reorder(before, reorderSeries, reorderActor, reorderTarget)
	if err != nil {
		return err
	}
	if reorderDryRun {
		renderOrderDiff(out, before, after)
		return nil
	}

	manager := application.NewDropZoneManagerFactory(ctrl).Build(branch)
	var zone *application.DropZone
	if reorderTarget == domain.TopTarget {
		zone, err = manager.TopDropZone(reorderSeries)
	} else {
		zone, err = manager.DropZoneBelowCommit(reorderSeries, reorderTarget)
	}
	if err != nil {
		return err
	}

	payload := application.NewCommitPayload(branch.ID, reorderActor)
	if !zone.Accepts(payload) {
		return fmt.Errorf("commit %s cannot be dropped below %s", reorderActor, reorderTarget)
	}
	if err := zone.OnDrop(ctx, payload); err != nil {
		return err
	}

	updated, err := ctrl.FindBranch(ctx, branch.ID)
	if err != nil {
		return err
	}
	renderBranch(out, updated)
	return nil
}
