package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/zjrosen/stackline/internal/forge"
	gitapp "github.com/zjrosen/stackline/internal/git/application"
	gitinfra "github.com/zjrosen/stackline/internal/git/infrastructure"
	"github.com/zjrosen/stackline/internal/ipc"
	"github.com/zjrosen/stackline/internal/projects"
)

var projectCmd = &cobra.Command{
	Use:     "project",
	Aliases: []string{"projects"},
	Short:   "Register and list projects",
}

var projectAddCmd = &cobra.Command{
	Use:   "add [PATH]",
	Short: "Register a working tree as a project",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runProjectAdd,
}

var projectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered projects",
	Args:  cobra.NoArgs,
	RunE:  runProjectList,
}

var projectShowCmd = &cobra.Command{
	Use:   "show [PROJECT]",
	Short: "Show a project's repository and forge links",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runProjectShow,
}

var projectName string

func init() {
	projectAddCmd.Flags().StringVarP(&projectName, "name", "n", "", "project name (default: directory name)")

	projectCmd.AddCommand(projectAddCmd, projectListCmd, projectShowCmd)
	rootCmd.AddCommand(projectCmd)
}

func runProjectAdd(cmd *cobra.Command, args []string) error {
	path := "."
	if len(args) == 1 {
		path = args[0]
	}
	a, err := openApp()
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	p, err := ipc.Call[projects.Project](cmd.Context(), a.router, ipc.CmdAddProject, ipc.AddProjectArgs{Path: path, Name: projectName})
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Added project %s (%s) at %s\n", p.Name, p.ID, p.Path)
	return nil
}

func runProjectList(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	all, err := ipc.Call[[]projects.Project](cmd.Context(), a.router, ipc.CmdListProjects, nil)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	heading(out, "Projects")
	if len(all) == 0 {
		_, _ = fmt.Fprintln(out, mutedStyle.Render("  (none)"))
	}
	for _, p := range all {
		_, _ = fmt.Fprintf(out, "  %s  %s  %s\n", p.ID, p.Name, mutedStyle.Render(p.Path))
	}
	return nil
}

func runProjectShow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	ref := ""
	if len(args) == 1 {
		ref = args[0]
	}
	a, err := openApp()
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	p, err := a.resolveProject(ctx, ref)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	heading(out, "%s", p.Name)
	field(out, "id", p.ID)
	field(out, "path", p.Path)

	state, err := gitapp.Inspect(ctx, gitinfra.NewRealExecutor(p.Path))
	if err != nil {
		field(out, "git", err.Error())
		return nil
	}
	branch := state.Branch
	if branch == "" {
		branch = "(detached)"
	}
	field(out, "branch", branch)
	field(out, "main", state.MainBranch)
	if state.RemoteURL == "" {
		field(out, "origin", "(none)")
		return nil
	}
	field(out, "origin", state.RemoteURL)

	info, ok, err := gitapp.DetectForge(state)
	if err != nil {
		return err
	}
	if !ok {
		field(out, "forge", "unknown")
		return nil
	}
	field(out, "forge", string(info.Name))

	host, ok := forge.NewGitHost(info.Name, info.Repo, state.MainBranch, "")
	if !ok {
		return nil
	}
	field(out, "web", host.WebURL())
	if state.Branch != "" && state.Branch != state.MainBranch {
		bh := host.Branch(state.Branch)
		field(out, "compare", bh.URL())
		field(out, "review", bh.CreateURL())
	}
	return nil
}

func field(w io.Writer, label, value string) {
	_, _ = fmt.Fprintf(w, "  %s %s\n", mutedStyle.Render(fmt.Sprintf("%-8s", label+":")), value)
}
