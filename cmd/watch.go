package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zjrosen/stackline/internal/events"
	"github.com/zjrosen/stackline/internal/ipc"
	"github.com/zjrosen/stackline/internal/log"
	"github.com/zjrosen/stackline/internal/projects"
	"github.com/zjrosen/stackline/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Report review template changes until interrupted",
	Long: `Watch the review template locations of every registered project (or the
one named with --project) and print each debounced change.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

var watchProject string

func init() {
	watchCmd.Flags().StringVarP(&watchProject, "project", "p", "", "only watch this project id or name")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if !cfg.Watch.Enabled {
		return fmt.Errorf("watching is disabled (watch.enabled is false)")
	}
	ctx := cmd.Context()
	a, err := openApp()
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	var targets []projects.Project
	if watchProject != "" {
		p, err := a.resolveProject(ctx, watchProject)
		if err != nil {
			return err
		}
		targets = append(targets, p)
	} else if targets, err = ipc.Call[[]projects.Project](ctx, a.router, ipc.CmdListProjects, nil); err != nil {
		return err
	}
	if len(targets) == 0 {
		return fmt.Errorf("no projects registered (use 'stackline project add')")
	}

	w, err := watcher.New(a.bus, watcher.Options{Debounce: cfg.Watch.Debounce})
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()

	out := cmd.OutOrStdout()
	for _, p := range targets {
		if err := w.Add(p.ID, p.Path); err != nil {
			return err
		}
		name := p.Name
		unsubscribe := events.Listen(a.bus, events.Topic(p.ID, events.KindReviewTemplates), func(ev watcher.ChangeEvent) {
			_, _ = fmt.Fprintf(out, "%s: %s\n", headingStyle.Render(name), strings.Join(ev.Paths, ", "))
		})
		defer unsubscribe()
		heading(out, "Watching %s", p.Path)
	}

	log.Info(log.CatWatch, "Watching review templates", "projects", len(targets))
	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
