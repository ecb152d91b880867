package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/zjrosen/stackline/internal/backend"
	"github.com/zjrosen/stackline/internal/ipc"
	"github.com/zjrosen/stackline/internal/projects"
	"github.com/zjrosen/stackline/internal/sessions/application"
	"github.com/zjrosen/stackline/internal/sessions/domain"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List and record project sessions",
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the project's sessions",
	Args:  cobra.NoArgs,
	RunE:  runSessionsList,
}

var sessionsRecordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record or update a session",
	Args:  cobra.NoArgs,
	RunE:  runSessionsRecord,
}

var (
	sessionsProject string

	sessionsSince    time.Duration
	sessionsFollow   bool
	sessionsInterval time.Duration

	recordID     string
	recordStart  int64
	recordEnd    int64
	recordBranch string
	recordCommit string
)

func init() {
	sessionsCmd.PersistentFlags().StringVarP(&sessionsProject, "project", "p", "", "project id or name (default: project of the working directory)")

	sessionsListCmd.Flags().DurationVar(&sessionsSince, "since", 0, "only sessions started within this duration")
	sessionsListCmd.Flags().BoolVarP(&sessionsFollow, "follow", "f", false, "keep running and print the list again on every change")
	sessionsListCmd.Flags().DurationVar(&sessionsInterval, "interval", backend.DefaultFollowInterval, "how often --follow checks for changes")

	sessionsRecordCmd.Flags().StringVar(&recordID, "id", "", "session id (default: new uuid)")
	sessionsRecordCmd.Flags().Int64Var(&recordStart, "start", 0, "start timestamp in ms (default: now)")
	sessionsRecordCmd.Flags().Int64Var(&recordEnd, "end", 0, "last timestamp in ms (default: start)")
	sessionsRecordCmd.Flags().StringVar(&recordBranch, "branch", "", "branch the session was recorded on")
	sessionsRecordCmd.Flags().StringVar(&recordCommit, "commit", "", "commit the session was recorded on")

	sessionsCmd.AddCommand(sessionsListCmd, sessionsRecordCmd)
	rootCmd.AddCommand(sessionsCmd)
}

func runSessionsList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp()
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	p, err := a.resolveProject(ctx, sessionsProject)
	if err != nil {
		return err
	}
	svc := application.NewService(a.router, a.bus, a.cacheOptions())
	if sessionsFollow {
		return followSessions(ctx, cmd.OutOrStdout(), a, svc, p)
	}

	params := application.ListParams{ProjectID: p.ID}
	if sessionsSince > 0 {
		params.EarliestTimestampMs = time.Now().Add(-sessionsSince).UnixMilli()
	}
	list, err := svc.List(ctx, params)
	if err != nil {
		return err
	}
	renderSessions(cmd.OutOrStdout(), p.Name, list)
	return nil
}

// followSessions prints the live session list of p until ctx is done.
func followSessions(ctx context.Context, w io.Writer, a *app, svc *application.Service, p projects.Project) error {
	stores := application.NewStores(svc)
	defer stores.Close()
	st := stores.Get(p.ID)

	g, gctx := errgroup.WithContext(ctx)
	changes := st.Changes(gctx)
	if err := st.Load(gctx); err != nil {
		return err
	}

	g.Go(func() error {
		return a.backend.FollowSessions(gctx, p.ID, st.Sessions(), sessionsInterval)
	})
	g.Go(func() error {
		for ev := range changes {
			renderSessions(w, p.Name, sinceFilter(ev.Payload))
		}
		return nil
	})
	err := g.Wait()
	if ctx.Err() != nil {
		return nil
	}
	return err
}

// sinceFilter applies --since to a live snapshot.
func sinceFilter(list []domain.Session) []domain.Session {
	if sessionsSince <= 0 {
		return list
	}
	earliest := time.Now().Add(-sessionsSince).UnixMilli()
	out := make([]domain.Session, 0, len(list))
	for _, s := range list {
		if s.Meta.StartTimestampMs >= earliest {
			out = append(out, s)
		}
	}
	return out
}

func renderSessions(w io.Writer, project string, list []domain.Session) {
	heading(w, "Sessions in %s", project)
	if len(list) == 0 {
		_, _ = fmt.Fprintln(w, mutedStyle.Render("  (none)"))
		return
	}
	for _, s := range list {
		start := time.UnixMilli(s.Meta.StartTimestampMs).UTC().Format(time.RFC3339)
		dur := time.Duration(s.Meta.LastTimestampMs-s.Meta.StartTimestampMs) * time.Millisecond
		line := fmt.Sprintf("  %s  %s  %s", s.ID, start, dur)
		if s.Meta.Branch != "" {
			line += "  " + mutedStyle.Render(s.Meta.Branch)
		}
		_, _ = fmt.Fprintln(w, line)
	}
}

func runSessionsRecord(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp()
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	p, err := a.resolveProject(ctx, sessionsProject)
	if err != nil {
		return err
	}

	sess := domain.Session{
		ID: recordID,
		Meta: domain.Meta{
			StartTimestampMs: recordStart,
			LastTimestampMs:  recordEnd,
			Branch:           recordBranch,
			Commit:           recordCommit,
		},
	}
	if sess.ID == "" {
		sess.ID = uuid.NewString()
	}
	if sess.Meta.StartTimestampMs == 0 {
		sess.Meta.StartTimestampMs = time.Now().UnixMilli()
	}
	if sess.Meta.LastTimestampMs == 0 {
		sess.Meta.LastTimestampMs = sess.Meta.StartTimestampMs
	}

	saved, err := ipc.Call[domain.Session](ctx, a.router, ipc.CmdRecordSession, ipc.RecordSessionArgs{ProjectID: p.ID, Session: sess})
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Recorded session %s\n", saved.ID)
	return nil
}
