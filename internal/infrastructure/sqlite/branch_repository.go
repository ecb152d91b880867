package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/zjrosen/stackline/internal/log"
	stack "github.com/zjrosen/stackline/internal/stack/domain"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// branchRepository implements stack.BranchRepository using SQLite.
type branchRepository struct {
	db  *sql.DB
	now func() time.Time
}

func newBranchRepository(db *sql.DB) *branchRepository {
	return &branchRepository{db: db, now: time.Now}
}

var _ stack.BranchRepository = (*branchRepository)(nil)

// Save inserts or replaces the branch along with every series and patch.
func (r *branchRepository) Save(branch stack.VirtualBranch) error {
	if err := stack.ArrangementOf(branch).Validate(); err != nil {
		return err
	}
	return inTx(r.db, func(tx *sql.Tx) error {
		if _, err := tx.Exec(
			`INSERT INTO virtual_branches (id, project_id, name, updated_at) VALUES (?, ?, ?, ?)
			 ON CONFLICT (id) DO UPDATE SET project_id = excluded.project_id, name = excluded.name, updated_at = excluded.updated_at`,
			branch.ID, branch.ProjectID, branch.Name, r.now().Unix(),
		); err != nil {
			return fmt.Errorf("failed to save virtual branch: %w", err)
		}
		if _, err := tx.Exec(`DELETE FROM series WHERE branch_id = ?`, branch.ID); err != nil {
			return fmt.Errorf("failed to clear series: %w", err)
		}
		for pos, ps := range branch.Series {
			if _, err := tx.Exec(
				`INSERT INTO series (branch_id, position, name) VALUES (?, ?, ?)`,
				branch.ID, pos, ps.Name,
			); err != nil {
				return fmt.Errorf("failed to insert series %q: %w", ps.Name, err)
			}
		}
		return writePatches(tx, branch.ID, branch.Series)
	})
}

// FindByID returns BranchNotFoundError when no branch matches.
func (r *branchRepository) FindByID(branchID string) (stack.VirtualBranch, error) {
	return loadBranch(r.db, branchID)
}

// ListByProject returns the project's branches ordered by name.
func (r *branchRepository) ListByProject(projectID string) ([]stack.VirtualBranch, error) {
	rows, err := r.db.Query(`SELECT id FROM virtual_branches WHERE project_id = ? ORDER BY name, id`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list virtual branches: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("failed to scan virtual branch: %w", err)
		}
		ids = append(ids, id)
	}
	if err := errors.Join(rows.Err(), rows.Close()); err != nil {
		return nil, fmt.Errorf("failed to iterate virtual branches: %w", err)
	}

	out := make([]stack.VirtualBranch, 0, len(ids))
	for _, id := range ids {
		b, err := loadBranch(r.db, id)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

// ApplyOrder rewrites commit placement in one transaction. Subjects follow
// their commits to the new positions.
func (r *branchRepository) ApplyOrder(branchID string, order stack.Arrangement) (stack.VirtualBranch, error) {
	var updated stack.VirtualBranch
	err := inTx(r.db, func(tx *sql.Tx) error {
		current, err := loadBranch(tx, branchID)
		if err != nil {
			return err
		}
		if err := order.Validate(); err != nil {
			return fmt.Errorf("%w: %w", &stack.ArrangementMismatchError{BranchID: branchID}, err)
		}
		if !stack.ArrangementOf(current).SamePlacementSet(order) {
			return &stack.ArrangementMismatchError{BranchID: branchID}
		}

		subjects := make(map[stack.CommitID]string)
		for _, ps := range current.Series {
			for _, p := range ps.Patches {
				subjects[p.ID] = p.Subject
			}
		}
		next := current
		next.Series = make([]stack.PatchSeries, len(order.Series))
		for i, s := range order.Series {
			patches := make([]stack.Patch, 0, len(s.CommitIDs))
			for _, id := range s.CommitIDs {
				patches = append(patches, stack.Patch{ID: id, Subject: subjects[id]})
			}
			next.Series[i] = stack.PatchSeries{Name: s.Name, Patches: patches}
		}

		if err := writePatches(tx, branchID, next.Series); err != nil {
			return err
		}
		if _, err := tx.Exec(`UPDATE virtual_branches SET updated_at = ? WHERE id = ?`, r.now().Unix(), branchID); err != nil {
			return fmt.Errorf("failed to touch virtual branch: %w", err)
		}
		updated = next
		return nil
	})
	if err != nil {
		return stack.VirtualBranch{}, err
	}
	log.Debug(log.CatDB, "Applied stack order", "branch", branchID, "series", len(order.Series))
	return updated, nil
}

// writePatches replaces every patch row of the branch.
func writePatches(q querier, branchID string, series []stack.PatchSeries) error {
	if _, err := q.Exec(`DELETE FROM patches WHERE branch_id = ?`, branchID); err != nil {
		return fmt.Errorf("failed to clear patches: %w", err)
	}
	for _, ps := range series {
		for pos, p := range ps.Patches {
			if _, err := q.Exec(
				`INSERT INTO patches (branch_id, commit_id, series_name, position, subject) VALUES (?, ?, ?, ?, ?)`,
				branchID, p.ID, ps.Name, pos, p.Subject,
			); err != nil {
				return fmt.Errorf("failed to insert patch %q: %w", p.ID, err)
			}
		}
	}
	return nil
}

// loadBranch reads a branch with its series in stack order and patches
// newest first.
func loadBranch(q querier, branchID string) (stack.VirtualBranch, error) {
	b := stack.VirtualBranch{ID: branchID}
	err := q.QueryRow(`SELECT project_id, name FROM virtual_branches WHERE id = ?`, branchID).Scan(&b.ProjectID, &b.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return stack.VirtualBranch{}, &stack.BranchNotFoundError{BranchID: branchID}
	}
	if err != nil {
		return stack.VirtualBranch{}, fmt.Errorf("failed to find virtual branch: %w", err)
	}

	rows, err := q.Query(`SELECT name FROM series WHERE branch_id = ? ORDER BY position`, branchID)
	if err != nil {
		return stack.VirtualBranch{}, fmt.Errorf("failed to load series: %w", err)
	}
	index := make(map[string]int)
	b.Series = []stack.PatchSeries{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			_ = rows.Close()
			return stack.VirtualBranch{}, fmt.Errorf("failed to scan series: %w", err)
		}
		index[name] = len(b.Series)
		b.Series = append(b.Series, stack.PatchSeries{Name: name, Patches: []stack.Patch{}})
	}
	if err := errors.Join(rows.Err(), rows.Close()); err != nil {
		return stack.VirtualBranch{}, fmt.Errorf("failed to iterate series: %w", err)
	}

	rows, err = q.Query(
		`SELECT series_name, commit_id, subject FROM patches WHERE branch_id = ? ORDER BY series_name, position`,
		branchID,
	)
	if err != nil {
		return stack.VirtualBranch{}, fmt.Errorf("failed to load patches: %w", err)
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var seriesName string
		var p stack.Patch
		if err := rows.Scan(&seriesName, &p.ID, &p.Subject); err != nil {
			return stack.VirtualBranch{}, fmt.Errorf("failed to scan patch: %w", err)
		}
		i, ok := index[seriesName]
		if !ok {
			return stack.VirtualBranch{}, fmt.Errorf("patch %q references unknown series %q", p.ID, seriesName)
		}
		b.Series[i].Patches = append(b.Series[i].Patches, p)
	}
	if err := rows.Err(); err != nil {
		return stack.VirtualBranch{}, fmt.Errorf("failed to iterate patches: %w", err)
	}
	return b, nil
}
