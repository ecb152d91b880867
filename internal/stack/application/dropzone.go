package application

import (
	"context"
	"fmt"

	"github.com/zjrosen/stackline/internal/log"
	"github.com/zjrosen/stackline/internal/stack/domain"
)

// PayloadKind tags what a drag carries.
type PayloadKind int

// Drag payload kinds.
const (
	PayloadCommit PayloadKind = iota + 1
	PayloadFile
	PayloadHunk
)

func (k PayloadKind) String() string {
	switch k {
	case PayloadCommit:
		return "commit"
	case PayloadFile:
		return "file"
	case PayloadHunk:
		return "hunk"
	default:
		return fmt.Sprintf("PayloadKind(%d)", int(k))
	}
}

// DragPayload is the data attached to a drag. Exactly one of the typed
// fields is set, selected by Kind.
type DragPayload struct {
	Kind   PayloadKind
	Commit *CommitPayload
	File   *FilePayload
	Hunk   *HunkPayload
}

// CommitPayload is a dragged commit.
type CommitPayload struct {
	BranchID string
	CommitID domain.CommitID
}

// FilePayload is a dragged file change.
type FilePayload struct {
	BranchID string
	Path     string
}

// HunkPayload is a dragged hunk of a file change.
type HunkPayload struct {
	BranchID string
	Path     string
	HunkID   string
}

// NewCommitPayload builds a commit drag payload.
func NewCommitPayload(branchID string, commitID domain.CommitID) DragPayload {
	return DragPayload{Kind: PayloadCommit, Commit: &CommitPayload{BranchID: branchID, CommitID: commitID}}
}

// NewFilePayload builds a file drag payload.
func NewFilePayload(branchID, path string) DragPayload {
	return DragPayload{Kind: PayloadFile, File: &FilePayload{BranchID: branchID, Path: path}}
}

// DropZone is a drop target that reorders a commit within a stack: either
// at the top of a series or below a given commit.
type DropZone struct {
	controller    BranchController
	branchID      string
	currentSeries string
	arrangement   domain.Arrangement
	target        domain.CommitID
}

// Target returns the commit id the zone inserts below, or domain.TopTarget.
func (z *DropZone) Target() domain.CommitID { return z.target }

// Series returns the name of the series the zone drops into.
func (z *DropZone) Series() string { return z.currentSeries }

// Accepts reports whether the payload can be dropped here. Only commits of
// the same branch are accepted, and never onto their own position.
func (z *DropZone) Accepts(p DragPayload) bool {
	switch p.Kind {
	case PayloadCommit:
		if p.Commit == nil || p.Commit.BranchID != z.branchID {
			return false
		}
		if z.target == domain.TopTarget {
			return true
		}
		distance, err := ComputeDistance(z.arrangement, p.Commit.CommitID, z.target)
		if err != nil {
			log.Debug(log.CatStack, "Rejecting drop with unknown commit", "error", err)
			return false
		}
		return distance != 0
	default:
		return false
	}
}

// OnDrop reorders the dropped commit and submits the new arrangement to the
// branch controller. Payloads the zone does not accept are ignored.
func (z *DropZone) OnDrop(ctx context.Context, p DragPayload) error {
	if !z.Accepts(p) {
		return nil
	}

	order, err := Reorder(z.arrangement, z.currentSeries, p.Commit.CommitID, z.target)
	if err != nil {
		log.ErrorErr(log.CatStack, "Failed to compute stack order", err,
			"branch", z.branchID, "series", z.currentSeries, "actor", p.Commit.CommitID, "target", z.target)
		return fmt.Errorf("could not reorder: %w", err)
	}

	if err := z.controller.ReorderStackCommit(ctx, p.Commit.BranchID, order); err != nil {
		return fmt.Errorf("could not reorder: %w", err)
	}
	return nil
}

// DropZoneManager creates drop zones for one virtual branch.
type DropZoneManager struct {
	controller  BranchController
	branch      domain.VirtualBranch
	arrangement domain.Arrangement
}

// TopDropZone returns a zone that inserts at the top of the named series.
func (m *DropZoneManager) TopDropZone(seriesName string) (*DropZone, error) {
	return m.zone(seriesName, domain.TopTarget)
}

// DropZoneBelowCommit returns a zone that inserts immediately below commitID
// in the named series.
func (m *DropZoneManager) DropZoneBelowCommit(seriesName string, commitID domain.CommitID) (*DropZone, error) {
	return m.zone(seriesName, commitID)
}

func (m *DropZoneManager) zone(seriesName string, target domain.CommitID) (*DropZone, error) {
	if m.arrangement.SeriesIndex(seriesName) < 0 {
		return nil, &domain.SeriesNotFoundError{Name: seriesName}
	}
	return &DropZone{
		controller:    m.controller,
		branchID:      m.branch.ID,
		currentSeries: seriesName,
		arrangement:   m.arrangement,
		target:        target,
	}, nil
}

// DropZoneManagerFactory builds managers bound to a branch controller.
type DropZoneManagerFactory struct {
	controller BranchController
}

// NewDropZoneManagerFactory creates a factory.
func NewDropZoneManagerFactory(controller BranchController) *DropZoneManagerFactory {
	return &DropZoneManagerFactory{controller: controller}
}

// Build creates a manager for the branch. The arrangement is derived once
// from the branch as given.
func (f *DropZoneManagerFactory) Build(branch domain.VirtualBranch) *DropZoneManager {
	return &DropZoneManager{
		controller:  f.controller,
		branch:      branch,
		arrangement: domain.ArrangementOf(branch),
	}
}
