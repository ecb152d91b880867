package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Error classes. Typed errors below match one of these via errors.Is.
var (
	// ErrNotFound indicates a referenced commit or series is absent.
	ErrNotFound = errors.New("not found")

	// ErrPrecondition indicates a request that is well-formed but violates
	// a placement precondition.
	ErrPrecondition = errors.New("precondition violation")

	// ErrInvalidArrangement indicates an arrangement that breaks the
	// one-commit-one-position invariant.
	ErrInvalidArrangement = errors.New("invalid arrangement")
)

// CommitNotFoundError indicates that a commit id is not present in any series.
type CommitNotFoundError struct {
	CommitID CommitID
}

// Error implements the error interface.
func (e *CommitNotFoundError) Error() string {
	return fmt.Sprintf("commit not found in series: %q", e.CommitID)
}

// Is reports ErrNotFound.
func (e *CommitNotFoundError) Is(target error) bool { return target == ErrNotFound }

// SeriesNotFoundError indicates that no series has the given name.
type SeriesNotFoundError struct {
	Name string
}

// Error implements the error interface.
func (e *SeriesNotFoundError) Error() string {
	return fmt.Sprintf("series not found: %q", e.Name)
}

// Is reports ErrNotFound.
func (e *SeriesNotFoundError) Is(target error) bool { return target == ErrNotFound }

// TargetNotInSeriesError indicates an "insert after" target that does not
// belong to the series the commit is being dropped into.
type TargetNotInSeriesError struct {
	Target CommitID
	Series string
}

// Error implements the error interface.
func (e *TargetNotInSeriesError) Error() string {
	return fmt.Sprintf("target commit %q does not belong to series %q", e.Target, e.Series)
}

// Is reports ErrPrecondition.
func (e *TargetNotInSeriesError) Is(target error) bool { return target == ErrPrecondition }

// SelfDropError indicates a commit dropped immediately after itself.
type SelfDropError struct {
	CommitID CommitID
}

// Error implements the error interface.
func (e *SelfDropError) Error() string {
	return fmt.Sprintf("commit %q cannot be dropped after itself", e.CommitID)
}

// Is reports ErrPrecondition.
func (e *SelfDropError) Is(target error) bool { return target == ErrPrecondition }

// DuplicateCommitError indicates a commit placed more than once.
type DuplicateCommitError struct {
	CommitID CommitID
	Series   []string
}

// Error implements the error interface.
func (e *DuplicateCommitError) Error() string {
	return fmt.Sprintf("commit %q appears more than once (series: %s)", e.CommitID, strings.Join(e.Series, ", "))
}

// Is reports ErrInvalidArrangement.
func (e *DuplicateCommitError) Is(target error) bool { return target == ErrInvalidArrangement }

// DuplicateSeriesError indicates two series sharing a name.
type DuplicateSeriesError struct {
	Name string
}

// Error implements the error interface.
func (e *DuplicateSeriesError) Error() string {
	return fmt.Sprintf("series %q appears more than once", e.Name)
}

// Is reports ErrInvalidArrangement.
func (e *DuplicateSeriesError) Is(target error) bool { return target == ErrInvalidArrangement }

// ArrangementMismatchError indicates a submitted order that is not a
// permutation of the branch's current commits.
type ArrangementMismatchError struct {
	BranchID string
}

// Error implements the error interface.
func (e *ArrangementMismatchError) Error() string {
	return fmt.Sprintf("stack order does not match commits of branch %q", e.BranchID)
}

// Is reports ErrInvalidArrangement.
func (e *ArrangementMismatchError) Is(target error) bool { return target == ErrInvalidArrangement }

// BranchNotFoundError indicates an unknown virtual branch.
type BranchNotFoundError struct {
	BranchID string
}

// Error implements the error interface.
func (e *BranchNotFoundError) Error() string {
	return fmt.Sprintf("virtual branch not found: %q", e.BranchID)
}

// Is reports ErrNotFound.
func (e *BranchNotFoundError) Is(target error) bool { return target == ErrNotFound }
