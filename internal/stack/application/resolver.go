// Package application computes new commit arrangements for stacked branches
// and gates drag-and-drop moves before they reach the branch controller.
package application

import (
	"slices"

	"github.com/zjrosen/stackline/internal/log"
	"github.com/zjrosen/stackline/internal/stack/domain"
)

// ComputeDistance returns indexOf(actor) - indexOf(target) over the
// arrangement flattened in stack order. A zero distance means the actor would
// land on its own position. Missing ids return CommitNotFoundError rather than
// a distance computed from -1 indices.
func ComputeDistance(arr domain.Arrangement, actor, target domain.CommitID) (int, error) {
	flat := arr.Flatten()
	ai := slices.Index(flat, actor)
	if ai < 0 {
		return 0, &domain.CommitNotFoundError{CommitID: actor}
	}
	ti := slices.Index(flat, target)
	if ti < 0 {
		return 0, &domain.CommitNotFoundError{CommitID: target}
	}
	return ai - ti, nil
}

// Reorder moves actor into currentSeries, either to the top (target ==
// domain.TopTarget) or immediately after target. The actor is removed from
// whichever series holds it, so moves across series are supported.
//
// The input is never modified. On error the zero Arrangement is returned.
func Reorder(arr domain.Arrangement, currentSeries string, actor, target domain.CommitID) (domain.Arrangement, error) {
	if !arr.Contains(actor) {
		return domain.Arrangement{}, &domain.CommitNotFoundError{CommitID: actor}
	}
	if target != domain.TopTarget && !arr.Contains(target) {
		return domain.Arrangement{}, &domain.CommitNotFoundError{CommitID: target}
	}
	if arr.SeriesIndex(currentSeries) < 0 {
		return domain.Arrangement{}, &domain.SeriesNotFoundError{Name: currentSeries}
	}
	if actor == target {
		return domain.Arrangement{}, &domain.SelfDropError{CommitID: actor}
	}

	out := arr.Clone()
	si, pi := out.Locate(actor)
	out.Series[si].CommitIDs = slices.Delete(out.Series[si].CommitIDs, pi, pi+1)

	dest := &out.Series[out.SeriesIndex(currentSeries)]
	if target == domain.TopTarget {
		dest.CommitIDs = slices.Insert(dest.CommitIDs, 0, actor)
	} else {
		ti := slices.Index(dest.CommitIDs, target)
		if ti < 0 {
			return domain.Arrangement{}, &domain.TargetNotInSeriesError{Target: target, Series: currentSeries}
		}
		dest.CommitIDs = slices.Insert(dest.CommitIDs, ti+1, actor)
	}

	log.Debug(log.CatStack, "Computed stack order", "series", currentSeries, "actor", actor, "target", target)
	return out, nil
}
