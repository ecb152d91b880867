package application

import (
	"fmt"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/zjrosen/stackline/internal/stack/domain"
)

func exampleArrangement() domain.Arrangement {
	return domain.Arrangement{Series: []domain.Series{
		{Name: "feature", CommitIDs: []domain.CommitID{"c3", "c2", "c1"}},
		{Name: "base", CommitIDs: []domain.CommitID{"c0"}},
	}}
}

func TestReorder_TopOfSeries(t *testing.T) {
	got, err := Reorder(exampleArrangement(), "feature", "c1", domain.TopTarget)
	require.NoError(t, err)
	require.Equal(t, []domain.Series{
		{Name: "feature", CommitIDs: []domain.CommitID{"c1", "c3", "c2"}},
		{Name: "base", CommitIDs: []domain.CommitID{"c0"}},
	}, got.Series)
}

func TestReorder_AfterTarget(t *testing.T) {
	got, err := Reorder(exampleArrangement(), "feature", "c1", "c3")
	require.NoError(t, err)
	require.Equal(t, []domain.Series{
		{Name: "feature", CommitIDs: []domain.CommitID{"c3", "c1", "c2"}},
		{Name: "base", CommitIDs: []domain.CommitID{"c0"}},
	}, got.Series)
}

func TestReorder_MissingActor(t *testing.T) {
	arr := exampleArrangement()

	_, err := Reorder(arr, "feature", "missing", "c3")

	require.ErrorIs(t, err, domain.ErrNotFound)
	require.Contains(t, err.Error(), "commit not found in series")
	require.Equal(t, exampleArrangement(), arr, "input must not be mutated")
}

func TestReorder_MissingTarget(t *testing.T) {
	_, err := Reorder(exampleArrangement(), "feature", "c1", "missing")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestReorder_MissingActorWithTopTarget(t *testing.T) {
	_, err := Reorder(exampleArrangement(), "feature", "missing", domain.TopTarget)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestReorder_UnknownSeries(t *testing.T) {
	_, err := Reorder(exampleArrangement(), "nope", "c1", domain.TopTarget)
	var snf *domain.SeriesNotFoundError
	require.ErrorAs(t, err, &snf)
	require.Equal(t, "nope", snf.Name)
}

func TestReorder_AfterItself(t *testing.T) {
	arr := exampleArrangement()

	_, err := Reorder(arr, "feature", "c1", "c1")

	var self *domain.SelfDropError
	require.ErrorAs(t, err, &self)
	require.Equal(t, domain.CommitID("c1"), self.CommitID)
	require.ErrorIs(t, err, domain.ErrPrecondition)
	require.NotErrorAs(t, err, new(*domain.TargetNotInSeriesError))
	require.Equal(t, exampleArrangement(), arr)
}

func TestReorder_TargetInOtherSeriesFailsFast(t *testing.T) {
	arr := exampleArrangement()

	_, err := Reorder(arr, "feature", "c1", "c0")

	require.ErrorIs(t, err, domain.ErrPrecondition)
	require.Equal(t, exampleArrangement(), arr)
}

func TestReorder_CrossSeriesMove(t *testing.T) {
	got, err := Reorder(exampleArrangement(), "base", "c2", "c0")
	require.NoError(t, err)
	require.Equal(t, []domain.Series{
		{Name: "feature", CommitIDs: []domain.CommitID{"c3", "c1"}},
		{Name: "base", CommitIDs: []domain.CommitID{"c0", "c2"}},
	}, got.Series)
}

func TestReorder_IntoEmptySeries(t *testing.T) {
	arr := domain.Arrangement{Series: []domain.Series{
		{Name: "top", CommitIDs: []domain.CommitID{}},
		{Name: "bottom", CommitIDs: []domain.CommitID{"a", "b"}},
	}}

	got, err := Reorder(arr, "top", "b", domain.TopTarget)
	require.NoError(t, err)
	require.Equal(t, []domain.CommitID{"b"}, got.Series[0].CommitIDs)
	require.Equal(t, []domain.CommitID{"a"}, got.Series[1].CommitIDs)
}

func TestComputeDistance(t *testing.T) {
	arr := exampleArrangement()

	tests := []struct {
		name   string
		actor  domain.CommitID
		target domain.CommitID
		want   int
	}{
		{name: "self", actor: "c2", target: "c2", want: 0},
		{name: "below", actor: "c1", target: "c3", want: 2},
		{name: "above", actor: "c3", target: "c1", want: -2},
		{name: "across series", actor: "c0", target: "c3", want: 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ComputeDistance(arr, tt.actor, tt.target)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestComputeDistance_MissingIDs(t *testing.T) {
	arr := exampleArrangement()

	_, err := ComputeDistance(arr, "missing", "c3")
	require.ErrorIs(t, err, domain.ErrNotFound)

	_, err = ComputeDistance(arr, "c3", "missing")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

// ============================================================================
// Property-Based Tests
// ============================================================================

// genArrangement draws an arrangement of 1-4 series holding 1-12 unique commits.
func genArrangement(t *rapid.T) domain.Arrangement {
	numSeries := rapid.IntRange(1, 4).Draw(t, "numSeries")
	numCommits := rapid.IntRange(1, 12).Draw(t, "numCommits")

	arr := domain.Arrangement{Series: make([]domain.Series, numSeries)}
	for i := range arr.Series {
		arr.Series[i] = domain.Series{Name: fmt.Sprintf("series-%d", i), CommitIDs: []domain.CommitID{}}
	}
	for i := 0; i < numCommits; i++ {
		si := rapid.IntRange(0, numSeries-1).Draw(t, fmt.Sprintf("seriesOf-%d", i))
		arr.Series[si].CommitIDs = append(arr.Series[si].CommitIDs, fmt.Sprintf("c%d", i))
	}
	return arr
}

func sortedCommits(arr domain.Arrangement) []domain.CommitID {
	flat := arr.Flatten()
	slices.Sort(flat)
	return flat
}

// TestProperty_ReorderPreservesCommits verifies every successful reorder keeps
// the multiset of commit ids and the uniqueness invariant.
func TestProperty_ReorderPreservesCommits(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		arr := genArrangement(t)
		flat := arr.Flatten()

		actor := rapid.SampledFrom(flat).Draw(t, "actor")
		dest := rapid.SampledFrom(arr.Series).Draw(t, "dest").Name
		target := domain.TopTarget
		if candidates := arr.Series[arr.SeriesIndex(dest)].CommitIDs; len(candidates) > 0 && rapid.Bool().Draw(t, "afterCommit") {
			target = rapid.SampledFrom(candidates).Draw(t, "target")
		}

		before := arr.Clone()
		got, err := Reorder(arr, dest, actor, target)
		require.Equal(t, before, arr, "input must not be mutated")
		if err != nil {
			// Only dropping after itself can fail once target is in dest.
			require.Equal(t, actor, target)
			require.ErrorIs(t, err, domain.ErrPrecondition)
			return
		}

		require.NoError(t, got.Validate())
		require.Equal(t, sortedCommits(arr), sortedCommits(got))
		require.Len(t, got.Series, len(arr.Series))
	})
}

// TestProperty_TopInsertion verifies "top" always puts the actor at index 0.
func TestProperty_TopInsertion(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		arr := genArrangement(t)
		actor := rapid.SampledFrom(arr.Flatten()).Draw(t, "actor")
		dest := rapid.SampledFrom(arr.Series).Draw(t, "dest").Name

		got, err := Reorder(arr, dest, actor, domain.TopTarget)
		require.NoError(t, err)
		require.Equal(t, actor, got.Series[got.SeriesIndex(dest)].CommitIDs[0])
	})
}

// TestProperty_CrossSeriesMoveKeepsSourceOrder verifies that the source series
// loses only the actor and keeps the relative order of everything else.
func TestProperty_CrossSeriesMoveKeepsSourceOrder(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		arr := genArrangement(t)
		actor := rapid.SampledFrom(arr.Flatten()).Draw(t, "actor")
		dest := rapid.SampledFrom(arr.Series).Draw(t, "dest").Name
		srcIdx, _ := arr.Locate(actor)

		got, err := Reorder(arr, dest, actor, domain.TopTarget)
		require.NoError(t, err)

		if arr.Series[srcIdx].Name == dest {
			return
		}
		want := slices.DeleteFunc(slices.Clone(arr.Series[srcIdx].CommitIDs), func(id domain.CommitID) bool {
			return id == actor
		})
		require.Equal(t, want, got.Series[srcIdx].CommitIDs)
		require.NotContains(t, got.Series[srcIdx].CommitIDs, actor)
	})
}
