package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func sample() Arrangement {
	return Arrangement{Series: []Series{
		{Name: "feature", CommitIDs: []CommitID{"c3", "c2", "c1"}},
		{Name: "base", CommitIDs: []CommitID{"c0"}},
	}}
}

func TestArrangementOf(t *testing.T) {
	branch := VirtualBranch{
		ID: "b1",
		Series: []PatchSeries{
			{Name: "feature", Patches: []Patch{{ID: "c3"}, {ID: "c2"}}},
			{Name: "empty"},
		},
	}

	arr := ArrangementOf(branch)

	require.Equal(t, []Series{
		{Name: "feature", CommitIDs: []CommitID{"c3", "c2"}},
		{Name: "empty", CommitIDs: []CommitID{}},
	}, arr.Series)
}

func TestArrangement_CloneIsDeep(t *testing.T) {
	arr := sample()
	clone := arr.Clone()
	clone.Series[0].CommitIDs[0] = "changed"

	require.Equal(t, "c3", arr.Series[0].CommitIDs[0])
}

func TestArrangement_FlattenAndLocate(t *testing.T) {
	arr := sample()

	require.Equal(t, []CommitID{"c3", "c2", "c1", "c0"}, arr.Flatten())

	si, pi := arr.Locate("c1")
	require.Equal(t, 0, si)
	require.Equal(t, 2, pi)

	si, pi = arr.Locate("nope")
	require.Equal(t, -1, si)
	require.Equal(t, -1, pi)

	require.True(t, arr.Contains("c0"))
	require.Equal(t, 1, arr.SeriesIndex("base"))
	require.Equal(t, -1, arr.SeriesIndex("missing"))
}

func TestArrangement_Validate(t *testing.T) {
	require.NoError(t, sample().Validate())

	dupCommit := Arrangement{Series: []Series{
		{Name: "a", CommitIDs: []CommitID{"x"}},
		{Name: "b", CommitIDs: []CommitID{"x"}},
	}}
	err := dupCommit.Validate()
	require.ErrorIs(t, err, ErrInvalidArrangement)
	var dce *DuplicateCommitError
	require.True(t, errors.As(err, &dce))
	require.Equal(t, []string{"a", "b"}, dce.Series)

	dupSeries := Arrangement{Series: []Series{{Name: "a"}, {Name: "a"}}}
	require.ErrorIs(t, dupSeries.Validate(), ErrInvalidArrangement)
}

func TestArrangement_SamePlacementSet(t *testing.T) {
	arr := sample()

	moved := Arrangement{Series: []Series{
		{Name: "feature", CommitIDs: []CommitID{"c1", "c3"}},
		{Name: "base", CommitIDs: []CommitID{"c2", "c0"}},
	}}
	require.True(t, arr.SamePlacementSet(moved))

	missing := Arrangement{Series: []Series{
		{Name: "feature", CommitIDs: []CommitID{"c1", "c3"}},
		{Name: "base", CommitIDs: []CommitID{"c0"}},
	}}
	require.False(t, arr.SamePlacementSet(missing))

	renamed := Arrangement{Series: []Series{
		{Name: "feature", CommitIDs: []CommitID{"c3", "c2", "c1"}},
		{Name: "main", CommitIDs: []CommitID{"c0"}},
	}}
	require.False(t, arr.SamePlacementSet(renamed))
}

func TestErrors_Classes(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		class    error
		expected string
	}{
		{
			name:     "commit not found",
			err:      &CommitNotFoundError{CommitID: "missing"},
			class:    ErrNotFound,
			expected: `commit not found in series: "missing"`,
		},
		{
			name:     "series not found",
			err:      &SeriesNotFoundError{Name: "feature"},
			class:    ErrNotFound,
			expected: `series not found: "feature"`,
		},
		{
			name:     "target outside series",
			err:      &TargetNotInSeriesError{Target: "c0", Series: "feature"},
			class:    ErrPrecondition,
			expected: `target commit "c0" does not belong to series "feature"`,
		},
		{
			name:     "self drop",
			err:      &SelfDropError{CommitID: "c1"},
			class:    ErrPrecondition,
			expected: `commit "c1" cannot be dropped after itself`,
		},
		{
			name:     "branch not found",
			err:      &BranchNotFoundError{BranchID: "b1"},
			class:    ErrNotFound,
			expected: `virtual branch not found: "b1"`,
		},
		{
			name:     "mismatch",
			err:      &ArrangementMismatchError{BranchID: "b1"},
			class:    ErrInvalidArrangement,
			expected: `stack order does not match commits of branch "b1"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, tt.err.Error())
			require.ErrorIs(t, tt.err, tt.class)
		})
	}
}
