// Package domain provides the types for stacked branches: commits grouped
// into series, and the arrangement of every commit across a stack.
package domain

// TopTarget is the drop target meaning "insert at the top of the series".
const TopTarget = "top"

// CommitID is an opaque, unique commit identifier.
type CommitID = string

// Series is one stacked branch segment. CommitIDs[0] is the newest commit.
type Series struct {
	Name      string     `json:"name" yaml:"name"`
	CommitIDs []CommitID `json:"commitIds" yaml:"commit_ids"`
}

// Arrangement assigns every commit in a stack to a series and position.
// Series keep stack order, which is the order used when flattening.
type Arrangement struct {
	Series []Series `json:"series" yaml:"series"`
}

// Patch is a single commit in a patch series.
type Patch struct {
	ID      CommitID `json:"id" yaml:"id"`
	Subject string   `json:"subject,omitempty" yaml:"subject,omitempty"`
}

// PatchSeries is a named series as reported by the backend.
type PatchSeries struct {
	Name    string  `json:"name" yaml:"name"`
	Patches []Patch `json:"patches" yaml:"patches"`
}

// VirtualBranch is a stacked branch owned by the backend.
type VirtualBranch struct {
	ID        string        `json:"id" yaml:"id"`
	ProjectID string        `json:"projectId" yaml:"project_id"`
	Name      string        `json:"name" yaml:"name"`
	Series    []PatchSeries `json:"series" yaml:"series"`
}

// ArrangementOf derives a fresh arrangement from a branch's series.
func ArrangementOf(branch VirtualBranch) Arrangement {
	arr := Arrangement{Series: make([]Series, 0, len(branch.Series))}
	for _, ps := range branch.Series {
		ids := make([]CommitID, 0, len(ps.Patches))
		for _, p := range ps.Patches {
			ids = append(ids, p.ID)
		}
		arr.Series = append(arr.Series, Series{Name: ps.Name, CommitIDs: ids})
	}
	return arr
}

// Clone returns a deep copy of the arrangement.
func (a Arrangement) Clone() Arrangement {
	out := Arrangement{Series: make([]Series, len(a.Series))}
	for i, s := range a.Series {
		out.Series[i] = Series{Name: s.Name, CommitIDs: append([]CommitID(nil), s.CommitIDs...)}
		if out.Series[i].CommitIDs == nil {
			out.Series[i].CommitIDs = []CommitID{}
		}
	}
	return out
}

// Flatten concatenates all series in stack order.
func (a Arrangement) Flatten() []CommitID {
	var flat []CommitID
	for _, s := range a.Series {
		flat = append(flat, s.CommitIDs...)
	}
	return flat
}

// SeriesIndex returns the index of the named series, or -1.
func (a Arrangement) SeriesIndex(name string) int {
	for i, s := range a.Series {
		if s.Name == name {
			return i
		}
	}
	return -1
}

// Locate returns the series index and position of a commit, or -1, -1.
func (a Arrangement) Locate(id CommitID) (int, int) {
	for si, s := range a.Series {
		for pi, c := range s.CommitIDs {
			if c == id {
				return si, pi
			}
		}
	}
	return -1, -1
}

// Contains reports whether the commit appears anywhere in the arrangement.
func (a Arrangement) Contains(id CommitID) bool {
	si, _ := a.Locate(id)
	return si >= 0
}

// Validate checks that series names are unique and every commit appears
// exactly once.
func (a Arrangement) Validate() error {
	names := make(map[string]struct{}, len(a.Series))
	seen := make(map[CommitID]string)
	for _, s := range a.Series {
		if _, dup := names[s.Name]; dup {
			return &DuplicateSeriesError{Name: s.Name}
		}
		names[s.Name] = struct{}{}
		for _, id := range s.CommitIDs {
			if first, dup := seen[id]; dup {
				return &DuplicateCommitError{CommitID: id, Series: []string{first, s.Name}}
			}
			seen[id] = s.Name
		}
	}
	return nil
}

// SamePlacementSet reports whether b holds exactly the same series names
// (in the same stack order) and the same set of commits as a.
func (a Arrangement) SamePlacementSet(b Arrangement) bool {
	if len(a.Series) != len(b.Series) {
		return false
	}
	for i := range a.Series {
		if a.Series[i].Name != b.Series[i].Name {
			return false
		}
	}
	counts := make(map[CommitID]int)
	for _, id := range a.Flatten() {
		counts[id]++
	}
	for _, id := range b.Flatten() {
		counts[id]--
	}
	for _, n := range counts {
		if n != 0 {
			return false
		}
	}
	return true
}
