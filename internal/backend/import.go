package backend

import (
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/zjrosen/stackline/internal/events"
	"github.com/zjrosen/stackline/internal/log"
	stack "github.com/zjrosen/stackline/internal/stack/domain"
)

// importFile is the YAML document accepted by ImportBranches.
//
//	branches:
//	  - name: feature
//	    series:
//	      - name: api
//	        patches:
//	          - id: 3f2a9c1
//	            subject: Add endpoint
type importFile struct {
	Branches []stack.VirtualBranch `yaml:"branches"`
}

// ImportBranches seeds virtual branches for a project from YAML. Branches
// without an id get a fresh one; existing ids are replaced.
func (b *Backend) ImportBranches(projectID string, r io.Reader) ([]stack.VirtualBranch, error) {
	if _, err := b.project(projectID); err != nil {
		return nil, err
	}

	var doc importFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing branches: %w", err)
	}

	out := make([]stack.VirtualBranch, 0, len(doc.Branches))
	for _, vb := range doc.Branches {
		if vb.ID == "" {
			vb.ID = uuid.NewString()
		}
		vb.ProjectID = projectID
		if vb.Series == nil {
			vb.Series = []stack.PatchSeries{}
		}
		for i := range vb.Series {
			if vb.Series[i].Patches == nil {
				vb.Series[i].Patches = []stack.Patch{}
			}
		}
		if err := b.repos.Branches.Save(vb); err != nil {
			return nil, fmt.Errorf("importing branch %q: %w", vb.Name, err)
		}
		log.Debug(log.CatStack, "Imported branch", "project", projectID, "branch", vb.ID, "series", len(vb.Series))
		b.emit(events.Topic(projectID, events.KindVirtualBranches), vb)
		out = append(out, vb)
	}
	return out, nil
}
