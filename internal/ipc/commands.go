package ipc

import (
	sessions "github.com/zjrosen/stackline/internal/sessions/domain"
	"github.com/zjrosen/stackline/internal/stack/domain"
)

// Backend command names.
const (
	CmdListProjects                = "list_projects"
	CmdAddProject                  = "add_project"
	CmdListVirtualBranches         = "list_virtual_branches"
	CmdReorderStackCommit          = "reorder_stack_commit"
	CmdGetAvailableReviewTemplates = "get_available_review_templates"
	CmdGetReviewTemplateContents   = "get_review_template_contents"
	CmdListSessions                = "list_sessions"
	CmdRecordSession               = "record_session"
)

// ForgeArg identifies a forge in command arguments.
type ForgeArg struct {
	Name string `json:"name"`
}

// ProjectArgs is the argument bundle of project-scoped commands.
type ProjectArgs struct {
	ProjectID string `json:"projectId"`
}

// ReviewTemplatesArgs is the argument bundle of get_available_review_templates.
type ReviewTemplatesArgs struct {
	ProjectID string   `json:"projectId"`
	Forge     ForgeArg `json:"forge"`
}

// ReviewTemplateContentsArgs is the argument bundle of get_review_template_contents.
type ReviewTemplateContentsArgs struct {
	ProjectID    string   `json:"projectId"`
	Forge        ForgeArg `json:"forge"`
	RelativePath string   `json:"relativePath"`
}

// ListSessionsArgs is the argument bundle of list_sessions.
type ListSessionsArgs struct {
	ProjectID           string `json:"projectId"`
	EarliestTimestampMs *int64 `json:"earliestTimestampMs,omitempty"`
}

// AddProjectArgs is the argument bundle of add_project.
type AddProjectArgs struct {
	Path string `json:"path"`
	Name string `json:"name,omitempty"`
}

// ReorderStackCommitArgs is the argument bundle of reorder_stack_commit.
type ReorderStackCommitArgs struct {
	ProjectID  string             `json:"projectId"`
	BranchID   string             `json:"branchId"`
	StackOrder domain.Arrangement `json:"stackOrder"`
}

// RecordSessionArgs is the argument bundle of record_session.
type RecordSessionArgs struct {
	ProjectID string           `json:"projectId"`
	Session   sessions.Session `json:"session"`
}
