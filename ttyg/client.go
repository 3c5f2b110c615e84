// Copyright (c) Graphwise. All rights reserved.

package ttyg

import "context"

// Metadata fields on remote threads and assistants.
const (
	MetadataName           = "name"
	MetadataInstallationID = "graphdb.installationId"
	MetadataUsername       = "graphdb.username"
	MetadataUpdatedAt      = "graphdb.updatedAt"

	// MetadataTTYG on an assistant holds a JSON blob with the installation
	// ID the assistant was provisioned for.
	MetadataTTYG = "graphdb.ttyg"

	// DefaultInstallationID matches any configured installation.
	DefaultInstallationID = "__default__"
)

// Run statuses reported by the assistant service.
const (
	RunStatusQueued         = "queued"
	RunStatusInProgress     = "in_progress"
	RunStatusRequiresAction = "requires_action"
	RunStatusCompleted      = "completed"
	RunStatusFailed         = "failed"
	RunStatusCancelled      = "cancelled"
	RunStatusExpired        = "expired"
)

// Thread is a remote conversation handle with its metadata.
type Thread struct {
	ID       string
	Metadata map[string]string
}

// Assistant is a pre-provisioned remote assistant.
type Assistant struct {
	ID       string
	Name     string
	Metadata map[string]string
}

// ToolCall is a structured tool invocation requested by the assistant.
type ToolCall struct {
	CallID    string
	Name      string
	Arguments string // JSON-encoded argument mapping
}

// ToolOutput is the per-call result submitted back to the assistant.
// Every tool call the service issues must receive one.
type ToolOutput struct {
	CallID string
	Output string
}

// Run is one request/response cycle with the assistant service.
type Run struct {
	ID        string
	ThreadID  string
	Status    string
	ToolCalls []ToolCall // populated when Status is requires_action
	LastError *ServiceError
}

// Terminal reports whether the run can make no further progress on its own.
func (r *Run) Terminal() bool {
	switch r.Status {
	case RunStatusCompleted, RunStatusFailed, RunStatusCancelled, RunStatusExpired:
		return true
	}
	return false
}

// ThreadMessage is one message of a thread's conversation history.
type ThreadMessage struct {
	Role string
	Text string
}

// AssistantClient is the interface for the remote assistant service.
// Provider packages (e.g., assistant) implement this interface.
type AssistantClient interface {
	// CreateThread allocates a new remote conversation handle.
	CreateThread(ctx context.Context, metadata map[string]string) (*Thread, error)

	// RetrieveThread fetches an existing thread by ID.
	RetrieveThread(ctx context.Context, threadID string) (*Thread, error)

	// UpdateThreadMetadata merges metadata into an existing thread.
	UpdateThreadMetadata(ctx context.Context, threadID string, metadata map[string]string) error

	// DeleteThread removes a thread from the remote service.
	DeleteThread(ctx context.Context, threadID string) error

	// RetrieveAssistant fetches an assistant by ID.
	RetrieveAssistant(ctx context.Context, assistantID string) (*Assistant, error)

	// ListAssistants enumerates the available assistants.
	ListAssistants(ctx context.Context) ([]Assistant, error)

	// CreateMessage appends a user message to a thread.
	CreateMessage(ctx context.Context, threadID, text string) error

	// ListMessages returns up to limit messages, newest first.
	ListMessages(ctx context.Context, threadID string, limit int) ([]ThreadMessage, error)

	// CreateRun starts a new run of the assistant over the thread.
	CreateRun(ctx context.Context, threadID, assistantID string) (*Run, error)

	// RetrieveRun fetches the current state of a run.
	RetrieveRun(ctx context.Context, threadID, runID string) (*Run, error)

	// SubmitToolOutputs delivers tool results and resumes the run.
	SubmitToolOutputs(ctx context.Context, threadID, runID string, outputs []ToolOutput) (*Run, error)

	// CancelRun requests cancellation of an in-flight run.
	CancelRun(ctx context.Context, threadID, runID string) error
}

// ToolClient is the interface for the remote graph-query service.
type ToolClient interface {
	// Execute runs a named query method with JSON-encoded arguments in the
	// context of the given assistant and returns the raw textual result.
	Execute(ctx context.Context, assistantID, toolName, arguments string) (string, error)
}
