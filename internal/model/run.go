package model

import "time"

// RunStatus tracks a pipeline run through its phases.
type RunStatus string

// Run statuses.
const (
	RunStatusQueued     RunStatus = "queued"
	RunStatusExtracting RunStatus = "extracting"
	RunStatusJoining    RunStatus = "joining"
	RunStatusValidating RunStatus = "validating"
	RunStatusComplete   RunStatus = "complete"
	RunStatusFailed     RunStatus = "failed"
)

// Run is one pipeline invocation for one species.
type Run struct {
	ID        string    `json:"id"`
	Species   string    `json:"species"`
	Status    RunStatus `json:"status"`
	Result    []byte    `json:"result,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Report kinds persisted by the store.
const (
	ReportKindExtraction = "extraction"
	ReportKindJoin       = "join"
	ReportKindVIF        = "vif"
	ReportKindMoran      = "moran"
	ReportKindMAD        = "mad"
)
