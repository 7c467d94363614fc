package domain

// RunStatus describes where a run sits in its lifecycle on the reasoning
// runtime. The orchestrator never stores these across requests; the runtime
// is the source of truth and snapshots are read back by polling.
type RunStatus string

const (
	RunStatusCreated        RunStatus = "created"
	RunStatusRunning        RunStatus = "running"
	RunStatusRequiresAction RunStatus = "requires_action"
	RunStatusResuming       RunStatus = "resuming"
	RunStatusCompleted      RunStatus = "completed"
	RunStatusFailed         RunStatus = "failed"
)

// Terminal reports whether the run can make no further progress.
func (s RunStatus) Terminal() bool {
	return s == RunStatusCompleted || s == RunStatusFailed
}

// Actionable reports whether the runtime is paused waiting for tool outputs.
func (s RunStatus) Actionable() bool {
	return s == RunStatusRequiresAction
}

// RunSnapshot is a point-in-time view of a run, as mapped from the runtime's
// own status vocabulary by the runtime adapter.
type RunSnapshot struct {
	RunID  string
	Handle string
	Status RunStatus

	// ToolCalls is populated only when Status is RunStatusRequiresAction and
	// holds the full set of invocations that must be answered before resume.
	ToolCalls []ToolCall

	// LastError carries the runtime's failure description when Status is
	// RunStatusFailed. Informational only; never shown to end users verbatim.
	LastError string
}
