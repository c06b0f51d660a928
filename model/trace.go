package model

import "time"

// ToolName identifies a search collaborator in a trace
type ToolName string

const (
	ToolVectorSearch ToolName = "vector_search"
	ToolGraphSearch  ToolName = "graph_search"
)

// ToolTraceEntry records one tool decision within a query. Invoked tools get
// one entry per invocation (including failed ones, with Error set). Tools
// that were deliberately not invoked get a skipped entry so the trace always
// explains why each tool did or did not run.
type ToolTraceEntry struct {
	ToolName    ToolName      `json:"tool_name"`
	InvokedAt   time.Time     `json:"invoked_at"`
	Duration    time.Duration `json:"duration"`
	ResultCount int           `json:"result_count"`
	Reason      string        `json:"reason"`
	Attempts    int           `json:"attempts,omitempty"`
	Skipped     bool          `json:"skipped,omitempty"`
	Error       string        `json:"error,omitempty"`
}

// ToolTrace is the append-only audit trail of tool usage for one query,
// ordered by invocation time
type ToolTrace []ToolTraceEntry

// Invoked returns only the entries for tools that actually ran
func (t ToolTrace) Invoked() ToolTrace {
	var invoked ToolTrace
	for _, entry := range t {
		if !entry.Skipped {
			invoked = append(invoked, entry)
		}
	}
	return invoked
}

// Entry returns the entry for the given tool, or nil if the tool has no entry
func (t ToolTrace) Entry(name ToolName) *ToolTraceEntry {
	for i := range t {
		if t[i].ToolName == name {
			return &t[i]
		}
	}
	return nil
}
