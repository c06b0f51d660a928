package pipeline

import (
	"fmt"

	"github.com/siherrmann/fuser/model"
)

// AssembledEvidence is the bounded evidence set for one query plus the audit
// trail of which tools ran and why
type AssembledEvidence struct {
	Evidence    model.Evidence  `json:"evidence"`
	Trace       model.ToolTrace `json:"trace"`
	IsSparse    bool            `json:"is_sparse"`
	TotalRanked int             `json:"total_ranked"`
}

// Assembler truncates ranked evidence into a fixed context budget
type Assembler struct {
	budget int
}

// NewAssembler creates an assembler with the given context budget.
// A budget of zero or less is a programmer error.
func NewAssembler(budget int) (*Assembler, error) {
	if budget <= 0 {
		return nil, fmt.Errorf("%w: budget must be positive, got %d", model.ErrInvalidBudget, budget)
	}
	return &Assembler{budget: budget}, nil
}

// Assemble returns the top items of the ranked evidence within the budget
// together with the full trace. The input is never mutated; the result holds
// a fresh slice. Fewer ranked items than the budget is not an error, it only
// sets the sparse flag so the caller may decide to search more broadly.
func (a *Assembler) Assemble(evidence model.Evidence, trace model.ToolTrace) *AssembledEvidence {
	limit := a.budget
	if limit > len(evidence) {
		limit = len(evidence)
	}

	bounded := make(model.Evidence, limit)
	copy(bounded, evidence[:limit])

	return &AssembledEvidence{
		Evidence:    bounded,
		Trace:       trace,
		IsSparse:    len(evidence) < a.budget,
		TotalRanked: len(evidence),
	}
}
