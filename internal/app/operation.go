package app

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Operation kinds tracked by the guard.
const (
	KindScan       = "scan"
	KindOrganize   = "organize"
	KindRevert     = "revert"
	KindDuplicates = "duplicates"
	KindRescan     = "rescan"
	KindRetry      = "retry"
)

// ErrOperationActive is returned when an operation is started while another
// one is still running.
var ErrOperationActive = errors.New("another operation is already running")

// OperationState is the last known state of one operation kind.
type OperationState struct {
	Kind       string     `json:"kind"`
	ID         string     `json:"id"`
	Active     bool       `json:"active"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Progress   any        `json:"progress,omitempty"`
	Result     any        `json:"result,omitempty"`
	Error      string     `json:"error,omitempty"`
}

// OperationGuard admits one catalog-mutating operation at a time and keeps a
// snapshot of each kind's latest run for status queries.
type OperationGuard struct {
	mu     sync.Mutex
	active *Operation
	states map[string]*OperationState
	now    func() time.Time
}

// NewOperationGuard creates an idle guard.
func NewOperationGuard() *OperationGuard {
	return &OperationGuard{
		states: make(map[string]*OperationState),
		now:    time.Now,
	}
}

// Operation is a running guarded operation. Finish must be called exactly
// once to release the guard.
type Operation struct {
	Kind string
	ID   string

	guard  *OperationGuard
	cancel context.CancelFunc
	once   sync.Once
}

// Begin claims the guard for kind. The returned context is cancelled by
// Cancel or when the operation finishes.
func (g *OperationGuard) Begin(ctx context.Context, kind, id string) (*Operation, context.Context, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.active != nil {
		return nil, nil, ErrOperationActive
	}

	ctx, cancel := context.WithCancel(ctx)
	op := &Operation{Kind: kind, ID: id, guard: g, cancel: cancel}
	g.active = op
	g.states[kind] = &OperationState{
		Kind:      kind,
		ID:        id,
		Active:    true,
		StartedAt: g.now(),
	}
	return op, ctx, nil
}

// Update publishes a progress snapshot for the operation.
func (op *Operation) Update(progress any) {
	g := op.guard
	g.mu.Lock()
	defer g.mu.Unlock()
	if st, ok := g.states[op.Kind]; ok && st.ID == op.ID {
		st.Progress = progress
	}
}

// Finish records the outcome and releases the guard.
func (op *Operation) Finish(result any, err error) {
	op.once.Do(func() {
		g := op.guard
		g.mu.Lock()
		defer g.mu.Unlock()

		if st, ok := g.states[op.Kind]; ok && st.ID == op.ID {
			finished := g.now()
			st.Active = false
			st.FinishedAt = &finished
			st.Result = result
			if err != nil {
				st.Error = err.Error()
			}
		}
		if g.active == op {
			g.active = nil
		}
		op.cancel()
	})
}

// State returns a copy of the latest state for kind.
func (g *OperationGuard) State(kind string) (OperationState, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	st, ok := g.states[kind]
	if !ok {
		return OperationState{}, false
	}
	return *st, true
}

// Active returns the running operation's state, if any.
func (g *OperationGuard) Active() (OperationState, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.active == nil {
		return OperationState{}, false
	}
	return *g.states[g.active.Kind], true
}

// Cancel cancels the running operation. It reports whether there was one.
func (g *OperationGuard) Cancel() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.active == nil {
		return false
	}
	g.active.cancel()
	return true
}
