package wizard

import (
	"sync"

	"github.com/axaysd/PMM-Agent/model"
)

// Run is one session's workflow state: the Step 1 sequencer plus the
// bookkeeping the chat UI reads (current step, completed steps).
type Run struct {
	mu sync.Mutex

	SessionID string
	Seq       *Sequencer

	CurrentStep    int
	CompletedSteps []int
	Plan           string
	Complete       bool
}

// Lock serializes turns against this run. A run supports one submit at a
// time; concurrent turns for the same session wait here.
func (r *Run) Lock()   { r.mu.Lock() }
func (r *Run) Unlock() { r.mu.Unlock() }

// FinishStep1 records that the fixed-question phase ended and the run
// moved to Step 2, keeping the generated (or fallback) plan for the UI.
func (r *Run) FinishStep1(plan string) {
	r.CompletedSteps = append(r.CompletedSteps, 1)
	r.CurrentStep = 2
	r.Plan = plan
}

// Store holds the runs of all live sessions. Runs share no state with
// each other; the store's lock covers only the map itself.
type Store struct {
	mu        sync.RWMutex
	validator Validator
	runs      map[string]*Run
}

func NewStore(v Validator) *Store {
	return &Store{
		validator: v,
		runs:      make(map[string]*Run),
	}
}

// Create starts a fresh run for sessionID, replacing any existing one.
func (st *Store) Create(sessionID string) *Run {
	run := &Run{
		SessionID:   sessionID,
		Seq:         NewSequencer(sessionID, model.Step1Questions(), st.validator),
		CurrentStep: 1,
	}
	st.mu.Lock()
	st.runs[sessionID] = run
	st.mu.Unlock()
	return run
}

// Get returns the run for sessionID, if any.
func (st *Store) Get(sessionID string) (*Run, bool) {
	st.mu.RLock()
	run, ok := st.runs[sessionID]
	st.mu.RUnlock()
	return run, ok
}

// GetOrCreate returns the existing run for sessionID or starts a new one.
// A lost session is recreated rather than rejected so a client that kept
// its id across a restart can continue.
func (st *Store) GetOrCreate(sessionID string) (run *Run, created bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if run, ok := st.runs[sessionID]; ok {
		return run, false
	}
	run = &Run{
		SessionID:   sessionID,
		Seq:         NewSequencer(sessionID, model.Step1Questions(), st.validator),
		CurrentStep: 1,
	}
	st.runs[sessionID] = run
	return run, true
}

// Delete discards a run. Abandoning a session needs no other cleanup.
func (st *Store) Delete(sessionID string) {
	st.mu.Lock()
	delete(st.runs, sessionID)
	st.mu.Unlock()
}
