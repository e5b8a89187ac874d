package service

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/ikkim/udonggeum-basket/pkg/logger"
)

type AddState string

const (
	AddIdle              AddState = "idle"
	AddSubmitting        AddState = "submitting"
	AddSuccess           AddState = "success"
	AddNeedsParams       AddState = "needs_params"
	AddAwaitingUserInput AddState = "awaiting_user_input"
	AddResubmitting      AddState = "resubmitting"
	AddFailed            AddState = "failed"
	AddAbandoned         AddState = "abandoned"
)

// Resubmitting has no edge back to NeedsParams: a second failure is terminal.
var addTransitions = map[AddState][]AddState{
	AddIdle:              {AddSubmitting},
	AddSubmitting:        {AddSuccess, AddNeedsParams, AddFailed},
	AddNeedsParams:       {AddAwaitingUserInput, AddFailed},
	AddAwaitingUserInput: {AddResubmitting, AddAbandoned, AddFailed},
	AddResubmitting:      {AddSuccess, AddFailed},
}

func (s AddState) Terminal() bool {
	return s == AddSuccess || s == AddFailed || s == AddAbandoned
}

// AddWorkflow tracks one add-item attempt, including its optional
// parameter-completion retry.
type AddWorkflow struct {
	id string

	mu      sync.Mutex
	state   AddState
	history []AddState
	err     error
	done    chan struct{}
}

func newAddWorkflow() *AddWorkflow {
	return &AddWorkflow{
		id:      uuid.NewString(),
		state:   AddIdle,
		history: []AddState{AddIdle},
		done:    make(chan struct{}),
	}
}

func (w *AddWorkflow) ID() string { return w.id }

func (w *AddWorkflow) State() AddState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// History returns every state the workflow has entered, in order.
func (w *AddWorkflow) History() []AddState {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]AddState, len(w.history))
	copy(out, w.history)
	return out
}

// Err returns the failure that ended the workflow, if any.
func (w *AddWorkflow) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

// Done is closed once the workflow reaches a terminal state.
func (w *AddWorkflow) Done() <-chan struct{} { return w.done }

func (w *AddWorkflow) transition(to AddState) error {
	return w.finish(to, nil)
}

func (w *AddWorkflow) finish(to AddState, err error) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	from := w.state
	allowed := false
	for _, next := range addTransitions[from] {
		if next == to {
			allowed = true
			break
		}
	}
	if !allowed {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}

	w.state = to
	w.history = append(w.history, to)
	if err != nil {
		w.err = err
	}
	if to.Terminal() {
		close(w.done)
	}

	logger.Debug("Add workflow transition", map[string]interface{}{
		"workflow_id": w.id,
		"from":        from,
		"to":          to,
	})
	return nil
}
