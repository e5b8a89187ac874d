package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddWorkflow_HappyPath(t *testing.T) {
	wf := newAddWorkflow()
	assert.NotEmpty(t, wf.ID())
	assert.Equal(t, AddIdle, wf.State())

	require.NoError(t, wf.transition(AddSubmitting))
	require.NoError(t, wf.transition(AddSuccess))

	assert.Equal(t, []AddState{AddIdle, AddSubmitting, AddSuccess}, wf.History())
	select {
	case <-wf.Done():
	default:
		t.Fatal("done should be closed after a terminal state")
	}
}

func TestAddWorkflow_RejectsInvalidTransitions(t *testing.T) {
	tests := []struct {
		name string
		path []AddState
		bad  AddState
	}{
		{"idle to success", nil, AddSuccess},
		{"submitting to resubmitting", []AddState{AddSubmitting}, AddResubmitting},
		{"resubmitting back to needs params", []AddState{AddSubmitting, AddNeedsParams, AddAwaitingUserInput, AddResubmitting}, AddNeedsParams},
		{"out of a terminal state", []AddState{AddSubmitting, AddFailed}, AddSubmitting},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wf := newAddWorkflow()
			for _, s := range tt.path {
				require.NoError(t, wf.transition(s))
			}
			before := wf.State()

			err := wf.transition(tt.bad)
			assert.ErrorIs(t, err, ErrInvalidTransition)
			assert.Equal(t, before, wf.State())
		})
	}
}

func TestAddWorkflow_FinishRecordsError(t *testing.T) {
	wf := newAddWorkflow()
	require.NoError(t, wf.transition(AddSubmitting))

	cause := errors.New("rejected")
	require.NoError(t, wf.finish(AddFailed, cause))

	assert.Equal(t, AddFailed, wf.State())
	assert.Equal(t, cause, wf.Err())
	assert.True(t, wf.State().Terminal())
}

func TestAddWorkflow_HistoryIsACopy(t *testing.T) {
	wf := newAddWorkflow()
	h := wf.History()
	h[0] = AddFailed

	assert.Equal(t, AddIdle, wf.History()[0])
}

func TestAddWorkflow_FormStagesCanFail(t *testing.T) {
	tests := []struct {
		name string
		path []AddState
	}{
		{"form could not be loaded", []AddState{AddSubmitting, AddNeedsParams}},
		{"confirmed form could not be merged", []AddState{AddSubmitting, AddNeedsParams, AddAwaitingUserInput}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wf := newAddWorkflow()
			for _, s := range tt.path {
				require.NoError(t, wf.transition(s))
			}
			require.NoError(t, wf.finish(AddFailed, errors.New("form unavailable")))
			assert.Equal(t, AddFailed, wf.State())
		})
	}
}
