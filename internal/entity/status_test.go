package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCandidateStatusTransitions(t *testing.T) {
	assert.True(t, CandidateStatusPicked.CanTransitionTo(CandidateStatusAlive))
	assert.True(t, CandidateStatusPicked.CanTransitionTo(CandidateStatusRejected))
	assert.True(t, CandidateStatusAlive.CanTransitionTo(CandidateStatusAlive))
	assert.True(t, CandidateStatusAlive.CanTransitionTo(CandidateStatusRejected))

	assert.False(t, CandidateStatusRejected.CanTransitionTo(CandidateStatusAlive))
	assert.False(t, CandidateStatusRejected.CanTransitionTo(CandidateStatusPicked))
	assert.False(t, CandidateStatusAlive.CanTransitionTo(CandidateStatusPicked))

	assert.True(t, CandidateStatusRejected.Terminal())
	assert.False(t, CandidateStatusAlive.Terminal())
	assert.False(t, CandidateStatusPicked.Terminal())
}

func TestPositionStateTransitions(t *testing.T) {
	assert.True(t, PositionStateOpen.CanTransitionTo(PositionStateClosed))
	assert.False(t, PositionStateClosed.CanTransitionTo(PositionStateOpen))
	assert.False(t, PositionStateClosed.CanTransitionTo(PositionStateClosed))
}

func TestBatchRunHelpers(t *testing.T) {
	run := &BatchRun{Status: RunStatusRunning}
	assert.False(t, run.Finished())
	assert.False(t, run.Degraded())

	run.Status = RunStatusSuccess
	assert.True(t, run.Finished())
	assert.False(t, run.Degraded())

	run.ErrorCount = 2
	assert.True(t, run.Degraded())

	run.Status = RunStatusError
	assert.True(t, run.Finished())
	assert.False(t, run.Degraded())
}
