package model

import (
	"errors"
	"fmt"
)

// ErrIllegalTransition marks a rejected scene status change
var ErrIllegalTransition = errors.New("illegal scene transition")

// TransitionError describes a rejected scene status change
type TransitionError struct {
	SceneID string
	From    SceneStatus
	To      SceneStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("scene %s: cannot move from %s to %s", e.SceneID, e.From, e.To)
}

func (e *TransitionError) Is(target error) bool { return target == ErrIllegalTransition }

// sceneTransitions lists the moves allowed outside of a project reset.
// failed -> processing is only taken by an explicit reprocess.
var sceneTransitions = map[SceneStatus][]SceneStatus{
	SceneTodo:          {SceneProcessing},
	SceneProcessing:    {SceneCompleted, SceneFailed, SceneAwaitingInput},
	SceneFailed:        {SceneProcessing},
	SceneAwaitingInput: {SceneProcessing},
	SceneCompleted:     {},
}

// CanTransitionTo reports whether s may move to next
func (s SceneStatus) CanTransitionTo(next SceneStatus) bool {
	for _, allowed := range sceneTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ValidateTransition returns a TransitionError when from -> to is not allowed
func ValidateTransition(sceneID string, from, to SceneStatus) error {
	if from.CanTransitionTo(to) {
		return nil
	}
	return &TransitionError{SceneID: sceneID, From: from, To: to}
}
