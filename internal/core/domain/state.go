package domain

import (
	"sync/atomic"

	"go.trai.ch/zerr"
)

// BindingState is the re-entrancy state of a binding.
type BindingState uint32

const (
	// StateDetached is a binding that is not attached to a target, or has been torn down.
	StateDetached BindingState = iota
	// StateIdle is an attached binding with no update in flight.
	StateIdle
	// StateUpdatingTarget is set while a source to target write is in flight.
	StateUpdatingTarget
	// StateUpdatingSource is set while a target to source write is in flight.
	StateUpdatingSource
)

// String returns the state name.
func (s BindingState) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateUpdatingTarget:
		return "UpdatingTarget"
	case StateUpdatingSource:
		return "UpdatingSource"
	default:
		return "Detached"
	}
}

var allowedTransitions = map[BindingState][]BindingState{
	StateDetached:       {StateIdle},
	StateIdle:           {StateUpdatingTarget, StateUpdatingSource, StateDetached},
	StateUpdatingTarget: {StateIdle, StateDetached},
	StateUpdatingSource: {StateIdle, StateDetached},
}

// CanTransition reports whether from -> to is a legal transition.
func CanTransition(from, to BindingState) bool {
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// StateMachine holds a BindingState and only applies legal transitions.
type StateMachine struct {
	state atomic.Uint32
}

// Current returns the current state.
func (m *StateMachine) Current() BindingState {
	return BindingState(m.state.Load())
}

// Transition moves from -> to if the machine is in from and the transition is legal.
// It returns ErrInvalidTransition otherwise, leaving the state unchanged.
func (m *StateMachine) Transition(from, to BindingState) error {
	if !CanTransition(from, to) {
		return zerr.With(Annotate(ErrInvalidTransition, "from", from.String()), "to", to.String())
	}
	if !m.state.CompareAndSwap(uint32(from), uint32(to)) {
		return zerr.With(Annotate(ErrInvalidTransition, "from", m.Current().String()), "to", to.String())
	}
	return nil
}

// Enter is a guarded transition out of StateIdle. It reports false when an update is
// already in flight or the binding is detached.
func (m *StateMachine) Enter(to BindingState) bool {
	return m.Transition(StateIdle, to) == nil
}

// Leave returns from an update state to StateIdle. It is a no-op if the binding was
// detached while the update was in flight.
func (m *StateMachine) Leave(from BindingState) {
	_ = m.Transition(from, StateIdle)
}

// Detach moves to StateDetached from any state.
func (m *StateMachine) Detach() BindingState {
	return BindingState(m.state.Swap(uint32(StateDetached)))
}
