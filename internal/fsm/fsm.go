// Package fsm runs goroutine loops as a sequence of explicit states.
package fsm

import "context"

// State is a function that implements the logic for a single state. It returns
// the action the state machine takes next.
type State func(context.Context) Action

// StateWith is a state that accepts an argument supplied when it is entered.
type StateWith[T any] func(context.Context, T) Action

// Action describes what the state machine does after a state returns.
type Action struct {
	apply func(*machine)
}

type machine struct {
	current State
	err     error
}

// Run runs the state machine from the initial state until a state returns
// [Stop] or [Fail].
func Run(ctx context.Context, initial State) error {
	m := &machine{current: initial}

	for m.current != nil {
		act := m.current(ctx)
		if act.apply == nil {
			panic("state must return a valid action")
		}
		act.apply(m)
	}

	return m.err
}

// Transition returns an action that enters the next state.
func Transition(next State) Action {
	if next == nil {
		panic("state must not be nil")
	}

	return Action{func(m *machine) {
		m.current = next
	}}
}

// TransitionWith returns an action that enters the next state with the given
// argument.
func TransitionWith[T any](next StateWith[T], v T) Action {
	if next == nil {
		panic("state must not be nil")
	}

	return Transition(func(ctx context.Context) Action {
		return next(ctx, v)
	})
}

// Stay returns an action that runs the current state again.
func Stay() Action {
	return Action{func(*machine) {}}
}

// Stop returns an action that stops the state machine without error.
func Stop() Action {
	return Action{func(m *machine) {
		m.current = nil
	}}
}

// Fail returns an action that stops the state machine with an error.
func Fail(err error) Action {
	return Action{func(m *machine) {
		m.current = nil
		m.err = err
	}}
}
