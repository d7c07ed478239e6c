package fsm

import (
	"context"
	"errors"

	loopfsm "github.com/looplab/fsm"

	"github.com/kibeterick/blood-management-fullstack/internal/domain"
)

// Compile-time checks: the validators implement the domain ports.
var (
	_ domain.MatchTransitionValidator   = (*Validator[domain.MatchStatus, domain.MatchEvent])(nil)
	_ domain.RequestTransitionValidator = (*Validator[domain.RequestStatus, domain.RequestEvent])(nil)
)

// buildEvents converts domain transitions into looplab/fsm EventDesc format.
// It consolidates transitions with the same event+destination into a single
// EventDesc with multiple source states (e.g., accept from "matched" and
// "notified" both go to "accepted").
func buildEvents[S ~string, E ~string](transitions []domain.Transition[S, E]) []loopfsm.EventDesc {
	type key struct {
		event string
		dst   string
	}
	grouped := make(map[key][]string)
	order := make([]key, 0)

	for _, t := range transitions {
		k := key{event: string(t.Event), dst: string(t.Dst)}
		if _, exists := grouped[k]; !exists {
			order = append(order, k)
		}
		grouped[k] = append(grouped[k], string(t.Src))
	}

	out := make([]loopfsm.EventDesc, 0, len(order))
	for _, k := range order {
		out = append(out, loopfsm.EventDesc{
			Name: k.event,
			Src:  grouped[k],
			Dst:  k.dst,
		})
	}
	return out
}

// Validator checks lifecycle events using looplab/fsm.
// It creates a short-lived FSM instance per Apply call, initialized with
// the entity's current state, because looplab/fsm tracks state internally.
type Validator[S ~string, E ~string] struct {
	entity string
	events []loopfsm.EventDesc
}

// NewMatchValidator validates MatchRecord lifecycle events.
func NewMatchValidator() *Validator[domain.MatchStatus, domain.MatchEvent] {
	return &Validator[domain.MatchStatus, domain.MatchEvent]{
		entity: "match",
		events: buildEvents(domain.MatchTransitions),
	}
}

// NewRequestValidator validates BloodRequest lifecycle events.
func NewRequestValidator() *Validator[domain.RequestStatus, domain.RequestEvent] {
	return &Validator[domain.RequestStatus, domain.RequestEvent]{
		entity: "blood request",
		events: buildEvents(domain.RequestTransitions),
	}
}

// Apply checks if the given event is valid from the current status and
// returns the destination status. Returns a domain.TransitionError if
// the transition is not allowed.
func (v *Validator[S, E]) Apply(ctx context.Context, current S, event E) (S, error) {
	machine := loopfsm.NewFSM(string(current), v.events, nil)

	if err := machine.Event(ctx, string(event)); err != nil {
		var invalidEvent loopfsm.InvalidEventError
		var unknownEvent loopfsm.UnknownEventError
		var noTransition loopfsm.NoTransitionError
		if errors.As(err, &invalidEvent) || errors.As(err, &unknownEvent) || errors.As(err, &noTransition) {
			return "", &domain.TransitionError{
				Entity:  v.entity,
				Event:   string(event),
				Current: string(current),
			}
		}
		return "", err
	}

	return S(machine.Current()), nil
}
