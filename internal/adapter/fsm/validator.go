package fsm

import (
	"context"
	"errors"

	loopfsm "github.com/looplab/fsm"

	"github.com/neomorfeo/curator/internal/domain"
)

// Compile-time check: Validator implements domain.TransitionValidator.
var _ domain.TransitionValidator = (*Validator)(nil)

// events converts domain.Transitions into looplab/fsm EventDesc format,
// grouping transitions that share an event and destination into one
// EventDesc with several sources.
var events = buildEvents(domain.Transitions)

func buildEvents(transitions []domain.Transition) []loopfsm.EventDesc {
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

// Validator implements domain.TransitionValidator using looplab/fsm.
// looplab/fsm keeps the current state internally, so every Apply call
// builds a short-lived machine seeded with the submission's status.
type Validator struct {
	events []loopfsm.EventDesc
}

// New creates a validator for the submission review lifecycle.
func New() *Validator {
	return &Validator{events: events}
}

// Apply checks if the given event is valid from the current status and
// returns the destination status. Returns a domain.TransitionError if
// the transition is not allowed.
func (v *Validator) Apply(ctx context.Context, current domain.SubmissionStatus, event domain.Event) (domain.SubmissionStatus, error) {
	machine := loopfsm.NewFSM(string(current), v.events, nil)

	if err := machine.Event(ctx, string(event)); err != nil {
		var invalidEvent loopfsm.InvalidEventError
		var unknownEvent loopfsm.UnknownEventError
		var noTransition loopfsm.NoTransitionError
		if errors.As(err, &invalidEvent) || errors.As(err, &unknownEvent) || errors.As(err, &noTransition) {
			return "", &domain.TransitionError{
				Event:   event,
				Current: current,
			}
		}
		return "", err
	}

	return domain.SubmissionStatus(machine.Current()), nil
}

// Permitted lists the events available from current, in table order.
func (v *Validator) Permitted(current domain.SubmissionStatus) []domain.Event {
	machine := loopfsm.NewFSM(string(current), v.events, nil)
	var out []domain.Event
	for _, e := range v.events {
		if machine.Can(e.Name) {
			out = append(out, domain.Event(e.Name))
		}
	}
	return out
}
