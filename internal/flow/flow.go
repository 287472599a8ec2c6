// Package flow is the pin-to-building wizard: pick a pin, confirm it, fill
// in the details, submit.
package flow

import (
	"errors"
	"fmt"
	"time"

	"github.com/joeblew999/plat-door/internal/geo"
)

var (
	ErrInvalidTransition = errors.New("invalid flow transition")
	ErrPositionRequired  = errors.New("a pin position is required")
)

// RedirectDelay is how long the success banner shows before going home.
const RedirectDelay = 2 * time.Second

// HomePath is where the flow starts and ends.
const HomePath = "/"

// TotalSteps counts the home map as step 1.
const TotalSteps = 5

// State is a wizard step.
type State int

const (
	PickingPin State = iota
	ConfirmingPin
	EditingDetails
	Submitted
)

var stateNames = [...]string{"picking-pin", "confirming-pin", "editing-details", "submitted"}

func (s State) String() string {
	if s < PickingPin || s > Submitted {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

// Step is the 1-based position shown in the step indicator.
func (s State) Step() int {
	return int(s) + 2
}

// Path is the page that renders the state.
func (s State) Path() string {
	switch s {
	case PickingPin:
		return "/map/add"
	case ConfirmingPin:
		return "/map/confirm"
	default:
		return "/building/new"
	}
}

// Flow tracks the current step and the draft. It is not safe for
// concurrent use; callers hold the owning session's lock.
type Flow struct {
	state State
	draft Draft
}

// New starts a flow in PickingPin.
func New() *Flow {
	return &Flow{state: PickingPin, draft: NewDraft()}
}

// Resume starts a flow at state with an existing draft, as when a page is
// opened from navigation params.
func Resume(state State, d Draft) *Flow {
	return &Flow{state: state, draft: d.clone()}
}

// State returns the current step.
func (f *Flow) State() State { return f.state }

// Draft returns a copy of the accumulated draft.
func (f *Flow) Draft() Draft { return f.draft.clone() }

// Update applies fn to the draft. Only allowed before submission.
func (f *Flow) Update(fn func(Draft) Draft) error {
	if f.state == Submitted {
		return fmt.Errorf("%w: draft is already submitted", ErrInvalidTransition)
	}
	f.draft = fn(f.draft.clone())
	return nil
}

func (f *Flow) expect(s State, op string) error {
	if f.state != s {
		return fmt.Errorf("%w: %s from %s", ErrInvalidTransition, op, f.state)
	}
	return nil
}

// ConfirmPin carries the chosen coordinate to the confirmation step.
func (f *Flow) ConfirmPin(c geo.Coordinate) error {
	if err := f.expect(PickingPin, "confirm pin"); err != nil {
		return err
	}
	f.draft = f.draft.WithPosition(c)
	f.state = ConfirmingPin
	return nil
}

// AcceptPin moves on to the details form.
func (f *Flow) AcceptPin() error {
	if err := f.expect(ConfirmingPin, "accept pin"); err != nil {
		return err
	}
	if f.draft.Position == nil {
		return ErrPositionRequired
	}
	f.state = EditingDetails
	return nil
}

// Save validates the draft and marks it submitted. The caller performs the
// request; on failure it calls Reopen so the user can retry.
func (f *Flow) Save() (Draft, error) {
	if err := f.expect(EditingDetails, "save"); err != nil {
		return Draft{}, err
	}
	if err := f.draft.Validate(); err != nil {
		return Draft{}, err
	}
	f.state = Submitted
	return f.draft.clone(), nil
}

// Reopen returns a submitted flow to the details form with its draft
// intact, after a failed request.
func (f *Flow) Reopen() error {
	if err := f.expect(Submitted, "reopen"); err != nil {
		return err
	}
	f.state = EditingDetails
	return nil
}

// Cancel steps back to the predecessor without side effects. From
// PickingPin it reports false: the caller leaves the flow for HomePath.
func (f *Flow) Cancel() (State, bool) {
	switch f.state {
	case ConfirmingPin:
		f.state = PickingPin
	case EditingDetails:
		f.state = ConfirmingPin
	case Submitted:
		f.state = EditingDetails
	default:
		return PickingPin, false
	}
	return f.state, true
}
