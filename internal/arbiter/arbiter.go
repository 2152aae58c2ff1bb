// Package arbiter enforces the winner rules: at most one winner per
// category and at most MaxWinners winners overall.
//
// A promotion that would break a rule is a reachable user action, not a
// programmer error, so the arbiter does not reject it. It parks the request
// in an Awaiting state and waits for the caller to resolve or cancel it.
//
// # States
//
//	Idle ──RequestWinner──> AwaitingCategoryConflict ──ResolveCategoryConflict/Cancel──> Idle
//	  │
//	  └───RequestWinner──> AwaitingCapacityConflict ──ResolveCapacityConflict/Cancel──> Idle
//
// Only one conflict is pending at a time. RequestWinner fails with
// ErrConflictPending until it is resolved.
package arbiter

import (
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/abelbrown/animalbase/internal/entity"
	"github.com/charmbracelet/log"
)

// MaxWinners is the number of winners allowed across all categories.
const MaxWinners = 2

var (
	// ErrInvalidState is returned by a resolution call that does not match
	// the current state.
	ErrInvalidState = errors.New("invalid arbiter state")

	// ErrConflictPending is returned by RequestWinner while a conflict awaits a decision.
	ErrConflictPending = errors.New("winner conflict pending")

	// ErrInvalidChoice is returned when the winner chosen for demotion was not presented.
	ErrInvalidChoice = errors.New("invalid winner choice")
)

// Store is the subset of the entity store the arbiter needs.
type Store interface {
	Get(id int) (entity.Entity, error)
	Winners() []entity.Entity
	SetWinner(id int, value bool) error
}

// State is the arbiter state.
type State int

const (
	Idle State = iota
	AwaitingCategoryConflict
	AwaitingCapacityConflict
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitingCategoryConflict:
		return "awaiting-category-decision"
	case AwaitingCapacityConflict:
		return "awaiting-capacity-decision"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Outcome is the result of RequestWinner.
type Outcome int

const (
	OutcomePromoted Outcome = iota
	OutcomeDemoted
	OutcomePending
)

func (o Outcome) String() string {
	switch o {
	case OutcomePromoted:
		return "promoted"
	case OutcomeDemoted:
		return "demoted"
	case OutcomePending:
		return "pending"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// Conflict describes a pending decision.
//
// For a category conflict Incumbents holds the single same-category winner.
// For a capacity conflict it holds the winners the caller may demote.
type Conflict struct {
	State      State
	Candidate  entity.Entity
	Incumbents []entity.Entity
}

// Arbiter is the winner state machine. Not safe for concurrent use.
type Arbiter struct {
	store   Store
	state   State
	pending Conflict
	logger  *log.Logger
}

// New creates an idle arbiter. logger may be nil.
func New(store Store, logger *log.Logger) *Arbiter {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Arbiter{store: store, logger: logger}
}

// State returns the current state.
func (a *Arbiter) State() State {
	return a.state
}

// Pending returns the active conflict, if any.
func (a *Arbiter) Pending() (Conflict, bool) {
	if a.state == Idle {
		return Conflict{}, false
	}
	c := a.pending
	c.Incumbents = slices.Clone(c.Incumbents)
	return c, true
}

// Reset drops any pending conflict without touching the store.
func (a *Arbiter) Reset() {
	a.toIdle()
}

// RequestWinner toggles the winner flag of id.
//
// Demotion is unconditional. Promotion happens immediately when no rule is
// violated; otherwise the arbiter enters an Awaiting state and returns
// OutcomePending. A same-category conflict takes precedence over the
// capacity limit.
func (a *Arbiter) RequestWinner(id int) (Outcome, error) {
	if a.state != Idle {
		return 0, fmt.Errorf("request winner %d while %s: %w", id, a.state, ErrConflictPending)
	}

	candidate, err := a.store.Get(id)
	if err != nil {
		return 0, err
	}

	if candidate.Winner {
		if err := a.store.SetWinner(id, false); err != nil {
			return 0, err
		}
		a.logger.Debug("winner demoted", "id", id)
		return OutcomeDemoted, nil
	}

	// Winners are ordered by id, so the first match is the lowest id.
	winners := a.store.Winners()
	for _, w := range winners {
		if w.ID != candidate.ID && w.Category == candidate.Category {
			a.await(AwaitingCategoryConflict, candidate, []entity.Entity{w})
			return OutcomePending, nil
		}
	}

	if len(winners) >= MaxWinners {
		a.await(AwaitingCapacityConflict, candidate, winners[:MaxWinners])
		return OutcomePending, nil
	}

	if err := a.store.SetWinner(id, true); err != nil {
		return 0, err
	}
	a.logger.Debug("winner promoted", "id", id)
	return OutcomePromoted, nil
}

// ResolveCategoryConflict replaces the same-category incumbent with the
// candidate when accept is true. The arbiter returns to Idle either way.
func (a *Arbiter) ResolveCategoryConflict(accept bool) error {
	if a.state != AwaitingCategoryConflict {
		return fmt.Errorf("resolve category conflict while %s: %w", a.state, ErrInvalidState)
	}

	c := a.pending
	a.toIdle()
	if !accept {
		a.logger.Debug("category conflict declined", "candidate", c.Candidate.ID)
		return nil
	}
	return a.swap(c.Incumbents[0].ID, c.Candidate.ID)
}

// ResolveCapacityConflict demotes the chosen winner and promotes the
// candidate. demoteID must be one of the presented winners; otherwise
// ErrInvalidChoice is returned and the conflict stays pending.
func (a *Arbiter) ResolveCapacityConflict(demoteID int) error {
	if a.state != AwaitingCapacityConflict {
		return fmt.Errorf("resolve capacity conflict while %s: %w", a.state, ErrInvalidState)
	}

	presented := slices.ContainsFunc(a.pending.Incumbents, func(e entity.Entity) bool {
		return e.ID == demoteID
	})
	if !presented {
		return fmt.Errorf("demote %d: %w", demoteID, ErrInvalidChoice)
	}

	c := a.pending
	a.toIdle()
	return a.swap(demoteID, c.Candidate.ID)
}

// Cancel abandons the pending conflict without any mutation.
func (a *Arbiter) Cancel() error {
	if a.state == Idle {
		return fmt.Errorf("cancel while %s: %w", a.state, ErrInvalidState)
	}
	a.logger.Debug("conflict cancelled", "state", a.state, "candidate", a.pending.Candidate.ID)
	a.toIdle()
	return nil
}

// swap demotes before promoting so the limits hold after every store call.
func (a *Arbiter) swap(demoteID, promoteID int) error {
	if err := a.store.SetWinner(demoteID, false); err != nil {
		return err
	}
	if err := a.store.SetWinner(promoteID, true); err != nil {
		return err
	}
	a.logger.Debug("winner replaced", "demoted", demoteID, "promoted", promoteID)
	return nil
}

func (a *Arbiter) await(state State, candidate entity.Entity, incumbents []entity.Entity) {
	a.state = state
	a.pending = Conflict{
		State:      state,
		Candidate:  candidate,
		Incumbents: slices.Clone(incumbents),
	}
	a.logger.Debug("conflict pending", "state", state, "candidate", candidate.ID)
}

func (a *Arbiter) toIdle() {
	a.state = Idle
	a.pending = Conflict{}
}
