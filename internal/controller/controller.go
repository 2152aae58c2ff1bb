// Package controller implements the controller layer of AnimalBase.
//
// The controller sits between the entity store (data) and the UI (view). It
// receives user intents, mutates the store or asks the winner arbiter to
// decide, and hands back a freshly projected view.
//
// # Architecture
//
//	┌─────────┐     ┌────────────┐     ┌──────┐
//	│  Store  │ <── │ Controller │ ──> │  UI  │
//	└─────────┘     └────────────┘     └──────┘
//	     ^                │
//	     └─── Arbiter <───┘
//
// # Readiness
//
// Until Load succeeds every intent is a no-op that returns an empty view.
// A failed fetch is recorded with LoadFailed and leaves the controller in
// that inert state.
//
// # Concurrency
//
// Controller is not safe for concurrent use. The UI drives it from the
// Bubble Tea update loop, one intent at a time.
package controller

import (
	"io"

	"github.com/abelbrown/animalbase/internal/arbiter"
	"github.com/abelbrown/animalbase/internal/entity"
	"github.com/abelbrown/animalbase/internal/projection"
	"github.com/abelbrown/animalbase/internal/store"
	"github.com/charmbracelet/log"
)

// Update is the result of a winner toggle.
//
// Conflict is set when the arbiter is waiting for a decision; the view is
// not rebuilt in that case and View is the zero value.
type Update struct {
	Outcome  arbiter.Outcome
	View     projection.View
	Conflict *arbiter.Conflict
}

// Controller orchestrates store, arbiter and projection.
type Controller struct {
	store    *store.Store
	arbiter  *arbiter.Arbiter
	settings projection.Settings
	ready    bool
	err      error
	logger   *log.Logger
}

// New creates a controller over st with the given initial settings.
// logger may be nil.
func New(st *store.Store, settings projection.Settings, logger *log.Logger) *Controller {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Controller{
		store:    st,
		arbiter:  arbiter.New(st, logger.WithPrefix("arbiter")),
		settings: settings,
		logger:   logger,
	}
}

// Load replaces the collection and marks the controller ready.
// Skipped records are logged as warnings and reported in the summary.
func (c *Controller) Load(records []entity.Record) (store.LoadSummary, error) {
	summary, err := c.store.Load(records)
	if err != nil {
		c.logger.Error("load failed", "error", err)
		return summary, err
	}

	c.arbiter.Reset()
	c.ready = true
	c.err = nil

	for _, e := range summary.Errors {
		c.logger.Warn("skipped record", "error", e)
	}
	c.logger.Info("collection loaded", "loaded", summary.Loaded, "skipped", summary.Skipped)
	return summary, nil
}

// LoadFailed records a data source failure. The controller stays inert.
func (c *Controller) LoadFailed(err error) {
	c.err = err
	c.logger.Error("data source failed", "error", err)
}

// Ready reports whether a load has succeeded.
func (c *Controller) Ready() bool {
	return c.ready
}

// Err returns the last data source failure, if any.
func (c *Controller) Err() error {
	return c.err
}

// Settings returns the current view settings.
func (c *Controller) Settings() projection.Settings {
	return c.settings
}

// Categories returns the categories available for filtering.
func (c *Controller) Categories() []string {
	if !c.ready {
		return nil
	}
	return c.store.Categories()
}

// Pending returns the conflict awaiting a decision, if any.
func (c *Controller) Pending() (arbiter.Conflict, bool) {
	return c.arbiter.Pending()
}

// Rebuild projects the current store snapshot with the current settings.
func (c *Controller) Rebuild() projection.View {
	if !c.ready {
		return projection.Project(nil, c.settings)
	}
	return projection.Project(c.store.All(), c.settings)
}

// ApplyFilter sets the filter and rebuilds.
func (c *Controller) ApplyFilter(filterBy string) projection.View {
	if !c.ready {
		return c.Rebuild()
	}
	c.settings.FilterBy = filterBy
	c.logger.Debug("filter applied", "filter", filterBy)
	return c.Rebuild()
}

// ApplySort sorts by field. Selecting the current field again flips the
// direction; a new field starts ascending.
func (c *Controller) ApplySort(field projection.Field) projection.View {
	if !c.ready {
		return c.Rebuild()
	}
	if field == c.settings.SortBy {
		c.settings.Direction = c.settings.Direction.Flip()
	} else {
		c.settings.SortBy = field
		c.settings.Direction = projection.Ascending
	}
	c.logger.Debug("sort applied", "field", field, "direction", c.settings.Direction)
	return c.Rebuild()
}

// ToggleStar inverts the starred flag of id and rebuilds.
func (c *Controller) ToggleStar(id int) (projection.View, error) {
	if !c.ready {
		return c.Rebuild(), nil
	}
	e, err := c.store.Get(id)
	if err != nil {
		return projection.View{}, err
	}
	if err := c.store.SetStar(id, !e.Starred); err != nil {
		return projection.View{}, err
	}
	return c.Rebuild(), nil
}

// ToggleWinner asks the arbiter to toggle id. When the arbiter needs a
// decision the conflict is returned instead of a rebuilt view.
func (c *Controller) ToggleWinner(id int) (Update, error) {
	if !c.ready {
		return Update{View: c.Rebuild()}, nil
	}
	outcome, err := c.arbiter.RequestWinner(id)
	if err != nil {
		return Update{}, err
	}
	if outcome == arbiter.OutcomePending {
		conflict, _ := c.arbiter.Pending()
		return Update{Outcome: outcome, Conflict: &conflict}, nil
	}
	return Update{Outcome: outcome, View: c.Rebuild()}, nil
}

// ResolveCategoryConflict forwards the decision to the arbiter and rebuilds.
func (c *Controller) ResolveCategoryConflict(accept bool) (projection.View, error) {
	if !c.ready {
		return c.Rebuild(), nil
	}
	if err := c.arbiter.ResolveCategoryConflict(accept); err != nil {
		return projection.View{}, err
	}
	return c.Rebuild(), nil
}

// ResolveCapacityConflict forwards the chosen winner to the arbiter and rebuilds.
func (c *Controller) ResolveCapacityConflict(demoteID int) (projection.View, error) {
	if !c.ready {
		return c.Rebuild(), nil
	}
	if err := c.arbiter.ResolveCapacityConflict(demoteID); err != nil {
		return projection.View{}, err
	}
	return c.Rebuild(), nil
}

// CancelConflict abandons the pending conflict and rebuilds.
func (c *Controller) CancelConflict() (projection.View, error) {
	if !c.ready {
		return c.Rebuild(), nil
	}
	if err := c.arbiter.Cancel(); err != nil {
		return projection.View{}, err
	}
	return c.Rebuild(), nil
}
