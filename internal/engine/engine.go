package engine

import (
	"fmt"
	"iter"

	"github.com/dshills/reckon/internal/config"
	"github.com/dshills/reckon/internal/engine/calc"
	"github.com/dshills/reckon/internal/engine/history"
	"github.com/dshills/reckon/internal/engine/persist"
	"github.com/dshills/reckon/internal/event"
	"github.com/dshills/reckon/internal/plugin"
)

// Calculator coordinates the operation registry, the undoable history, and
// persistence. It is the single entry point the REPL talks to.
type Calculator struct {
	registry *calc.Registry
	history  *history.Manager
	store    *persist.Store
	snapshot string
	events   *event.Dispatcher
	host     *plugin.Host
}

// Option configures a Calculator.
type Option func(*Calculator) error

// WithPlugin registers the plugin host's operations and ties its lifetime to
// the calculator.
func WithPlugin(host *plugin.Host) Option {
	return func(c *Calculator) error {
		if err := host.RegisterInto(c.registry); err != nil {
			return err
		}
		c.host = host
		return nil
	}
}

// WithDispatcher replaces the event dispatcher.
func WithDispatcher(d *event.Dispatcher) Option {
	return func(c *Calculator) error {
		if d != nil {
			c.events = d
		}
		return nil
	}
}

// New creates a calculator from a validated configuration.
// Construction failure is fatal to the process; everything after
// construction is recoverable at the REPL boundary.
func New(cfg config.Config, opts ...Option) (*Calculator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.EnsureDirs(); err != nil {
		return nil, fmt.Errorf("preparing data directories: %w", err)
	}

	c := &Calculator{
		registry: calc.NewRegistry(calc.WithPrecision(cfg.Precision)),
		history:  history.NewManager(cfg.MaxHistorySize),
		store:    persist.NewStore(cfg.HistoryPath()),
		snapshot: cfg.SnapshotPath(),
		events:   event.NewDispatcher(),
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Events returns the dispatcher observers subscribe to.
func (c *Calculator) Events() *event.Dispatcher {
	return c.events
}

// Operations returns all operation names, built-in and plugin, sorted.
func (c *Calculator) Operations() []string {
	return c.registry.Names()
}

// PerformOperation parses the operand strings, computes the calculation, and
// adds it to the history. The history is untouched when parsing or the
// operation itself fails.
func (c *Calculator) PerformOperation(operation, operand1, operand2 string) (calc.Calculation, error) {
	a, err := calc.ParseOperand(operand1)
	if err != nil {
		return calc.Calculation{}, err
	}
	b, err := calc.ParseOperand(operand2)
	if err != nil {
		return calc.Calculation{}, err
	}

	result, err := calc.New(c.registry, operation, a, b)
	if err != nil {
		return calc.Calculation{}, err
	}

	c.history.Add(result)
	c.events.Publish(event.CalculationAdded{Calculation: result})
	return result, nil
}

// Undo restores the most recent pre-mutation state.
// history.ErrNothingToUndo is an expected status, not a failure.
func (c *Calculator) Undo() error {
	if err := c.history.Undo(); err != nil {
		return err
	}
	c.events.Publish(event.HistoryRestored{Cause: "undo", Entries: c.history.Len()})
	return nil
}

// Redo reverses the most recent undo.
func (c *Calculator) Redo() error {
	if err := c.history.Redo(); err != nil {
		return err
	}
	c.events.Publish(event.HistoryRestored{Cause: "redo", Entries: c.history.Len()})
	return nil
}

// ClearHistory empties the history. The clear itself is undoable.
func (c *Calculator) ClearHistory() {
	c.history.Clear()
	c.events.Publish(event.HistoryCleared{})
}

// History returns a lazy, restartable sequence over the calculation history
// in chronological order.
func (c *Calculator) History() iter.Seq[calc.Calculation] {
	return c.history.Entries()
}

// HistoryLen returns the number of calculations in the history.
func (c *Calculator) HistoryLen() int {
	return c.history.Len()
}

// CanUndo returns true if undo is available.
func (c *Calculator) CanUndo() bool {
	return c.history.CanUndo()
}

// CanRedo returns true if redo is available.
func (c *Calculator) CanRedo() bool {
	return c.history.CanRedo()
}

// SaveHistory persists the current history to the configured CSV file.
func (c *Calculator) SaveHistory() error {
	snapshot := c.history.Snapshot()
	if err := c.store.Save(snapshot.History); err != nil {
		return err
	}
	c.events.Publish(event.HistorySaved{Path: c.store.Path(), Entries: len(snapshot.History)})
	return nil
}

// LoadHistory replaces the live history with the persisted one.
// The replacement is wholesale (never a merge) and sits outside the undo
// chain. On failure the live history is untouched.
func (c *Calculator) LoadHistory() error {
	loaded, err := c.store.Load()
	if err != nil {
		return err
	}
	c.history.Replace(loaded)
	c.events.Publish(event.HistoryLoaded{Path: c.store.Path(), Entries: len(loaded)})
	return nil
}

// SaveSnapshot writes the full memento state as JSON.
func (c *Calculator) SaveSnapshot() error {
	return persist.SaveSnapshot(c.snapshot, c.history.Snapshot())
}

// LoadSnapshot restores history from the JSON snapshot, outside the undo
// chain. Corrupt snapshots fail the load and leave state unchanged.
func (c *Calculator) LoadSnapshot() error {
	m, err := persist.LoadSnapshot(c.snapshot)
	if err != nil {
		return err
	}
	c.history.Restore(m)
	c.events.Publish(event.HistoryLoaded{Path: c.snapshot, Entries: len(m.History)})
	return nil
}

// SetMaxHistorySize applies a new history bound, evicting oldest entries if
// needed. Used by configuration live reload.
func (c *Calculator) SetMaxHistorySize(n int) {
	c.history.SetMaxSize(n)
}

// Close releases resources held by plugins.
func (c *Calculator) Close() {
	if c.host != nil {
		c.host.Close()
	}
}
