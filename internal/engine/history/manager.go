package history

import (
	"errors"
	"iter"
	"sync"

	"github.com/dshills/reckon/internal/engine/calc"
)

// Common errors for history operations. Empty-stack undo/redo is an expected
// outcome; callers check with errors.Is and report it as a status, not a
// failure.
var (
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNothingToRedo = errors.New("nothing to redo")
)

// DefaultMaxSize bounds the live history when no limit is configured.
const DefaultMaxSize = 1000

// Manager owns the live calculation sequence and the undo/redo memento
// stacks. Every mutating operation is atomic: it either completes fully or
// leaves all three parts of the state untouched.
type Manager struct {
	mu sync.Mutex

	history   []calc.Calculation
	undoStack []*Memento
	redoStack []*Memento

	maxSize int
}

// NewManager creates a history manager bounded to maxSize calculations.
func NewManager(maxSize int) *Manager {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &Manager{maxSize: maxSize}
}

// Add appends a calculation to the live history.
// The pre-mutation state is pushed onto the undo stack and the redo stack is
// cleared: a new calculation starts a new branch of history. Oldest entries
// are evicted first when the bound is exceeded.
func (m *Manager) Add(c calc.Calculation) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.pushUndoLocked()
	m.history = append(m.history, c)
	m.trimLocked()
}

// Undo restores the most recent pre-mutation snapshot.
// Returns ErrNothingToUndo, with state unchanged, when the undo stack is
// empty. The replaced state moves to the redo stack; nothing is discarded.
func (m *Manager) Undo() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.undoStack) == 0 {
		return ErrNothingToUndo
	}

	m.redoStack = append(m.redoStack, NewMemento(m.history))

	memento := m.undoStack[len(m.undoStack)-1]
	m.undoStack = m.undoStack[:len(m.undoStack)-1]
	m.restoreLocked(memento)
	return nil
}

// Redo reverses the most recent Undo.
// Returns ErrNothingToRedo, with state unchanged, when the redo stack is
// empty.
func (m *Manager) Redo() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.redoStack) == 0 {
		return ErrNothingToRedo
	}

	m.undoStack = append(m.undoStack, NewMemento(m.history))

	memento := m.redoStack[len(m.redoStack)-1]
	m.redoStack = m.redoStack[:len(m.redoStack)-1]
	m.restoreLocked(memento)
	return nil
}

// Clear empties the live history. Like Add, it pushes the pre-mutation
// snapshot onto the undo stack and clears the redo stack, so a clear is
// itself undoable.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.pushUndoLocked()
	m.history = nil
}

// Replace swaps in a new live history wholesale, without touching the undo
// stack. Used by load: restoring persisted history is not an undoable user
// action. The bound still applies.
func (m *Manager) Replace(history []calc.Calculation) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.history = make([]calc.Calculation, len(history))
	copy(m.history, history)
	m.trimLocked()
}

// Snapshot returns a memento of the current live history.
func (m *Manager) Snapshot() *Memento {
	m.mu.Lock()
	defer m.mu.Unlock()
	return NewMemento(m.history)
}

// Restore replaces the live history from a memento, outside the undo chain.
func (m *Manager) Restore(memento *Memento) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.restoreLocked(memento)
	m.trimLocked()
}

// Entries returns a lazy, restartable sequence over the live history in
// chronological order. The sequence iterates a snapshot taken when Entries
// is called.
func (m *Manager) Entries() iter.Seq[calc.Calculation] {
	m.mu.Lock()
	snapshot := make([]calc.Calculation, len(m.history))
	copy(snapshot, m.history)
	m.mu.Unlock()

	return func(yield func(calc.Calculation) bool) {
		for _, c := range snapshot {
			if !yield(c) {
				return
			}
		}
	}
}

// Len returns the number of calculations in the live history.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.history)
}

// CanUndo returns true if undo is available.
func (m *Manager) CanUndo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.undoStack) > 0
}

// CanRedo returns true if redo is available.
func (m *Manager) CanRedo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.redoStack) > 0
}

// UndoCount returns the number of undo operations available.
func (m *Manager) UndoCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.undoStack)
}

// RedoCount returns the number of redo operations available.
func (m *Manager) RedoCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.redoStack)
}

// SetMaxSize changes the live history bound.
// If the current history is larger, oldest entries are evicted.
func (m *Manager) SetMaxSize(maxSize int) {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.maxSize = maxSize
	m.trimLocked()
}

// MaxSize returns the live history bound.
func (m *Manager) MaxSize() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.maxSize
}

func (m *Manager) pushUndoLocked() {
	m.undoStack = append(m.undoStack, NewMemento(m.history))
	m.redoStack = nil
}

func (m *Manager) restoreLocked(memento *Memento) {
	m.history = make([]calc.Calculation, len(memento.History))
	copy(m.history, memento.History)
}

func (m *Manager) trimLocked() {
	if len(m.history) > m.maxSize {
		excess := len(m.history) - m.maxSize
		m.history = append([]calc.Calculation(nil), m.history[excess:]...)
	}
}
