package history

import (
	"errors"
	"testing"

	"github.com/dshills/reckon/internal/engine/calc"
)

func collect(m *Manager) []calc.Calculation {
	var out []calc.Calculation
	for c := range m.Entries() {
		out = append(out, c)
	}
	return out
}

func TestManagerAdd(t *testing.T) {
	m := NewManager(10)
	c := newCalc(t, calc.OpAddition, "2", "3")

	m.Add(c)

	if m.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", m.Len())
	}
	if !m.CanUndo() {
		t.Error("add should be undoable")
	}
	entries := collect(m)
	if len(entries) != 1 || !entries[0].Equal(c) {
		t.Error("Entries() did not yield the added calculation")
	}
}

func TestManagerUndoRedo(t *testing.T) {
	m := NewManager(10)
	c := newCalc(t, calc.OpAddition, "2", "3")
	m.Add(c)

	if err := m.Undo(); err != nil {
		t.Fatalf("Undo() error: %v", err)
	}
	if m.Len() != 0 {
		t.Fatalf("after undo Len() = %d, want 0", m.Len())
	}
	if !m.CanRedo() {
		t.Fatal("undo should enable redo")
	}

	if err := m.Redo(); err != nil {
		t.Fatalf("Redo() error: %v", err)
	}
	entries := collect(m)
	if len(entries) != 1 || !entries[0].Equal(c) {
		t.Error("redo did not restore the calculation")
	}
}

func TestManagerUndoEmpty(t *testing.T) {
	m := NewManager(10)

	if err := m.Undo(); !errors.Is(err, ErrNothingToUndo) {
		t.Errorf("Undo() error = %v, want ErrNothingToUndo", err)
	}
	if m.Len() != 0 || m.UndoCount() != 0 || m.RedoCount() != 0 {
		t.Error("failed undo must leave state unchanged")
	}
}

func TestManagerRedoEmpty(t *testing.T) {
	m := NewManager(10)
	m.Add(newCalc(t, calc.OpAddition, "2", "3"))

	if err := m.Redo(); !errors.Is(err, ErrNothingToRedo) {
		t.Errorf("Redo() error = %v, want ErrNothingToRedo", err)
	}
	if m.Len() != 1 {
		t.Error("failed redo must leave state unchanged")
	}
}

func TestManagerAddClearsRedo(t *testing.T) {
	m := NewManager(10)
	m.Add(newCalc(t, calc.OpAddition, "2", "3"))
	if err := m.Undo(); err != nil {
		t.Fatalf("Undo() error: %v", err)
	}
	if !m.CanRedo() {
		t.Fatal("expected redo available")
	}

	// A new branch invalidates redo.
	m.Add(newCalc(t, calc.OpSubtraction, "10", "4"))
	if m.CanRedo() {
		t.Error("Add should clear the redo stack")
	}
}

func TestManagerClear(t *testing.T) {
	m := NewManager(10)
	m.Add(newCalc(t, calc.OpAddition, "2", "3"))
	m.Add(newCalc(t, calc.OpSubtraction, "10", "4"))

	m.Clear()
	if m.Len() != 0 {
		t.Fatalf("after clear Len() = %d, want 0", m.Len())
	}

	// Clear is itself undoable.
	if err := m.Undo(); err != nil {
		t.Fatalf("Undo() after clear error: %v", err)
	}
	if m.Len() != 2 {
		t.Errorf("undo of clear restored %d entries, want 2", m.Len())
	}
}

func TestManagerClearClearsRedo(t *testing.T) {
	m := NewManager(10)
	m.Add(newCalc(t, calc.OpAddition, "2", "3"))
	if err := m.Undo(); err != nil {
		t.Fatalf("Undo() error: %v", err)
	}

	m.Clear()
	if m.CanRedo() {
		t.Error("Clear should clear the redo stack")
	}
}

func TestManagerMaxSize(t *testing.T) {
	m := NewManager(3)

	operands := []string{"1", "2", "3", "4", "5"}
	for _, op := range operands {
		m.Add(newCalc(t, calc.OpAddition, op, "0"))
	}

	if m.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", m.Len())
	}

	// Oldest evicted first: the most recent entries remain.
	entries := collect(m)
	for i, want := range []string{"3", "4", "5"} {
		if entries[i].Operand1.String() != want {
			t.Errorf("entry %d operand1 = %s, want %s", i, entries[i].Operand1, want)
		}
	}
}

func TestManagerSetMaxSize(t *testing.T) {
	m := NewManager(10)
	for _, op := range []string{"1", "2", "3", "4"} {
		m.Add(newCalc(t, calc.OpAddition, op, "0"))
	}

	m.SetMaxSize(2)
	if m.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", m.Len())
	}
	entries := collect(m)
	if entries[0].Operand1.String() != "3" || entries[1].Operand1.String() != "4" {
		t.Error("SetMaxSize should evict oldest entries first")
	}

	m.SetMaxSize(0)
	if m.MaxSize() != DefaultMaxSize {
		t.Errorf("MaxSize() = %d, want default %d", m.MaxSize(), DefaultMaxSize)
	}
}

func TestManagerReplace(t *testing.T) {
	m := NewManager(10)
	m.Add(newCalc(t, calc.OpAddition, "2", "3"))

	loaded := sampleHistory(t)
	m.Replace(loaded)

	if m.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", m.Len())
	}
	// Replace is wholesale, not a merge, and not undoable as its own step:
	// the undo stack still holds only the snapshot from the earlier Add.
	if m.UndoCount() != 1 {
		t.Errorf("UndoCount() = %d, want 1", m.UndoCount())
	}
}

func TestManagerSnapshotIsolation(t *testing.T) {
	m := NewManager(10)
	m.Add(newCalc(t, calc.OpAddition, "2", "3"))

	snapshot := m.Snapshot()
	m.Add(newCalc(t, calc.OpSubtraction, "10", "4"))

	if len(snapshot.History) != 1 {
		t.Error("later mutation altered a taken snapshot")
	}

	m.Restore(snapshot)
	if m.Len() != 1 {
		t.Errorf("Restore() left %d entries, want 1", m.Len())
	}
}

func TestManagerEntriesRestartable(t *testing.T) {
	m := NewManager(10)
	m.Add(newCalc(t, calc.OpAddition, "2", "3"))
	m.Add(newCalc(t, calc.OpSubtraction, "10", "4"))

	seq := m.Entries()
	first := 0
	for range seq {
		first++
		break // Early exit must not poison later iterations.
	}
	second := 0
	for range seq {
		second++
	}
	if first != 1 || second != 2 {
		t.Errorf("iteration counts = %d, %d; want 1, 2", first, second)
	}
}

func TestManagerUndoRedoInverse(t *testing.T) {
	m := NewManager(10)
	m.Add(newCalc(t, calc.OpAddition, "2", "3"))
	m.Add(newCalc(t, calc.OpMultiplication, "3", "5"))
	before := collect(m)

	c := newCalc(t, calc.OpSubtraction, "10", "4")
	m.Add(c)
	if err := m.Undo(); err != nil {
		t.Fatalf("Undo() error: %v", err)
	}

	restored := collect(m)
	if len(restored) != len(before) {
		t.Fatalf("undo restored %d entries, want %d", len(restored), len(before))
	}
	for i := range before {
		if !restored[i].Equal(before[i]) {
			t.Errorf("entry %d differs after undo", i)
		}
	}

	if err := m.Redo(); err != nil {
		t.Fatalf("Redo() error: %v", err)
	}
	after := collect(m)
	if len(after) != len(before)+1 || !after[len(after)-1].Equal(c) {
		t.Error("redo did not restore the post-add state")
	}
}
