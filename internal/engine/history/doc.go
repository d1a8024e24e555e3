// Package history provides undo/redo functionality for the calculator engine.
//
// The history system uses the Memento pattern: every mutating operation takes
// an immutable snapshot of the calculation sequence before changing it, so
// earlier states can always be restored exactly. Key concepts:
//
// # Mementos
//
// A Memento is a value copy of the full calculation history plus the time the
// snapshot was taken. Later changes to the live history never alter a taken
// memento. Mementos serialize losslessly to a plain map (and therefore JSON)
// and reconstruct exactly via FromMap.
//
// # Manager
//
// The Manager owns the live calculation sequence and two memento stacks:
//
//	mgr := history.NewManager(1000) // Keep at most 1000 calculations
//
//	mgr.Add(calculation) // snapshot -> undo stack, redo stack cleared
//	mgr.Undo()           // snapshot -> redo stack, restore from undo stack
//	mgr.Redo()           // symmetric
//	mgr.Clear()          // undoable wholesale erase
//
// Undo and redo move snapshots between the two stacks without discarding
// anything; the only destructive transition is a new Add or Clear, which
// invalidates the redo stack (a new branch of history).
//
// # Bounds
//
// The live sequence is bounded: when an Add exceeds the configured maximum,
// the oldest entries are evicted first. The stacks themselves are bounded
// only by session length.
package history
