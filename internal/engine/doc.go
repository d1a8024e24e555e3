// Package engine provides the calculator facade: it owns the operation
// registry, the undoable history, and the persistence stores, and publishes
// events so observers (logging, auto-save) can react without coupling.
//
// The facade is the only entry point the REPL needs:
//
//	cal, err := engine.New(cfg)
//	c, err := cal.PerformOperation("add", "10", "5")
//	cal.Undo()
//	cal.Redo()
//	cal.SaveHistory()
//
// Every operation is atomic with respect to history state: a failed
// operation leaves the live history, the undo stack, and the redo stack
// exactly as they were.
package engine
