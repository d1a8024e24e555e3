// Package repl implements the interactive command loop: command dispatch,
// operand prompting with a cancel token, and user-facing status messages.
// The loop reads lines through a LineReader, so tests drive it with scripted
// input while the binary drives it with an interactive prompt.
package repl

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/dshills/reckon/internal/engine"
	"github.com/dshills/reckon/internal/engine/calc"
	"github.com/dshills/reckon/internal/engine/history"
)

// cancelToken aborts operand entry without running the operation.
const cancelToken = "cancel"

// commandAliases maps REPL commands to built-in operation names.
var commandAliases = map[string]string{
	"add":      calc.OpAddition,
	"subtract": calc.OpSubtraction,
	"multiply": calc.OpMultiplication,
	"divide":   calc.OpDivision,
	"power":    calc.OpPower,
	"root":     calc.OpRoot,
}

// REPL is the interactive calculator session.
type REPL struct {
	cal      *engine.Calculator
	in       LineReader
	out      io.Writer
	autoSave func() bool

	// operations maps every runnable command to its operation name.
	operations map[string]string
}

// Options configures a REPL.
type Options struct {
	// AutoSave reports whether exit should persist the history once more.
	// It is consulted at exit time, not session start, so configuration
	// reloads mid-session take effect. Nil means off.
	AutoSave func() bool
}

// New creates a REPL over the given calculator.
func New(cal *engine.Calculator, in LineReader, out io.Writer, opts Options) *REPL {
	r := &REPL{
		cal:        cal,
		in:         in,
		out:        out,
		autoSave:   opts.AutoSave,
		operations: make(map[string]string),
	}

	registered := make(map[string]bool)
	for cmd, op := range commandAliases {
		r.operations[cmd] = op
		registered[op] = true
	}
	// Plugin operations run under their own names.
	for _, op := range cal.Operations() {
		if !registered[op] {
			r.operations[strings.ToLower(op)] = op
		}
	}
	return r
}

// Commands returns every accepted command, sorted. Used by completion.
func (r *REPL) Commands() []string {
	cmds := make([]string, 0, len(r.operations)+8)
	for cmd := range r.operations {
		cmds = append(cmds, cmd)
	}
	cmds = append(cmds, "history", "clear", "undo", "redo", "save", "load", "help", "exit")
	sort.Strings(cmds)
	return cmds
}

// Run processes commands until exit or end of input.
func (r *REPL) Run() error {
	fmt.Fprintln(r.out, "Calculator started. Type 'help' for commands.")

	for {
		line, err := r.in.ReadLine("\nEnter command: ")
		if err != nil {
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(r.out, "\nInput terminated. Exiting...")
				return nil
			}
			if errors.Is(err, ErrInterrupted) {
				fmt.Fprintln(r.out, "\nOperation cancelled")
				continue
			}
			fmt.Fprintf(r.out, "Error: %v\n", err)
			continue
		}

		cmd := strings.ToLower(strings.TrimSpace(line))
		if cmd == "" {
			continue
		}
		if cmd == "exit" {
			r.shutdown()
			return nil
		}

		r.dispatch(cmd)
	}
}

// dispatch runs one command. A panic anywhere below is reported as an
// unexpected error and the session continues.
func (r *REPL) dispatch(cmd string) {
	defer func() {
		if p := recover(); p != nil {
			fmt.Fprintf(r.out, "Unexpected error: %v\n", p)
		}
	}()

	switch cmd {
	case "help":
		r.printHelp()
	case "history":
		r.printHistory()
	case "clear":
		r.cal.ClearHistory()
		fmt.Fprintln(r.out, "History cleared")
	case "undo":
		r.undo()
	case "redo":
		r.redo()
	case "save":
		r.save()
	case "load":
		r.load()
	default:
		if op, ok := r.operations[cmd]; ok {
			r.perform(op)
			return
		}
		fmt.Fprintf(r.out, "Unknown command: '%s'. Type 'help' for available commands.\n", cmd)
	}
}

// perform prompts for both operands and runs the operation.
// Entering the cancel token at either prompt aborts with history untouched.
func (r *REPL) perform(operation string) {
	fmt.Fprintf(r.out, "\nEnter numbers (or '%s' to abort):\n", cancelToken)

	operand1, ok := r.readOperand("First number: ")
	if !ok {
		return
	}
	operand2, ok := r.readOperand("Second number: ")
	if !ok {
		return
	}

	c, err := r.cal.PerformOperation(operation, operand1, operand2)
	if err != nil {
		fmt.Fprintf(r.out, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(r.out, "\nResult: %s\n", c.Result)
}

// readOperand reads one operand. Returns false on cancel or end of input.
func (r *REPL) readOperand(promptText string) (string, bool) {
	line, err := r.in.ReadLine(promptText)
	if err != nil || strings.EqualFold(strings.TrimSpace(line), cancelToken) {
		fmt.Fprintln(r.out, "Operation cancelled")
		return "", false
	}
	return strings.TrimSpace(line), true
}

func (r *REPL) printHelp() {
	fmt.Fprintln(r.out, "\nAvailable commands:")

	var ops []string
	for cmd := range r.operations {
		ops = append(ops, cmd)
	}
	sort.Strings(ops)
	fmt.Fprintf(r.out, "  %s - perform a calculation\n", strings.Join(ops, ", "))
	fmt.Fprintln(r.out, "  history - show calculation history")
	fmt.Fprintln(r.out, "  clear - clear calculation history")
	fmt.Fprintln(r.out, "  undo - undo the last calculation")
	fmt.Fprintln(r.out, "  redo - redo the last undone calculation")
	fmt.Fprintln(r.out, "  save - save calculation history to file")
	fmt.Fprintln(r.out, "  load - load calculation history from file")
	fmt.Fprintln(r.out, "  exit - exit the calculator")
}

func (r *REPL) printHistory() {
	if r.cal.HistoryLen() == 0 {
		fmt.Fprintln(r.out, "No calculations in history")
		return
	}

	fmt.Fprintln(r.out, "\nCalculation History:")
	i := 0
	for c := range r.cal.History() {
		i++
		fmt.Fprintf(r.out, "%d. %s\n", i, c)
	}
}

func (r *REPL) undo() {
	err := r.cal.Undo()
	switch {
	case err == nil:
		fmt.Fprintln(r.out, "Operation undone")
	case errors.Is(err, history.ErrNothingToUndo):
		fmt.Fprintln(r.out, "Nothing to undo")
	default:
		fmt.Fprintf(r.out, "Error: %v\n", err)
	}
}

func (r *REPL) redo() {
	err := r.cal.Redo()
	switch {
	case err == nil:
		fmt.Fprintln(r.out, "Operation redone")
	case errors.Is(err, history.ErrNothingToRedo):
		fmt.Fprintln(r.out, "Nothing to redo")
	default:
		fmt.Fprintf(r.out, "Error: %v\n", err)
	}
}

func (r *REPL) save() {
	if err := r.cal.SaveHistory(); err != nil {
		fmt.Fprintf(r.out, "Error saving history: %v\n", err)
		return
	}
	fmt.Fprintln(r.out, "History saved successfully")
}

func (r *REPL) load() {
	if err := r.cal.LoadHistory(); err != nil {
		fmt.Fprintf(r.out, "Error loading history: %v\n", err)
		return
	}
	fmt.Fprintln(r.out, "History loaded successfully")
}

// shutdown runs the exit path: a final auto-save when enabled, then goodbye.
func (r *REPL) shutdown() {
	if r.autoSave != nil && r.autoSave() {
		if err := r.cal.SaveHistory(); err != nil {
			fmt.Fprintf(r.out, "Error saving history: %v\n", err)
		} else {
			fmt.Fprintln(r.out, "History saved successfully")
		}
	}
	fmt.Fprintln(r.out, "Goodbye!")
}
