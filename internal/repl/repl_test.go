package repl

import (
	"bytes"
	"io"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/dshills/reckon/internal/config"
	"github.com/dshills/reckon/internal/engine"
)

// step is one scripted ReadLine outcome.
type step struct {
	line string
	err  error
}

// stepReader plays back scripted lines and errors, standing in for an
// interactive reader that can be interrupted mid-read.
type stepReader struct {
	steps []step
}

func (s *stepReader) ReadLine(string) (string, error) {
	if len(s.steps) == 0 {
		return "", io.EOF
	}
	next := s.steps[0]
	s.steps = s.steps[1:]
	return next.line, next.err
}

// runScript feeds the commands to a fresh REPL and returns everything it
// printed. Auto-save is off unless the test opts in.
func runScript(t *testing.T, opts Options, commands ...string) string {
	t.Helper()
	return runScriptIn(t, t.TempDir(), opts, commands...)
}

func runScriptIn(t *testing.T, dir string, opts Options, commands ...string) string {
	t.Helper()

	cal, err := engine.New(config.Default(dir))
	if err != nil {
		t.Fatalf("engine.New() error: %v", err)
	}
	t.Cleanup(cal.Close)

	var out bytes.Buffer
	in := NewScannerReader(strings.NewReader(strings.Join(commands, "\n")+"\n"), &out)
	r := New(cal, in, &out, opts)
	if err := r.Run(); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	return out.String()
}

func wantOutput(t *testing.T, output string, fragments ...string) {
	t.Helper()
	for _, fragment := range fragments {
		if !strings.Contains(output, fragment) {
			t.Errorf("output missing %q\noutput:\n%s", fragment, output)
		}
	}
}

func TestExit(t *testing.T) {
	output := runScript(t, Options{}, "exit")
	wantOutput(t, output, "Goodbye!")
}

func TestExitAutoSave(t *testing.T) {
	output := runScript(t, Options{AutoSave: alwaysOn}, "add", "2", "3", "exit")
	wantOutput(t, output, "History saved successfully", "Goodbye!")
}

func alwaysOn() bool { return true }

func TestExitAutoSaveLiveValue(t *testing.T) {
	cal, err := engine.New(config.Default(t.TempDir()))
	if err != nil {
		t.Fatalf("engine.New() error: %v", err)
	}
	t.Cleanup(cal.Close)

	// Auto-save is off when the session starts and turns on mid-session,
	// as a config reload would do. The exit save must see the new value.
	var autoSave atomic.Bool
	var out bytes.Buffer
	in := NewScannerReader(strings.NewReader("add\n2\n3\nexit\n"), &out)
	r := New(cal, in, &out, Options{AutoSave: autoSave.Load})

	autoSave.Store(true)
	if err := r.Run(); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	wantOutput(t, out.String(), "History saved successfully", "Goodbye!")
}

func TestHelp(t *testing.T) {
	output := runScript(t, Options{}, "help", "exit")
	wantOutput(t, output, "\nAvailable commands:", "undo", "redo", "save", "load")
}

func TestArithmeticCommands(t *testing.T) {
	tests := []struct {
		command  string
		operand1 string
		operand2 string
		want     string
	}{
		{"add", "10", "5", "\nResult: 15"},
		{"subtract", "10", "4", "\nResult: 6"},
		{"multiply", "3", "7", "\nResult: 21"},
		{"divide", "20", "4", "\nResult: 5"},
		{"power", "2", "8", "\nResult: 256"},
		{"root", "27", "3", "\nResult: 3"},
	}

	for _, tt := range tests {
		t.Run(tt.command, func(t *testing.T) {
			output := runScript(t, Options{}, tt.command, tt.operand1, tt.operand2, "exit")
			wantOutput(t, output, tt.want)
		})
	}
}

func TestCancelFirstOperand(t *testing.T) {
	output := runScript(t, Options{}, "add", "cancel", "history", "exit")
	wantOutput(t, output, "Operation cancelled", "No calculations in history")
}

func TestCancelSecondOperand(t *testing.T) {
	output := runScript(t, Options{}, "add", "5", "cancel", "history", "exit")
	wantOutput(t, output, "Operation cancelled", "No calculations in history")
}

func TestInterruptDuringOperandEntry(t *testing.T) {
	cal, err := engine.New(config.Default(t.TempDir()))
	if err != nil {
		t.Fatalf("engine.New() error: %v", err)
	}
	t.Cleanup(cal.Close)

	// Ctrl-C at the first operand prompt aborts the operation, not the
	// session, and never reaches operand parsing.
	in := &stepReader{steps: []step{
		{line: "add"},
		{err: ErrInterrupted},
		{line: "history"},
		{line: "exit"},
	}}
	var out bytes.Buffer
	r := New(cal, in, &out, Options{})
	if err := r.Run(); err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	wantOutput(t, out.String(), "Operation cancelled", "No calculations in history", "Goodbye!")
	if strings.Contains(out.String(), "is not a number") {
		t.Errorf("interrupt was parsed as an operand:\n%s", out.String())
	}
}

func TestInterruptAtCommandPrompt(t *testing.T) {
	cal, err := engine.New(config.Default(t.TempDir()))
	if err != nil {
		t.Fatalf("engine.New() error: %v", err)
	}
	t.Cleanup(cal.Close)

	in := &stepReader{steps: []step{
		{err: ErrInterrupted},
		{line: "exit"},
	}}
	var out bytes.Buffer
	r := New(cal, in, &out, Options{})
	if err := r.Run(); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	wantOutput(t, out.String(), "\nOperation cancelled", "Goodbye!")
}

func TestInvalidOperand(t *testing.T) {
	output := runScript(t, Options{}, "add", "abc", "3", "history", "exit")
	wantOutput(t, output, "Error", "No calculations in history")
}

func TestDivisionByZero(t *testing.T) {
	output := runScript(t, Options{}, "divide", "10", "0", "history", "exit")
	wantOutput(t, output, "Error", "No calculations in history")
}

func TestHistoryEmpty(t *testing.T) {
	output := runScript(t, Options{}, "history", "exit")
	wantOutput(t, output, "No calculations in history")
}

func TestHistoryWithEntries(t *testing.T) {
	output := runScript(t, Options{}, "add", "2", "3", "history", "exit")
	wantOutput(t, output, "\nCalculation History:", "1. Addition(2, 3) = 5")
}

func TestClear(t *testing.T) {
	output := runScript(t, Options{}, "add", "2", "3", "clear", "history", "exit")
	wantOutput(t, output, "History cleared", "No calculations in history")
}

func TestUndoWithHistory(t *testing.T) {
	output := runScript(t, Options{}, "add", "2", "3", "undo", "history", "exit")
	wantOutput(t, output, "Operation undone", "No calculations in history")
}

func TestUndoEmpty(t *testing.T) {
	output := runScript(t, Options{}, "undo", "exit")
	wantOutput(t, output, "Nothing to undo")
}

func TestRedoWithHistory(t *testing.T) {
	output := runScript(t, Options{}, "add", "2", "3", "undo", "redo", "history", "exit")
	wantOutput(t, output, "Operation redone", "1. Addition(2, 3) = 5")
}

func TestRedoEmpty(t *testing.T) {
	output := runScript(t, Options{}, "redo", "exit")
	wantOutput(t, output, "Nothing to redo")
}

func TestSaveSuccess(t *testing.T) {
	output := runScript(t, Options{}, "add", "2", "3", "save", "exit")
	wantOutput(t, output, "History saved successfully")
}

func TestLoadSuccess(t *testing.T) {
	dir := t.TempDir()
	runScriptIn(t, dir, Options{}, "add", "2", "3", "save", "exit")

	output := runScriptIn(t, dir, Options{}, "load", "history", "exit")
	wantOutput(t, output, "History loaded successfully", "1. Addition(2, 3) = 5")
}

func TestLoadFailure(t *testing.T) {
	output := runScript(t, Options{}, "load", "exit")
	wantOutput(t, output, "Error loading history")
}

func TestUnknownCommand(t *testing.T) {
	output := runScript(t, Options{}, "foobar", "exit")
	wantOutput(t, output, "Unknown command")
}

func TestEOF(t *testing.T) {
	output := runScript(t, Options{}, "add", "2", "3")
	wantOutput(t, output, "\nInput terminated. Exiting...")
}

func TestBlankLinesIgnored(t *testing.T) {
	output := runScript(t, Options{}, "", "  ", "exit")
	wantOutput(t, output, "Goodbye!")
	if strings.Contains(output, "Unknown command") {
		t.Error("blank lines should not be dispatched as commands")
	}
}

func TestCommands(t *testing.T) {
	cal, err := engine.New(config.Default(t.TempDir()))
	if err != nil {
		t.Fatal(err)
	}
	defer cal.Close()

	r := New(cal, NewScannerReader(strings.NewReader(""), &bytes.Buffer{}), &bytes.Buffer{}, Options{})
	cmds := r.Commands()

	want := map[string]bool{
		"add": true, "subtract": true, "multiply": true, "divide": true,
		"power": true, "root": true, "history": true, "clear": true,
		"undo": true, "redo": true, "save": true, "load": true,
		"help": true, "exit": true,
	}
	for _, cmd := range cmds {
		delete(want, cmd)
	}
	if len(want) != 0 {
		t.Errorf("Commands() missing %v", want)
	}
}
