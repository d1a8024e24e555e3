// Package persist stores calculation history durably: a tabular CSV file for
// the history itself and a JSON snapshot for full memento state.
package persist

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dshills/reckon/internal/engine/calc"
	"github.com/shopspring/decimal"
)

// header is the CSV column layout. Operand and result fields are exact
// decimal string encodings; timestamps are RFC 3339.
var header = []string{"operation", "operand1", "operand2", "result", "timestamp"}

const timeLayout = time.RFC3339Nano

// Store reads and writes calculation history as CSV at a fixed path.
type Store struct {
	path string
}

// NewStore creates a store for the given file path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the file path the store persists to.
func (s *Store) Path() string {
	return s.path
}

// Save writes the history to the store path, one row per calculation with a
// leading header row. The write goes through a temp file and rename, so a
// failed save never leaves a truncated history file behind.
func (s *Store) Save(history []calc.Calculation) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return &PersistError{Op: "save", Path: s.path, Err: err}
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".history-*.csv")
	if err != nil {
		return &PersistError{Op: "save", Path: s.path, Err: err}
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	w := csv.NewWriter(tmp)
	if err := w.Write(header); err != nil {
		return &PersistError{Op: "save", Path: s.path, Err: err}
	}
	for _, c := range history {
		row := []string{
			c.Operation,
			c.Operand1.String(),
			c.Operand2.String(),
			c.Result.String(),
			c.Timestamp.Format(timeLayout),
		}
		if err := w.Write(row); err != nil {
			return &PersistError{Op: "save", Path: s.path, Err: err}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return &PersistError{Op: "save", Path: s.path, Err: err}
	}

	if err := tmp.Close(); err != nil {
		return &PersistError{Op: "save", Path: s.path, Err: err}
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return &PersistError{Op: "save", Path: s.path, Err: err}
	}
	return nil
}

// Load reads the full history back from the store path.
// Every row must parse into valid calculation fields; a missing file,
// unreadable file, or malformed row fails the whole load.
func (s *Store) Load() ([]calc.Calculation, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, &PersistError{Op: "load", Path: s.path, Err: err}
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(header)

	rows, err := r.ReadAll()
	if err != nil {
		return nil, &PersistError{Op: "load", Path: s.path, Err: err}
	}
	if len(rows) == 0 {
		return nil, &PersistError{Op: "load", Path: s.path, Err: fmt.Errorf("missing header row")}
	}
	for i, col := range header {
		if rows[0][i] != col {
			return nil, &PersistError{Op: "load", Path: s.path, Err: fmt.Errorf("unexpected header %v", rows[0])}
		}
	}

	history := make([]calc.Calculation, 0, len(rows)-1)
	for i, row := range rows[1:] {
		c, err := parseRow(row)
		if err != nil {
			return nil, &PersistError{Op: "load", Path: s.path, Err: fmt.Errorf("row %d: %w", i+1, err)}
		}
		history = append(history, c)
	}
	return history, nil
}

func parseRow(row []string) (calc.Calculation, error) {
	operand1, err := decimal.NewFromString(row[1])
	if err != nil {
		return calc.Calculation{}, fmt.Errorf("operand1 %q: %w", row[1], err)
	}
	operand2, err := decimal.NewFromString(row[2])
	if err != nil {
		return calc.Calculation{}, fmt.Errorf("operand2 %q: %w", row[2], err)
	}
	result, err := decimal.NewFromString(row[3])
	if err != nil {
		return calc.Calculation{}, fmt.Errorf("result %q: %w", row[3], err)
	}
	ts, err := time.Parse(timeLayout, row[4])
	if err != nil {
		return calc.Calculation{}, fmt.Errorf("timestamp %q: %w", row[4], err)
	}

	return calc.Calculation{
		Operation: row[0],
		Operand1:  operand1,
		Operand2:  operand2,
		Result:    result,
		Timestamp: ts,
	}, nil
}
