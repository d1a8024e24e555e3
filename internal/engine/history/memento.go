package history

import (
	"errors"
	"fmt"
	"time"

	"github.com/dshills/reckon/internal/engine/calc"
	"github.com/shopspring/decimal"
)

// ErrMalformedSnapshot indicates memento data that cannot be reconstructed:
// required keys are missing or a value fails to parse. It should not occur
// under normal operation; callers treat it as fatal to the restoring
// operation and leave state unchanged.
var ErrMalformedSnapshot = errors.New("malformed snapshot")

// timeLayout is the wire encoding for timestamps. RFC 3339 with nanoseconds
// round-trips time.Time without loss.
const timeLayout = time.RFC3339Nano

// Memento is an immutable snapshot of the calculation history at a point in
// time. The history slice is a value copy; the live sequence and the memento
// never share mutable state.
type Memento struct {
	History   []calc.Calculation
	Timestamp time.Time
}

// NewMemento snapshots the given history.
func NewMemento(history []calc.Calculation) *Memento {
	snapshot := make([]calc.Calculation, len(history))
	copy(snapshot, history)
	return &Memento{
		History:   snapshot,
		Timestamp: time.Now(),
	}
}

// ToMap converts the memento to a plain nested structure: a "history" slice
// of per-calculation maps with string-encoded decimal fields and RFC 3339
// timestamps, and the snapshot "timestamp". Pure; no side effects.
func (m *Memento) ToMap() map[string]any {
	entries := make([]any, len(m.History))
	for i, c := range m.History {
		entries[i] = map[string]any{
			"operation": c.Operation,
			"operand1":  c.Operand1.String(),
			"operand2":  c.Operand2.String(),
			"result":    c.Result.String(),
			"timestamp": c.Timestamp.Format(timeLayout),
		}
	}
	return map[string]any{
		"history":   entries,
		"timestamp": m.Timestamp.Format(timeLayout),
	}
}

// FromMap reconstructs a memento from the structure ToMap produces.
// It is the exact inverse: FromMap(m.ToMap()) equals m in history content
// and timestamp. Fails with ErrMalformedSnapshot on missing keys or
// unparseable values.
func FromMap(data map[string]any) (*Memento, error) {
	rawTS, ok := data["timestamp"]
	if !ok {
		return nil, fmt.Errorf("%w: missing key %q", ErrMalformedSnapshot, "timestamp")
	}
	ts, err := parseTime(rawTS)
	if err != nil {
		return nil, err
	}

	rawHistory, ok := data["history"]
	if !ok {
		return nil, fmt.Errorf("%w: missing key %q", ErrMalformedSnapshot, "history")
	}
	entries, ok := rawHistory.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: history is %T, want a sequence", ErrMalformedSnapshot, rawHistory)
	}

	history := make([]calc.Calculation, 0, len(entries))
	for i, raw := range entries {
		entry, ok := raw.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: history entry %d is %T, want a map", ErrMalformedSnapshot, i, raw)
		}
		c, err := calculationFromMap(entry)
		if err != nil {
			return nil, fmt.Errorf("history entry %d: %w", i, err)
		}
		history = append(history, c)
	}

	return &Memento{History: history, Timestamp: ts}, nil
}

func calculationFromMap(entry map[string]any) (calc.Calculation, error) {
	operation, err := stringField(entry, "operation")
	if err != nil {
		return calc.Calculation{}, err
	}
	operand1, err := decimalField(entry, "operand1")
	if err != nil {
		return calc.Calculation{}, err
	}
	operand2, err := decimalField(entry, "operand2")
	if err != nil {
		return calc.Calculation{}, err
	}
	result, err := decimalField(entry, "result")
	if err != nil {
		return calc.Calculation{}, err
	}

	rawTS, ok := entry["timestamp"]
	if !ok {
		return calc.Calculation{}, fmt.Errorf("%w: missing key %q", ErrMalformedSnapshot, "timestamp")
	}
	ts, err := parseTime(rawTS)
	if err != nil {
		return calc.Calculation{}, err
	}

	return calc.Calculation{
		Operation: operation,
		Operand1:  operand1,
		Operand2:  operand2,
		Result:    result,
		Timestamp: ts,
	}, nil
}

func stringField(entry map[string]any, key string) (string, error) {
	raw, ok := entry[key]
	if !ok {
		return "", fmt.Errorf("%w: missing key %q", ErrMalformedSnapshot, key)
	}
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s is %T, want string", ErrMalformedSnapshot, key, raw)
	}
	return s, nil
}

func decimalField(entry map[string]any, key string) (decimal.Decimal, error) {
	s, err := stringField(entry, key)
	if err != nil {
		return decimal.Decimal{}, err
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %s %q is not a decimal", ErrMalformedSnapshot, key, s)
	}
	return d, nil
}

func parseTime(raw any) (time.Time, error) {
	s, ok := raw.(string)
	if !ok {
		return time.Time{}, fmt.Errorf("%w: timestamp is %T, want string", ErrMalformedSnapshot, raw)
	}
	ts, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: timestamp %q is not RFC 3339", ErrMalformedSnapshot, s)
	}
	return ts, nil
}
