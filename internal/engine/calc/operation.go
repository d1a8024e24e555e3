package calc

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/shopspring/decimal"
)

// Operation names for the built-in arithmetic operations.
const (
	OpAddition       = "Addition"
	OpSubtraction    = "Subtraction"
	OpMultiplication = "Multiplication"
	OpDivision       = "Division"
	OpPower          = "Power"
	OpRoot           = "Root"
)

// Func computes a binary arithmetic operation over exact decimals.
type Func func(a, b decimal.Decimal) (decimal.Decimal, error)

// DefaultPrecision is the number of decimal places retained by inexact
// operations (root) when no precision is configured.
const DefaultPrecision = 10

// divisionPlaces is the number of decimal places kept by division.
// Matches the arbitrary-precision behavior closely enough for interactive use
// while keeping results deterministic.
const divisionPlaces = 16

// Registry maps operation names to their compute functions.
// Built-in operations are always present; extra operations (e.g. from
// plugins) can be registered on top but can never shadow a built-in.
type Registry struct {
	mu        sync.RWMutex
	ops       map[string]Func
	precision int32
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithPrecision sets the decimal places retained by inexact operations.
func WithPrecision(places int32) RegistryOption {
	return func(r *Registry) {
		if places > 0 {
			r.precision = places
		}
	}
}

// NewRegistry creates a registry with the built-in operations.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		ops:       make(map[string]Func),
		precision: DefaultPrecision,
	}
	for _, opt := range opts {
		opt(r)
	}

	r.ops[OpAddition] = add
	r.ops[OpSubtraction] = subtract
	r.ops[OpMultiplication] = multiply
	r.ops[OpDivision] = divide
	r.ops[OpPower] = power
	r.ops[OpRoot] = r.root

	return r
}

// Register adds an operation under the given name.
// Registering over a built-in operation is rejected.
func (r *Registry) Register(name string, fn Func) error {
	if name == "" || fn == nil {
		return fmt.Errorf("%w: empty operation registration", ErrUnknownOperation)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if isBuiltin(name) {
		return fmt.Errorf("cannot replace built-in operation %q", name)
	}
	r.ops[name] = fn
	return nil
}

// Lookup returns the compute function for an operation name.
func (r *Registry) Lookup(name string) (Func, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	fn, ok := r.ops[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownOperation, name)
	}
	return fn, nil
}

// Names returns all registered operation names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.ops))
	for name := range r.ops {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func isBuiltin(name string) bool {
	switch name {
	case OpAddition, OpSubtraction, OpMultiplication, OpDivision, OpPower, OpRoot:
		return true
	}
	return false
}

func add(a, b decimal.Decimal) (decimal.Decimal, error) {
	return a.Add(b), nil
}

func subtract(a, b decimal.Decimal) (decimal.Decimal, error) {
	return a.Sub(b), nil
}

func multiply(a, b decimal.Decimal) (decimal.Decimal, error) {
	return a.Mul(b), nil
}

func divide(a, b decimal.Decimal) (decimal.Decimal, error) {
	if b.IsZero() {
		return decimal.Decimal{}, ErrDivisionByZero
	}
	return a.DivRound(b, divisionPlaces), nil
}

// power computes a^b for a non-negative integer exponent b.
func power(a, b decimal.Decimal) (decimal.Decimal, error) {
	if !b.IsInteger() || b.IsNegative() {
		return decimal.Decimal{}, fmt.Errorf("%w: exponent must be a non-negative integer, got %s", ErrInvalidOperand, b)
	}
	exp := b.IntPart()
	if exp > math.MaxInt32 {
		return decimal.Decimal{}, fmt.Errorf("%w: exponent %s too large", ErrInvalidOperand, b)
	}

	result, err := a.PowInt32(int32(exp))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %v", ErrInvalidOperand, err)
	}
	return result, nil
}

// root computes a^(1/b), the b-th root of a.
// The computation goes through float64, so the result is rounded to the
// registry precision to absorb representation error (root(27, 3) is exactly 3).
func (r *Registry) root(a, b decimal.Decimal) (decimal.Decimal, error) {
	if b.IsZero() {
		return decimal.Decimal{}, fmt.Errorf("%w: zero root degree", ErrInvalidOperand)
	}
	if a.IsNegative() {
		return decimal.Decimal{}, fmt.Errorf("%w: root of negative number %s is not real", ErrInvalidOperand, a)
	}

	base := a.InexactFloat64()
	degree := b.InexactFloat64()
	result := math.Pow(base, 1/degree)
	if math.IsNaN(result) || math.IsInf(result, 0) {
		return decimal.Decimal{}, fmt.Errorf("%w: root(%s, %s) has no real result", ErrInvalidOperand, a, b)
	}

	return decimal.NewFromFloat(result).Round(r.precision), nil
}
