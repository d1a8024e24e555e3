// Package calc provides the immutable calculation record and the exact-decimal
// arithmetic operations that produce it.
package calc

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Calculation is an immutable record of one arithmetic operation: the
// operation name, both operands, the computed result, and when it happened.
// The result is derived at construction time; a Calculation never exists
// with an unset or stale result.
type Calculation struct {
	Operation string
	Operand1  decimal.Decimal
	Operand2  decimal.Decimal
	Result    decimal.Decimal
	Timestamp time.Time
}

// New computes a calculation using the given registry.
// It fails without producing a record when the operation is unknown or the
// operands violate the operation's contract.
func New(reg *Registry, operation string, operand1, operand2 decimal.Decimal) (Calculation, error) {
	fn, err := reg.Lookup(operation)
	if err != nil {
		return Calculation{}, err
	}

	result, err := fn(operand1, operand2)
	if err != nil {
		return Calculation{}, fmt.Errorf("%s(%s, %s): %w", operation, operand1, operand2, err)
	}

	return Calculation{
		Operation: operation,
		Operand1:  operand1,
		Operand2:  operand2,
		Result:    result,
		Timestamp: time.Now(),
	}, nil
}

// ParseOperand parses a user-supplied operand string into an exact decimal.
func ParseOperand(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %q is not a number", ErrInvalidOperand, s)
	}
	return d, nil
}

// Equal reports whether two calculations are the same history entry.
// All four value fields and the timestamp participate; two identical
// operations performed at different instants are distinct entries.
func (c Calculation) Equal(other Calculation) bool {
	return c.Operation == other.Operation &&
		c.Operand1.Equal(other.Operand1) &&
		c.Operand2.Equal(other.Operand2) &&
		c.Result.Equal(other.Result) &&
		c.Timestamp.Equal(other.Timestamp)
}

// String renders the calculation as a single human-readable line.
func (c Calculation) String() string {
	return fmt.Sprintf("%s(%s, %s) = %s", c.Operation, c.Operand1, c.Operand2, c.Result)
}
