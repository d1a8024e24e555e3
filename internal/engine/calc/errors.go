package calc

import "errors"

// Errors returned by calculation construction and the operation registry.
var (
	// ErrUnknownOperation indicates the operation name is not registered.
	ErrUnknownOperation = errors.New("unknown operation")

	// ErrInvalidOperand indicates an operand is not valid for the operation.
	ErrInvalidOperand = errors.New("invalid operand")

	// ErrDivisionByZero indicates a division with a zero divisor.
	ErrDivisionByZero = errors.New("division by zero")
)
