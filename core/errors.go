package core

import "errors"

var (
	// ErrInvalidSpecification reports empty or malformed type/action
	// sequences, or a player left without any admissible strategy.
	ErrInvalidSpecification = errors.New("invalid specification")

	// ErrProfileSizeMismatch reports a strategy profile whose player count
	// differs from the game's.
	ErrProfileSizeMismatch = errors.New("strategy profile size mismatch")

	// ErrIndexOutOfRange reports a lookup of a type, action or strategy that
	// is not part of the relevant catalogue.
	ErrIndexOutOfRange = errors.New("index out of range")

	// ErrPayoffCountMismatch reports a payoff table whose row count differs
	// from the product of the catalogue sizes.
	ErrPayoffCountMismatch = errors.New("payoff count mismatch")
)
