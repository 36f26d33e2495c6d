package convert

import "errors"

var (
	// ErrNoMatch is returned when no rule in a chain accepted an entry and the
	// caller required a match.
	ErrNoMatch = errors.New("no rule matched")
	// ErrChainNotFound is returned when looking up an unregistered chain name.
	ErrChainNotFound = errors.New("conversion chain not found")
	// ErrChainExists is returned when registering a chain name twice.
	ErrChainExists = errors.New("conversion chain already registered")
	// ErrBadPriority is returned when registering a rule with a priority that
	// is not an ordinary number.
	ErrBadPriority = errors.New("rule priority must be a finite number")
)
