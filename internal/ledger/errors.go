package ledger

import (
	"errors"
	"fmt"
)

// ErrTransactionNotFound is returned when a transaction id does not exist for
// the requesting owner.
var ErrTransactionNotFound = errors.New("transaction not found")

// InsufficientPositionError rejects a sell that exceeds the currently held
// quantity. The check runs before anything is persisted, so the ledger is
// never left partially mutated.
type InsufficientPositionError struct {
	Symbol    string
	Requested int64
	Held      int64
}

func (e *InsufficientPositionError) Error() string {
	return fmt.Sprintf("insufficient position in %s: requested %d, holding %d", e.Symbol, e.Requested, e.Held)
}

// InvalidInputError rejects malformed transaction requests before they reach
// the database.
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
