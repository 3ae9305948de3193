package db

import (
	"errors"
	"fmt"
	"strings"

	"github.com/surrealdb/surrealdb.go"

	"github.com/raphaelgruber/convostore-go/internal/store"
)

// ErrTransactionConflict indicates a SurrealDB transaction conflict. Concurrent
// appends to the same conversation can collide on the position index; the
// store retries these a bounded number of times.
var ErrTransactionConflict = errors.New("transaction conflict")

// notFoundMarker is the THROW message used inside append scripts when the
// target conversation does not exist.
const notFoundMarker = "conversation not found"

// wrapQueryError inspects a SurrealDB error and wraps it with the appropriate
// sentinel if it matches a known pattern. Returns the original error
// otherwise.
func wrapQueryError(err error) error {
	if err == nil {
		return nil
	}

	var queryErr *surrealdb.QueryError
	if errors.As(err, &queryErr) {
		msg := queryErr.Message
		if strings.Contains(msg, notFoundMarker) {
			return fmt.Errorf("%w: %s", store.ErrNotFound, msg)
		}
		if strings.Contains(msg, "Transaction conflict") {
			return fmt.Errorf("%w: %s", ErrTransactionConflict, msg)
		}
	}

	// RPC-level errors carry the THROW text too on some server versions.
	if strings.Contains(err.Error(), notFoundMarker) {
		return fmt.Errorf("%w: %s", store.ErrNotFound, err)
	}

	return err
}
