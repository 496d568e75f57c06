// SPDX-License-Identifier: Apache-2.0

package backend

import "fmt"

// TransactionError wraps a driver-level failure with a short human context
// string identifying the step that failed ("error starting transaction",
// "error applying migration V3__x", ...). The original cause is preserved
// for inspection via errors.Unwrap/errors.As.
type TransactionError struct {
	Context string
	Cause   error
}

func (e *TransactionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Context, e.Cause)
}

func (e *TransactionError) Unwrap() error {
	return e.Cause
}

// Wrap returns nil if err is nil, otherwise a *TransactionError carrying
// context and err.
func Wrap(context string, err error) error {
	if err == nil {
		return nil
	}
	return &TransactionError{Context: context, Cause: err}
}
