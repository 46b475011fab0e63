package session

import (
	"errors"
	"fmt"
)

// ErrInterrupt is returned by a LineReader when the user cancels the
// current line. The loop discards the line and reads the next one.
var ErrInterrupt = errors.New("interrupted")

// PanicError wraps a value recovered from a panicking command handler.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}
