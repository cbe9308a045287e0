package history

import "errors"

// Sentinel kinds for history errors.
var (
	ErrCorruptSnapshot = errors.New("corrupt history snapshot")
)
