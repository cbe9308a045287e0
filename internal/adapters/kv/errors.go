package kv

import "errors"

// Sentinel kinds for store errors.
var (
	ErrConnect = errors.New("store connection failed")
	ErrClosed  = errors.New("store closed")
)
