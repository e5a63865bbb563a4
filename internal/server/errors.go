package server

import "errors"

var (
	ErrAlreadyRunning = errors.New("server: already running")
	ErrNotRunning     = errors.New("server: not running")
	ErrClientGone     = errors.New("server: client disconnected")
)
