package domain

import "errors"

var (
	// Common domain errors
	ErrBusy         = errors.New("a request is already in flight")
	ErrEmptyMessage = errors.New("message is empty")
	ErrNoDocument   = errors.New("no document uploaded for this session")
	ErrNotPDF       = errors.New("only PDF files are supported")
	ErrBackend      = errors.New("backend request failed")
)
