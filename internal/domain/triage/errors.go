package triage

import "errors"

var (
	ErrSessionNotFound = errors.New("triage session not found")
	ErrResultNotFound  = errors.New("no triage result available for this session")
)
