package leads

import "errors"

var (
	// ErrNoCandidates is returned when a save carries no contact values
	ErrNoCandidates = errors.New("leads: no candidates to save")

	// ErrLeadNotFound is returned when a lead is not found
	ErrLeadNotFound = errors.New("leads: lead not found")

	// ErrEmptyStatus is returned when a status update carries no label
	ErrEmptyStatus = errors.New("leads: status label is required")
)
