package submissions

import "errors"

var (
	// ErrUnknownKind is returned for a form kind with no schema
	ErrUnknownKind = errors.New("submissions: unknown form kind")

	// ErrRateLimited is returned when the sender exceeded the velocity limit
	ErrRateLimited = errors.New("submissions: too many submissions")

	// ErrSubmissionNotFound is returned when a submission is not found
	ErrSubmissionNotFound = errors.New("submissions: submission not found")
)
