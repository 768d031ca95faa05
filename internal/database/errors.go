package database

import "errors"

var (
	// ErrRecordNotFound is a distinct, retryable condition: status updates
	// can arrive before the local record exists and the sender is expected
	// to retry.
	ErrRecordNotFound = errors.New("record not found")

	// ErrActiveVersion is returned when deleting a version that is
	// currently active.
	ErrActiveVersion = errors.New("active version cannot be deleted")

	// ErrApprovalResolved is returned when deciding an approval that was
	// already approved or rejected. The gate is one-shot.
	ErrApprovalResolved = errors.New("approval already resolved")
)
