package services

import "errors"

var (
	// ErrUnsupportedView rejects edit requests for any view other than
	// front. The workflow's contract is "edit the front view, then
	// regenerate dependent views"; silently editing the wrong view would
	// corrupt product identity.
	ErrUnsupportedView = errors.New("view editing not supported")

	// ErrNotApproved rejects a fan-out whose approval gate has not been
	// approved.
	ErrNotApproved = errors.New("front view has not been approved")

	// ErrUnauthenticated fails any operation without a resolved user
	// identity. There is no anonymous execution path.
	ErrUnauthenticated = errors.New("authentication required")

	// ErrMissingViews rejects a 3D submission without the minimum view
	// set.
	ErrMissingViews = errors.New("front and back view images are required")
)
