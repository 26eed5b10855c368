package golisting

import "errors"

var (
	// ErrInvalidLength is returned by FetchUntil when the target length is
	// negative. Raised before any network activity.
	ErrInvalidLength = errors.New("golisting: target length must not be negative")

	// ErrNilRequester is returned when a fetch operation needs the network
	// but the Listing carries no Requester.
	ErrNilRequester = errors.New("golisting: requester is nil")
)
