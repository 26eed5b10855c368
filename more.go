package golisting

import "context"

// MoreResult is the outcome of resolving one batch of a MoreNode.
type MoreResult[T any] struct {
	// Items comments materialized by this batch.
	Items []T
	// Rest the node representing what is still pending. A node with no
	// children marks the tree as fully resolved; nil drops tree-mode
	// pagination entirely and lets the Listing fall back to its cursors.
	Rest MoreNode[T]
}

// MoreNode represents a pending batch of not-yet-fetched nested comments.
// It is itself recursively fetchable: FetchMore resolves a prefix of the
// pending IDs into full items and returns a residual node for the rest.
//
// Implementations must not mutate themselves in place: the pre-call node
// stays valid for the Listing snapshot that references it.
type MoreNode[T any] interface {
	// Children returns the IDs of the comments that are still pending.
	Children() []string

	// FetchMore resolves up to spec.Amount pending IDs with a single bulk
	// endpoint call.
	FetchMore(ctx context.Context, spec FetchSpec) (MoreResult[T], error)
}
