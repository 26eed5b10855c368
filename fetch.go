package golisting

import (
	"context"
	"fmt"
)

// FetchOptions carries the strategy knobs shared by every fetch operation.
type FetchOptions struct {
	// SkipReplies selects the cheaper bulk endpoint when resolving pending
	// comments: more items per request, but nested replies are not
	// hydrated. Comment listings only; ignored elsewhere.
	SkipReplies bool
}

// FetchSpec is the structured parameter of FetchMore.
type FetchSpec struct {
	// Amount maximum number of new items to fetch. Unbounded fetches until
	// the source is exhausted; zero or negative short-circuits to a clone.
	Amount int

	FetchOptions
}

// FetchMore returns a new Listing extended by up to spec.Amount freshly
// fetched items. The receiver is never mutated.
//
// The call recurses, one network fetch per step, until the amount is
// satisfied or the source is exhausted; the result may legitimately hold
// fewer than spec.Amount new items when the source runs dry. Transport
// failures are propagated to the caller without retries.
//
// An already-finished Listing, or spec.Amount <= 0, returns an equal clone
// with no network activity.
//
// IMPORTANT:
// Unbounded against a live, endlessly refilling feed recurses indefinitely.
// That is a caller risk, not a bug.
func (l *Listing[T]) FetchMore(ctx context.Context, spec FetchSpec) (*Listing[T], error) {
	if spec.Amount <= 0 || l.IsFinished() {
		return l.clone(), nil
	}

	if l.requester == nil {
		return nil, ErrNilRequester
	}

	if l.more != nil {
		return l.fetchMoreComments(ctx, spec)
	}

	return l.fetchMoreRegular(ctx, spec)
}

// FetchAll returns a new Listing extended until the source is exhausted.
func (l *Listing[T]) FetchAll(ctx context.Context, opts FetchOptions) (*Listing[T], error) {
	return l.FetchMore(ctx, FetchSpec{Amount: Unbounded, FetchOptions: opts})
}

// FetchUntil returns a new Listing grown to at least length items in total.
// A target at or below the current length is a no-op clone. A negative
// target fails with ErrInvalidLength before any network activity.
func (l *Listing[T]) FetchUntil(ctx context.Context, length int, opts FetchOptions) (*Listing[T], error) {
	if length < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLength, length)
	}

	return l.FetchMore(ctx, FetchSpec{Amount: length - l.Len(), FetchOptions: opts})
}

// fetchMoreRegular walks the cursor chain: one page request, merge, then
// recurse with the residual amount.
func (l *Listing[T]) fetchMoreRegular(ctx context.Context, spec FetchSpec) (*Listing[T], error) {
	// One extra row on comment listings so a trailing continuation marker
	// cannot displace a real item within the page limit.
	limit := ClampPageSize(spec.Amount)
	if l.isCommentList {
		limit++
	}

	page, err := l.requester.Request(ctx, l.method, l.sourceURI, l.requestQuery(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch page: %w", err)
	}

	items, err := l.transform(page.Children)
	if err != nil {
		return nil, fmt.Errorf("failed to transform page: %w", err)
	}
	if len(items) > spec.Amount {
		items = items[:spec.Amount]
	}

	clone := l.clone()
	clone.items = append(clone.items, items...)
	clone.after = clonePtr(page.After)
	clone.before = clonePtr(page.Before)
	clone.primed = true
	if page.More != nil {
		clone.more = l.newMore(*page.More)
	}

	// An empty page that still advertises a cursor would otherwise spin
	// forever; treat it as exhausted.
	if len(items) == 0 || len(items) >= spec.Amount || clone.IsFinished() {
		return clone, nil
	}

	return clone.FetchMore(ctx, FetchSpec{
		Amount:       spec.Amount - len(items),
		FetchOptions: spec.FetchOptions,
	})
}

// fetchMoreComments delegates one batch to the continuation node, merges the
// resolved items and swaps in the residual node.
func (l *Listing[T]) fetchMoreComments(ctx context.Context, spec FetchSpec) (*Listing[T], error) {
	res, err := l.more.FetchMore(ctx, spec)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch pending comments: %w", err)
	}

	clone := l.clone()
	clone.items = append(clone.items, res.Items...)
	clone.more = res.Rest

	if len(res.Items) == 0 || len(res.Items) >= spec.Amount || clone.IsFinished() {
		return clone, nil
	}

	return clone.FetchMore(ctx, FetchSpec{
		Amount:       spec.Amount - len(res.Items),
		FetchOptions: spec.FetchOptions,
	})
}
