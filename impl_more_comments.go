package golisting

import (
	"context"
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/samber/lo"
)

const (
	// MoreBatchSize is the largest batch of pending IDs resolved by a
	// single bulk endpoint call.
	MoreBatchSize = 100

	moreChildrenURI = "api/morechildren"
	infoURI         = "api/info"

	commentKindPrefix = "t1_"
)

// MoreComments is the stock MoreNode for nested comment trees. It resolves
// pending comment IDs through one of two bulk endpoints:
//   - the tree endpoint (default): hydrates reply subtrees and may surface
//     deeper pending batches, which fold into the residual node;
//   - the fullname endpoint (SkipReplies): flat comment objects, cheaper and
//     denser per request, no reply hydration.
//
// A node never mutates itself: FetchMore returns a fresh residual node while
// the receiver keeps describing the pre-call pending set.
//
// IMPORTANT:
// The remote source does not support concurrent continuation calls against
// one comment tree for the same account. The node does not serialize calls
// in-process; do not fan out concurrent FetchMore calls sharing one chain.
type MoreComments[T any] struct {
	requester Requester
	transform Transform[T]
	link      string
	sort      string
	data      MoreData
}

// NewMoreComments builds a continuation node for the submission identified
// by link (a fullname such as "t3_abc123"), holding data.Children as the
// pending set.
func NewMoreComments[T any](requester Requester, transform Transform[T], link string, data MoreData) *MoreComments[T] {
	if transform == nil {
		transform = DecodeChildren[T]
	}
	data.Children = slices.Clone(data.Children)

	return &MoreComments[T]{
		requester: requester,
		transform: transform,
		link:      link,
		data:      data,
	}
}

// WithSort sets the comment sort passed to the tree endpoint.
func (m *MoreComments[T]) WithSort(sort string) *MoreComments[T] {
	if m == nil {
		m = new(MoreComments[T])
	}

	m.sort = sort

	return m
}

// Children - implements MoreNode. The returned slice is shared; callers
// must not mutate it.
func (m *MoreComments[T]) Children() []string {
	if m == nil {
		return nil
	}

	return m.data.Children
}

// Link returns the fullname of the submission the pending comments belong to.
func (m *MoreComments[T]) Link() string {
	if m == nil {
		return ""
	}

	return m.link
}

// FetchMore - implements MoreNode. Resolves up to spec.Amount pending IDs
// (at most MoreBatchSize) with a single bulk endpoint call and returns the
// resolved items plus the residual node.
func (m *MoreComments[T]) FetchMore(ctx context.Context, spec FetchSpec) (MoreResult[T], error) {
	pending := m.Children()
	if spec.Amount <= 0 || len(pending) == 0 {
		return MoreResult[T]{Rest: m}, nil
	}

	if m.requester == nil {
		return MoreResult[T]{}, ErrNilRequester
	}

	n := spec.Amount
	if n > MoreBatchSize {
		n = MoreBatchSize
	}
	if n > len(pending) {
		n = len(pending)
	}

	var (
		page *RawPage
		err  error
	)
	if spec.SkipReplies {
		page, err = m.fetchByFullname(ctx, pending[:n])
	} else {
		page, err = m.fetchTree(ctx, pending[:n])
	}
	if err != nil {
		return MoreResult[T]{}, err
	}

	items, err := m.transform(page.Children)
	if err != nil {
		return MoreResult[T]{}, fmt.Errorf("failed to transform resolved comments: %w", err)
	}

	// Deeper pending batches surfaced by the tree endpoint go to the front
	// of the residual set: they belong to the comments just resolved.
	remaining := slices.Clone(pending[n:])
	if page.More != nil {
		remaining = append(slices.Clone(page.More.Children), remaining...)
	}

	restData := m.data
	restData.Children = remaining
	restData.Count = len(remaining)
	rest := &MoreComments[T]{
		requester: m.requester,
		transform: m.transform,
		link:      m.link,
		sort:      m.sort,
		data:      restData,
	}

	return MoreResult[T]{Items: items, Rest: rest}, nil
}

// fetchTree resolves one batch through the tree endpoint, hydrating reply
// subtrees.
func (m *MoreComments[T]) fetchTree(ctx context.Context, ids []string) (*RawPage, error) {
	query := url.Values{}
	query.Set("api_type", "json")
	query.Set("link_id", m.link)
	query.Set("children", strings.Join(ids, ","))
	if m.sort != "" {
		query.Set("sort", m.sort)
	}

	page, err := m.requester.Request(ctx, MethodPost, moreChildrenURI, query)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch comment tree batch: %w", err)
	}

	return page, nil
}

// fetchByFullname resolves one batch through the fullname endpoint. Cheaper,
// but replies are not hydrated.
func (m *MoreComments[T]) fetchByFullname(ctx context.Context, ids []string) (*RawPage, error) {
	fullnames := lo.Map(ids, func(id string, _ int) string {
		if strings.Contains(id, "_") {
			return id
		}

		return commentKindPrefix + id
	})

	query := url.Values{}
	query.Set("id", strings.Join(fullnames, ","))

	page, err := m.requester.Request(ctx, MethodGet, infoURI, query)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch comment batch by fullname: %w", err)
	}

	return page, nil
}

var _ MoreNode[any] = (*MoreComments[any])(nil)
