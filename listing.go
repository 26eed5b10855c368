package golisting

import (
	"iter"
	"net/url"
	"slices"
	"strconv"

	"github.com/samber/lo"
)

// ShowAll disables server-side filtering of hidden items.
const ShowAll = "all"

// Config describes a Listing to be built. Zero-valued fields fall back to
// the documented defaults; everything else is taken as-is.
type Config[T any] struct {
	// Requester performs the underlying paginated requests. It is shared by
	// reference across every Listing derived from this one. A Listing
	// without a Requester is usable as a static snapshot but cannot fetch.
	Requester Requester

	// SourceURI endpoint for continuation requests. Empty means the Listing
	// is already complete and terminal.
	SourceURI string

	// Method HTTP verb for continuation requests. Defaults to MethodGet.
	Method Method

	// Query extra fixed request parameters merged into every page request
	// (e.g. sort, context). Copied on construction.
	Query url.Values

	// Show server-side filtering mode, passed through on every request.
	// Defaults to ShowAll.
	Show string

	// Transform applied to every freshly fetched page before merging.
	// Defaults to DecodeChildren.
	Transform Transform[T]

	// IsCommentList marks a listing of nested comments under a submission.
	// Switches pagination to the two-tier comment-tree strategy whenever a
	// continuation marker is present.
	IsCommentList bool

	// LinkFullname fullname of the submission the comments belong to.
	// Used by the default continuation-marker factory; comment listings only.
	LinkFullname string

	// After, Before seed pagination tokens. Empty means the feed has not
	// been paginated in that direction yet.
	After  string
	Before string

	// More pending continuation node. Comment listings only.
	More MoreNode[T]

	// NewMore builds a MoreNode from a trailing continuation marker met
	// during regular pagination. Defaults to a MoreComments factory bound
	// to Requester, Transform and LinkFullname.
	NewMore func(MoreData) MoreNode[T]

	// Items pre-materialized elements. Copied on construction.
	Items []T
}

// Listing is an ordered, partially fetched collection of remote items plus
// the pagination state needed to fetch the rest.
//
// A Listing is immutable once constructed: every fetch operation returns a
// new Listing and leaves the receiver untouched, so independent fetch chains
// never share mutable state. Only the Requester handle is shared, by
// reference, across derived Listings.
type Listing[T any] struct {
	items         []T
	after         *string
	before        *string
	primed        bool
	query         url.Values
	show          string
	transform     Transform[T]
	method        Method
	isCommentList bool
	sourceURI     string
	more          MoreNode[T]
	newMore       func(MoreData) MoreNode[T]
	requester     Requester
}

// New builds a Listing from cfg, applying defaults to unset fields.
func New[T any](cfg Config[T]) *Listing[T] {
	l := &Listing[T]{
		items:         slices.Clone(cfg.Items),
		query:         cloneQuery(cfg.Query),
		show:          lo.CoalesceOrEmpty(cfg.Show, ShowAll),
		transform:     cfg.Transform,
		method:        cfg.Method,
		isCommentList: cfg.IsCommentList,
		sourceURI:     cfg.SourceURI,
		more:          cfg.More,
		newMore:       cfg.NewMore,
		requester:     cfg.Requester,
	}

	if l.transform == nil {
		l.transform = DecodeChildren[T]
	}
	if l.method == "" {
		l.method = MethodGet
	}
	if cfg.After != "" {
		l.after = lo.ToPtr(cfg.After)
		l.primed = true
	}
	if cfg.Before != "" {
		l.before = lo.ToPtr(cfg.Before)
		l.primed = true
	}
	if l.newMore == nil {
		requester, transform, link := l.requester, l.transform, cfg.LinkFullname
		l.newMore = func(data MoreData) MoreNode[T] {
			return NewMoreComments(requester, transform, link, data)
		}
	}

	return l
}

// Len returns the number of items materialized so far.
func (l *Listing[T]) Len() int {
	if l == nil {
		return 0
	}

	return len(l.items)
}

// Get returns the i-th materialized item. Panics when i is out of range,
// like a slice index.
func (l *Listing[T]) Get(i int) T {
	return l.items[i]
}

// Items returns a copy of the materialized items in server return order.
func (l *Listing[T]) Items() []T {
	if l == nil {
		return nil
	}

	return slices.Clone(l.items)
}

// All returns an iterator over the materialized items.
func (l *Listing[T]) All() iter.Seq[T] {
	if l == nil {
		return func(func(T) bool) {}
	}

	return slices.Values(l.items)
}

// After returns the forward pagination token of the last page fetched.
// ok is false when no further page exists in that direction.
func (l *Listing[T]) After() (string, bool) {
	if l == nil || l.after == nil {
		return "", false
	}

	return *l.after, true
}

// Before returns the backward pagination token of the last page fetched.
// ok is false when no further page exists in that direction.
func (l *Listing[T]) Before() (string, bool) {
	if l == nil || l.before == nil {
		return "", false
	}

	return *l.before, true
}

// More returns the pending continuation node, if any.
func (l *Listing[T]) More() MoreNode[T] {
	if l == nil {
		return nil
	}

	return l.more
}

// SourceURI returns the continuation endpoint. Empty means the Listing is
// terminal.
func (l *Listing[T]) SourceURI() string {
	if l == nil {
		return ""
	}

	return l.sourceURI
}

// IsCommentList reports whether this Listing represents nested comments
// under a submission.
func (l *Listing[T]) IsCommentList() bool {
	if l == nil {
		return false
	}

	return l.isCommentList
}

// IsFinished reports whether further fetch operations can still produce
// items. A comment tree is governed by its continuation node; otherwise a
// Listing is finished once it has no source, or once pagination has walked
// past the last page in both directions.
func (l *Listing[T]) IsFinished() bool {
	if l == nil {
		return true
	}

	if l.more != nil {
		return len(l.more.Children()) == 0
	}

	if l.sourceURI == "" {
		return true
	}

	return l.primed && l.after == nil && l.before == nil
}

// WithQueryParam derives a Listing whose page requests carry an extra fixed
// parameter. The receiver is left untouched.
func (l *Listing[T]) WithQueryParam(key, value string) *Listing[T] {
	dup := l.clone()
	if dup.query == nil {
		dup.query = url.Values{}
	}
	dup.query.Set(key, value)

	return dup
}

// WithShow derives a Listing with a different server-side filtering mode.
// The receiver is left untouched.
func (l *Listing[T]) WithShow(show string) *Listing[T] {
	dup := l.clone()
	dup.show = show

	return dup
}

// clone copies the snapshot state. The Requester handle and the pending
// continuation node are shared: the node is replaced, never mutated, by
// fetch operations.
func (l *Listing[T]) clone() *Listing[T] {
	if l == nil {
		return New(Config[T]{})
	}

	dup := *l
	dup.items = slices.Clone(l.items)
	dup.query = cloneQuery(l.query)
	dup.after = clonePtr(l.after)
	dup.before = clonePtr(l.before)

	return &dup
}

// requestQuery assembles the query for one continuation request: the fixed
// parameters, the filtering mode, the page limit and the current cursor.
// The forward cursor wins when both directions are set.
func (l *Listing[T]) requestQuery(limit int) url.Values {
	q := cloneQuery(l.query)
	if q == nil {
		q = url.Values{}
	}

	q.Set("limit", strconv.Itoa(limit))
	if l.show != "" {
		q.Set("show", l.show)
	}
	if l.after != nil {
		q.Set("after", *l.after)
	} else if l.before != nil {
		q.Set("before", *l.before)
	}

	return q
}

func cloneQuery(q url.Values) url.Values {
	if q == nil {
		return nil
	}

	dup := make(url.Values, len(q))
	for k, vs := range q {
		dup[k] = slices.Clone(vs)
	}

	return dup
}

func clonePtr(p *string) *string {
	if p == nil {
		return nil
	}

	return lo.ToPtr(*p)
}
