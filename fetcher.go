package golisting

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
)

// Method defines the HTTP verb used for continuation requests.
type Method string

const (
	MethodGet  Method = "GET"
	MethodPost Method = "POST"
)

func (m Method) Valid() bool {
	return m == MethodGet || m == MethodPost
}

// RawPage is a single page of a paginated response as produced by a
// Requester. Items and the trailing continuation marker are separated at
// page-assembly time: Children never contains a "more" placeholder.
type RawPage struct {
	// Children raw items, in server return order.
	Children []json.RawMessage
	// After token for the next page. Nil means no further page forward.
	After *string
	// Before token for the previous page. Nil means no further page backward.
	Before *string
	// More trailing continuation marker. Present only on comment listings
	// whose page ended in a batch of not-yet-fetched descendants.
	More *MoreData
}

// MoreData is the wire payload of a "more" placeholder: the IDs of
// descendant comments that were elided from the page.
type MoreData struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	ParentID string   `json:"parent_id"`
	Depth    int      `json:"depth"`
	Count    int      `json:"count"`
	Children []string `json:"children"`
}

// Requester issues a single paginated network call. Implementations own the
// transport concerns (auth, retries, rate limiting, timeouts); the listing
// core never retries and propagates any error as-is.
//
// A Requester must be safe for concurrent use: one handle is shared by
// reference across every Listing derived from the same fetch chain.
type Requester interface {
	Request(ctx context.Context, method Method, uri string, query url.Values) (*RawPage, error)
}

// RequesterFunc is a function adapter that implements Requester.
type RequesterFunc func(ctx context.Context, method Method, uri string, query url.Values) (*RawPage, error)

func (f RequesterFunc) Request(ctx context.Context, method Method, uri string, query url.Values) (*RawPage, error) {
	return f(ctx, method, uri, query)
}

// Transform deserializes the raw items of a freshly fetched page before they
// are merged into a Listing.
type Transform[T any] func(children []json.RawMessage) ([]T, error)

// DecodeChildren is the default Transform: it decodes every raw child into T
// with encoding/json. For T = json.RawMessage it is the identity.
func DecodeChildren[T any](children []json.RawMessage) ([]T, error) {
	ret := make([]T, 0, len(children))
	for i, raw := range children {
		var item T
		if err := json.Unmarshal(raw, &item); err != nil {
			return nil, fmt.Errorf("failed to decode child %d: %w", i, err)
		}

		ret = append(ret, item)
	}

	return ret, nil
}

var _ Requester = (RequesterFunc)(nil)
