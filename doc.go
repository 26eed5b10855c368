package golisting

// Package golisting provides a lazily-extending, immutable listing abstraction
// over cursor-paginated remote feeds.
//
// Overview
//
// golisting models a partially fetched, ordered collection of remote items
// (posts, comments, messages) that knows how to extend itself by issuing
// further network fetches:
//   - Listing: an immutable snapshot of the items fetched so far plus the
//     pagination cursors needed to fetch the rest. Every fetch operation
//     returns a new Listing; the receiver is never mutated.
//   - MoreNode: a pending batch of not-yet-fetched nested comments, used for
//     the two-tier pagination of comment trees. MoreComments is the stock
//     implementation.
//   - Requester: the transport boundary. HTTPRequester is the stock net/http
//     implementation; Archive replays previously saved feeds through the
//     same boundary.
//
// Key concepts
//   - FetchMore / FetchAll / FetchUntil: grow a Listing by a bounded amount,
//     until exhaustion, or to a target length.
//   - RawPage: one page of raw items plus updated cursors and an explicit
//     optional trailing continuation marker.
//
// See README for examples and usage details.
