package golisting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/samber/lo"
)

const (
	// DefaultBaseURL is the API host continuation URIs are resolved against.
	DefaultBaseURL = "https://oauth.reddit.com/"

	defaultUserAgent   = "golisting/1.0"
	defaultHTTPTimeout = 30 * time.Second

	// maxResponseBytes caps how much of a response body is read.
	maxResponseBytes = 8 << 20

	kindListing = "Listing"
	kindMore    = "more"
)

// HTTPConfig describes an HTTPRequester. Zero-valued fields fall back to the
// documented defaults.
type HTTPConfig struct {
	// BaseURL host that relative continuation URIs resolve against.
	// Defaults to DefaultBaseURL.
	BaseURL string
	// Client underlying HTTP client. Auth, retries and rate limiting belong
	// to its transport, not to this layer. Defaults to a plain client with
	// a 30s timeout.
	Client *http.Client
	// UserAgent sent with every request.
	UserAgent string
	// Logger for per-request debug records. Defaults to slog.Default().
	Logger *slog.Logger
}

// HTTPRequester is the stock net/http-backed Requester. It issues exactly
// one request per call and decodes the listing envelope into a RawPage,
// splitting any "more" placeholders out of the children at assembly time.
//
// Safe for concurrent use.
type HTTPRequester struct {
	base      *url.URL
	client    *http.Client
	userAgent string
	logger    *slog.Logger
}

func NewHTTPRequester(cfg HTTPConfig) (*HTTPRequester, error) {
	rawBase := lo.CoalesceOrEmpty(cfg.BaseURL, DefaultBaseURL)
	if !strings.HasSuffix(rawBase, "/") {
		rawBase += "/"
	}

	base, err := url.Parse(rawBase)
	if err != nil {
		return nil, fmt.Errorf("failed to parse base url: %w", err)
	}

	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: defaultHTTPTimeout}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &HTTPRequester{
		base:      base,
		client:    client,
		userAgent: lo.CoalesceOrEmpty(cfg.UserAgent, defaultUserAgent),
		logger:    logger,
	}, nil
}

// Request - implements Requester.
func (h *HTTPRequester) Request(ctx context.Context, method Method, uri string, query url.Values) (*RawPage, error) {
	if !method.Valid() {
		return nil, fmt.Errorf("invalid request method '%s'", method)
	}

	ref, err := url.Parse(strings.TrimPrefix(uri, "/"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse uri '%s': %w", uri, err)
	}
	u := h.base.ResolveReference(ref)

	q := u.Query()
	for k, vs := range query {
		for _, v := range vs {
			q.Set(k, v)
		}
	}
	q.Set("raw_json", "1")

	var (
		body        io.Reader
		contentType string
	)
	if method == MethodPost {
		u.RawQuery = ""
		body = strings.NewReader(q.Encode())
		contentType = "application/x-www-form-urlencoded"
	} else {
		u.RawQuery = q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, string(method), u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", h.userAgent)
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	started := time.Now()
	resp, err := h.client.Do(req)
	if err != nil {
		return nil, err
	}

	b, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if len(b) > 1024 {
			b = b[:1024]
		}
		return nil, fmt.Errorf("%s %s: unexpected status %d %q", method, uri, resp.StatusCode, string(b))
	}

	h.logger.Debug("page fetched",
		slog.String("method", string(method)),
		slog.String("uri", uri),
		slog.Int("status", resp.StatusCode),
		slog.Duration("elapsed", time.Since(started)),
	)

	return ParseListing(bytes.TrimSpace(b))
}

type thing struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

type listingData struct {
	Children []thing `json:"children"`
	After    *string `json:"after"`
	Before   *string `json:"before"`
}

type listingEnvelope struct {
	Kind string      `json:"kind"`
	Data listingData `json:"data"`
}

type moreChildrenEnvelope struct {
	JSON *struct {
		Data struct {
			Things []thing `json:"things"`
		} `json:"data"`
	} `json:"json"`
}

// ParseListing decodes one page payload into a RawPage. Three shapes are
// accepted:
//   - the plain listing envelope {"kind":"Listing","data":{...}};
//   - the two-element submission/comments payload, of which the comments
//     element is taken;
//   - the tree endpoint envelope {"json":{"data":{"things":[...]}}}.
//
// Every "more" placeholder met among the children is folded into the single
// RawPage.More marker instead of being returned as an item.
func ParseListing(data []byte) (*RawPage, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("empty page payload")
	}

	if data[0] == '[' {
		var parts []json.RawMessage
		if err := json.Unmarshal(data, &parts); err != nil {
			return nil, fmt.Errorf("failed to decode multipart payload: %w", err)
		}
		if len(parts) < 2 {
			return nil, fmt.Errorf("multipart payload has %d elements, want 2", len(parts))
		}

		// parts[0] is the submission listing; the comments come second.
		return ParseListing(parts[1])
	}

	var envelope listingEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode listing envelope: %w", err)
	}

	if envelope.Kind != kindListing {
		var tree moreChildrenEnvelope
		if err := json.Unmarshal(data, &tree); err != nil || tree.JSON == nil {
			return nil, fmt.Errorf("unrecognized page payload of kind '%s'", envelope.Kind)
		}

		page, err := assemblePage(tree.JSON.Data.Things)
		if err != nil {
			return nil, err
		}

		return page, nil
	}

	page, err := assemblePage(envelope.Data.Children)
	if err != nil {
		return nil, err
	}
	page.After = normalizeCursor(envelope.Data.After)
	page.Before = normalizeCursor(envelope.Data.Before)

	return page, nil
}

// assemblePage separates items from continuation markers.
func assemblePage(children []thing) (*RawPage, error) {
	page := &RawPage{}
	for i, child := range children {
		if child.Kind != kindMore {
			page.Children = append(page.Children, child.Data)
			continue
		}

		var data MoreData
		if err := json.Unmarshal(child.Data, &data); err != nil {
			return nil, fmt.Errorf("failed to decode continuation marker %d: %w", i, err)
		}

		if page.More == nil {
			page.More = &data
		} else {
			page.More.Children = append(page.More.Children, data.Children...)
			page.More.Count += data.Count
		}
	}

	return page, nil
}

// normalizeCursor treats the empty token the same as null: no further page.
func normalizeCursor(p *string) *string {
	if p == nil || *p == "" {
		return nil
	}

	return p
}

var _ Requester = (*HTTPRequester)(nil)
