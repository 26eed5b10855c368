package golisting

import (
	"context"
	"encoding/json"
	"net/url"
	"slices"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/samber/lo"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type recordedRequest struct {
	method Method
	uri    string
	query  url.Values
}

// scriptedRequester serves a fixed sequence of pages and records every call.
// Once the script is exhausted it fails with err, or serves empty pages.
type scriptedRequester struct {
	pages []*RawPage
	err   error
	calls []recordedRequest
}

func (s *scriptedRequester) Request(_ context.Context, method Method, uri string, query url.Values) (*RawPage, error) {
	s.calls = append(s.calls, recordedRequest{method: method, uri: uri, query: cloneQuery(query)})

	if len(s.pages) == 0 {
		if s.err != nil {
			return nil, s.err
		}

		return &RawPage{}, nil
	}

	page := s.pages[0]
	s.pages = s.pages[1:]

	return page, nil
}

// rawStrings encodes plain strings as raw page children, so tests can run
// the default transform with T = string.
func rawStrings(items ...string) []json.RawMessage {
	return lo.Map(items, func(item string, _ int) json.RawMessage {
		b, _ := json.Marshal(item)
		return json.RawMessage(b)
	})
}

func strPage(after *string, items ...string) *RawPage {
	return &RawPage{
		Children: rawStrings(items...),
		After:    after,
	}
}

// fakeMore resolves perCall pending IDs per batch, returning the IDs
// themselves as items.
type fakeMore struct {
	children []string
	perCall  int
}

func (f *fakeMore) Children() []string {
	return f.children
}

func (f *fakeMore) FetchMore(_ context.Context, spec FetchSpec) (MoreResult[string], error) {
	n := spec.Amount
	if n > f.perCall {
		n = f.perCall
	}
	if n > len(f.children) {
		n = len(f.children)
	}
	if n <= 0 {
		return MoreResult[string]{Rest: f}, nil
	}

	return MoreResult[string]{
		Items: slices.Clone(f.children[:n]),
		Rest:  &fakeMore{children: slices.Clone(f.children[n:]), perCall: f.perCall},
	}, nil
}

func newGORMMySQLMock() (string, *gorm.DB, sqlmock.Sqlmock, error) {
	mockDB, mock, err := sqlmock.New()
	if err != nil {
		return "", nil, nil, err
	}

	dialector := mysql.New(mysql.Config{
		Conn:                      mockDB,
		SkipInitializeWithVersion: true,
	})

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return "", nil, nil, err
	}

	return "mysql", db.Debug(), mock, nil
}

func newGORMPostgresMock() (string, *gorm.DB, sqlmock.Sqlmock, error) {
	mockDB, mock, err := sqlmock.New()
	if err != nil {
		return "", nil, nil, err
	}

	dialector := postgres.New(postgres.Config{
		Conn: mockDB,
	})

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return "", nil, nil, err
	}

	return "postgres", db.Debug(), mock, nil
}
