package golisting

import (
	"context"
	"net/url"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func Test_Archive_Source_Paging(t *testing.T) {
	sqlMockFnList := []func() (string, *gorm.DB, sqlmock.Sqlmock, error){
		newGORMMySQLMock,
		newGORMPostgresMock,
	}

	for _, mockFn := range sqlMockFnList {
		dialect, db, mock, err := mockFn()
		require.NoError(t, err)

		t.Run(dialect, func(t *testing.T) {
			src := NewArchive(db).Source("golang")

			// limit 2 reads 3 rows: the extra one proves a next page exists.
			mock.ExpectQuery(`SELECT \* FROM .listing_archive. WHERE feed = (\?|\$1) ORDER BY position ASC LIMIT 3`).
				WillReturnRows(sqlmock.NewRows([]string{"id", "feed", "position", "payload"}).
					AddRow(1, "golang", 0, []byte(`"p1"`)).
					AddRow(2, "golang", 1, []byte(`"p2"`)).
					AddRow(3, "golang", 2, []byte(`"p3"`)))

			page, err := src.Request(context.Background(), MethodGet, "", url.Values{"limit": {"2"}})
			require.NoError(t, err)

			require.Len(t, page.Children, 2)
			require.NotNil(t, page.After)
			assert.Equal(t, "1", *page.After)

			// The final page comes back short, with no continuation token.
			mock.ExpectQuery(`SELECT \* FROM .listing_archive. WHERE feed = (\?|\$1) AND position > (\?|\$2) ORDER BY position ASC LIMIT 3`).
				WillReturnRows(sqlmock.NewRows([]string{"id", "feed", "position", "payload"}).
					AddRow(3, "golang", 2, []byte(`"p3"`)))

			page, err = src.Request(context.Background(), MethodGet, "", url.Values{
				"limit": {"2"},
				"after": {*page.After},
			})
			require.NoError(t, err)

			require.Len(t, page.Children, 1)
			require.Nil(t, page.After)

			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func Test_Archive_Source_InvalidParams(t *testing.T) {
	_, db, _, err := newGORMMySQLMock()
	require.NoError(t, err)

	src := NewArchive(db).Source("golang")

	_, err = src.Request(context.Background(), MethodGet, "", url.Values{"limit": {"abc"}})
	require.Error(t, err)

	_, err = src.Request(context.Background(), MethodGet, "", url.Values{"after": {"abc"}})
	require.Error(t, err)
}

func Test_Archive_Append(t *testing.T) {
	_, db, mock, err := newGORMMySQLMock()
	require.NoError(t, err)

	archive := NewArchive(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT COALESCE\(MAX\(position\), -1\) \+ 1 FROM .listing_archive. WHERE feed = \?`).
		WillReturnRows(sqlmock.NewRows([]string{"next"}).AddRow(2))
	mock.ExpectExec(`INSERT INTO .listing_archive.`).
		WillReturnResult(sqlmock.NewResult(1, 2))
	mock.ExpectCommit()

	err = archive.Append(context.Background(), "golang", rawStrings("p3", "p4"))
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func Test_Archive_Append_Empty(t *testing.T) {
	_, db, mock, err := newGORMMySQLMock()
	require.NoError(t, err)

	// No rows, no round trips.
	require.NoError(t, NewArchive(db).Append(context.Background(), "golang", nil))
	require.NoError(t, mock.ExpectationsWereMet())
}

func Test_AppendItems_MarshalsTyped(t *testing.T) {
	_, db, mock, err := newGORMMySQLMock()
	require.NoError(t, err)

	type post struct {
		ID string `json:"id"`
	}

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT COALESCE\(MAX\(position\), -1\) \+ 1`).
		WillReturnRows(sqlmock.NewRows([]string{"next"}).AddRow(0))
	mock.ExpectExec(`INSERT INTO .listing_archive.`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err = AppendItems(context.Background(), NewArchive(db), "golang", []post{{ID: "p1"}})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

// An archived feed replays through the same Listing engine as a live one.
func Test_Archive_ListingReplay(t *testing.T) {
	_, db, mock, err := newGORMMySQLMock()
	require.NoError(t, err)

	src := NewArchive(db).Source("golang")
	l := New(Config[string]{Requester: src, SourceURI: "archive://golang"})

	mock.ExpectQuery(`SELECT \* FROM .listing_archive. WHERE feed = \? ORDER BY position ASC LIMIT 3`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "feed", "position", "payload"}).
			AddRow(1, "golang", 0, []byte(`"p1"`)).
			AddRow(2, "golang", 1, []byte(`"p2"`)))

	got, err := l.FetchMore(context.Background(), FetchSpec{Amount: 2})
	require.NoError(t, err)

	require.Equal(t, []string{"p1", "p2"}, got.Items())
	require.True(t, got.IsFinished())
	require.NoError(t, mock.ExpectationsWereMet())
}
