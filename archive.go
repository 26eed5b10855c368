package golisting

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/samber/lo"
	"gorm.io/gorm"
)

// ArchivedItem is one stored element of an archived feed.
type ArchivedItem struct {
	ID       uint   `gorm:"primaryKey"`
	Feed     string `gorm:"size:128;uniqueIndex:idx_archive_feed_position,priority:1"`
	Position int    `gorm:"uniqueIndex:idx_archive_feed_position,priority:2"`
	Payload  []byte
}

func (ArchivedItem) TableName() string {
	return "listing_archive"
}

// Archive persists fetched feed items and replays them as a paginated
// source, so an archived feed walks through the same Listing engine as a
// live one. Positions are assigned append-only per feed; the replay cursor
// is a keyset continuation on the position of the last returned row.
type Archive struct {
	db *gorm.DB
}

func NewArchive(db *gorm.DB) *Archive {
	return &Archive{db: db}
}

// AutoMigrate creates the backing table.
func (a *Archive) AutoMigrate() error {
	return a.db.AutoMigrate(&ArchivedItem{})
}

// Append stores raw items at the tail of feed, preserving order.
func (a *Archive) Append(ctx context.Context, feed string, children []json.RawMessage) error {
	if len(children) == 0 {
		return nil
	}

	return a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var next int
		err := tx.Model(&ArchivedItem{}).
			Where("feed = ?", feed).
			Select("COALESCE(MAX(position), -1) + 1").
			Scan(&next).Error
		if err != nil {
			return fmt.Errorf("failed to read feed tail: %w", err)
		}

		rows := lo.Map(children, func(raw json.RawMessage, i int) ArchivedItem {
			return ArchivedItem{Feed: feed, Position: next + i, Payload: []byte(raw)}
		})

		if err = tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("failed to append archived items: %w", err)
		}

		return nil
	})
}

// AppendItems marshals typed items and stores them at the tail of feed.
func AppendItems[T any](ctx context.Context, a *Archive, feed string, items []T) error {
	children := make([]json.RawMessage, 0, len(items))
	for i, item := range items {
		b, err := json.Marshal(item)
		if err != nil {
			return fmt.Errorf("failed to marshal item %d: %w", i, err)
		}

		children = append(children, b)
	}

	return a.Append(ctx, feed, children)
}

// Source returns a Requester that serves feed page by page. The request
// method and URI are ignored; only the limit and the after token matter.
// The query reads one extra row to decide whether a next page exists, so
// the final page comes back with no continuation token.
func (a *Archive) Source(feed string) Requester {
	return RequesterFunc(func(ctx context.Context, _ Method, _ string, query url.Values) (*RawPage, error) {
		limit := DefaultPageSize
		if raw := query.Get("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil {
				return nil, fmt.Errorf("invalid limit '%s': %w", raw, err)
			}
			limit = ClampPageSizeMax(parsed, MaxPageSize)
		}

		q := a.db.WithContext(ctx).Where("feed = ?", feed)
		if after := query.Get("after"); after != "" {
			pos, err := strconv.Atoi(after)
			if err != nil {
				return nil, fmt.Errorf("invalid after token '%s': %w", after, err)
			}
			q = q.Where("position > ?", pos)
		}

		var rows []ArchivedItem
		if err := q.Order("position ASC").Limit(limit + 1).Find(&rows).Error; err != nil {
			return nil, fmt.Errorf("failed to read archived page: %w", err)
		}

		page := &RawPage{}
		if len(rows) > limit {
			rows = rows[:limit]
			page.After = lo.ToPtr(strconv.Itoa(rows[len(rows)-1].Position))
		}
		page.Children = lo.Map(rows, func(row ArchivedItem, _ int) json.RawMessage {
			return json.RawMessage(row.Payload)
		})

		return page, nil
	})
}
