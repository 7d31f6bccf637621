package converter

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/providingshelter/ingest/internal/adapter"
	"github.com/providingshelter/ingest/internal/format"
)

// FeedConverter maps RSS, Atom and CAP feed items to flat records
type FeedConverter struct {
	json adapter.JSON
}

func NewFeedConverter(json adapter.JSON) *FeedConverter {
	return &FeedConverter{json: json}
}

func (c *FeedConverter) Name() string { return "RSS/CAP" }

func (c *FeedConverter) CanHandle(rc Context) bool {
	return rc.Format == format.RSS || rc.Format == format.CAP
}

type feedItem struct {
	Title       *string  `json:"title"`
	Summary     *string  `json:"summary"`
	PublishDate *string  `json:"publishDate"`
	Links       []string `json:"links"`
}

func (c *FeedConverter) Convert(_ context.Context, rc Context) (*string, error) {
	f, err := os.Open(rc.LocalPath) //nolint:gosec,G304
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	feed, err := gofeed.NewParser().Parse(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	items := make([]feedItem, 0, len(feed.Items))
	for _, it := range feed.Items {
		item := feedItem{
			Title:   optional(it.Title),
			Summary: optional(it.Description),
			Links:   make([]string, 0, len(it.Links)),
		}
		switch {
		case it.PublishedParsed != nil:
			s := it.PublishedParsed.Format(time.RFC3339)
			item.PublishDate = &s
		case it.Published != "":
			item.PublishDate = optional(it.Published)
		}
		for _, l := range it.Links {
			if l != "" {
				item.Links = append(item.Links, l)
			}
		}
		items = append(items, item)
	}

	return marshalString(c.json, items)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
