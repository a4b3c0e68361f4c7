package source

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/lysyi3m/rental-comb/app/listing"
)

var (
	titlePriceRegexp    = regexp.MustCompile(`(?:\$|&#x0024;)\s?([\d,]+)`)
	titleBedroomsRegexp = regexp.MustCompile(`(?i)\b(\d+)\s?(?:br|bd)\b`)
	titleHoodRegexp     = regexp.MustCompile(`\(([^()]+)\)`)
	linkIDRegexp        = regexp.MustCompile(`/(\d+)\.html`)
)

// RSSSource reads the search results feed. The feed carries no repost link,
// so records from it never have RepostOf set.
type RSSSource struct {
	fetcher
	parser *gofeed.Parser
}

func NewRSSSource(httpClient *http.Client, userAgent string, timeout time.Duration) *RSSSource {
	return &RSSSource{
		fetcher: newFetcher(httpClient, userAgent, timeout),
		parser:  gofeed.NewParser(),
	}
}

func (s *RSSSource) Fetch(ctx context.Context, q Query) ([]listing.Record, error) {
	searchURL := q.searchURL(s.BaseURL, url.Values{"format": {"rss"}})

	data, err := s.fetch(ctx, searchURL)
	if err != nil {
		return nil, err
	}

	records, err := s.Parse(data)
	if err != nil {
		return nil, err
	}

	slog.Debug("Search results parsed", "source", KindRSS, "url", searchURL, "count", len(records))
	return truncate(records, q.Limit), nil
}

func (s *RSSSource) Parse(data []byte) ([]listing.Record, error) {
	feed, err := s.parser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	records := make([]listing.Record, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		records = append(records, normalizeItem(item))
	}

	return records, nil
}

func normalizeItem(item *gofeed.Item) listing.Record {
	record := listing.Record{
		ID:  itemID(item),
		URL: strings.TrimSpace(item.Link),
	}

	title := strings.TrimSpace(item.Title)

	if match := titlePriceRegexp.FindStringSubmatch(title); len(match) == 2 {
		record.Price = listing.String("$" + match[1])
	}

	record.Bedrooms = parseBedrooms(titleBedroomsRegexp, title)

	name := title
	if loc := titleHoodRegexp.FindStringSubmatchIndex(title); loc != nil {
		record.Where = listing.String(strings.TrimSpace(title[loc[2]:loc[3]]))
		name = title[:loc[0]]
	} else if loc := titlePriceRegexp.FindStringIndex(title); loc != nil {
		name = title[:loc[0]]
	}
	if name = strings.TrimSpace(name); name != "" {
		record.Name = listing.String(name)
	}

	if item.PublishedParsed != nil {
		record.PostedAt = item.PublishedParsed
	} else if item.UpdatedParsed != nil {
		record.PostedAt = item.UpdatedParsed
	}

	return record
}

func itemID(item *gofeed.Item) string {
	if match := linkIDRegexp.FindStringSubmatch(item.Link); len(match) == 2 {
		return match[1]
	}
	return strings.TrimSpace(item.GUID)
}
