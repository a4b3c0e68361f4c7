package source

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/lysyi3m/rental-comb/app/listing"
)

var (
	housingBedroomsRegexp = regexp.MustCompile(`(?i)(\d+)\s*br\b`)
)

const resultDateLayout = "2006-01-02 15:04"

// HTMLSource scrapes the site's search results page.
type HTMLSource struct {
	fetcher
}

func NewHTMLSource(httpClient *http.Client, userAgent string, timeout time.Duration) *HTMLSource {
	return &HTMLSource{fetcher: newFetcher(httpClient, userAgent, timeout)}
}

func (s *HTMLSource) Fetch(ctx context.Context, q Query) ([]listing.Record, error) {
	searchURL := q.searchURL(s.BaseURL, nil)

	data, err := s.fetch(ctx, searchURL)
	if err != nil {
		return nil, err
	}

	records, err := s.Parse(data, searchURL)
	if err != nil {
		return nil, err
	}

	slog.Debug("Search results parsed", "source", KindHTML, "url", searchURL, "count", len(records))
	return truncate(records, q.Limit), nil
}

// Parse extracts listings from a search results page. Relative links are
// resolved against pageURL.
func (s *HTMLSource) Parse(data []byte, pageURL string) ([]listing.Record, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	base, _ := url.Parse(pageURL)

	rows := doc.Find("li.result-row")
	records := make([]listing.Record, 0, rows.Length())
	rows.Each(func(_ int, row *goquery.Selection) {
		records = append(records, parseResultRow(row, base))
	})

	if len(records) == 0 && len(bytes.TrimSpace(data)) > 0 {
		slog.Warn("Search results page has no result rows, the page layout may have changed",
			"url", pageURL, "bytes", len(data))
	}

	return records, nil
}

func parseResultRow(row *goquery.Selection, base *url.URL) listing.Record {
	record := listing.Record{
		ID: strings.TrimSpace(row.AttrOr("data-pid", "")),
	}

	if repostOf := strings.TrimSpace(row.AttrOr("data-repost-of", "")); repostOf != "" {
		record.RepostOf = listing.String(repostOf)
	}

	title := row.Find("a.result-title").First()
	if name := strings.TrimSpace(title.Text()); name != "" {
		record.Name = listing.String(name)
	}
	if href, ok := title.Attr("href"); ok {
		record.URL = resolveURL(base, href)
	}

	if price := strings.TrimSpace(row.Find(".result-price").First().Text()); price != "" {
		record.Price = listing.String(price)
	}

	record.Bedrooms = parseBedrooms(housingBedroomsRegexp, row.Find(".housing").First().Text())

	if hood := trimHood(row.Find(".result-hood").First().Text()); hood != "" {
		record.Where = listing.String(hood)
	}

	if posted, ok := row.Find("time.result-date").First().Attr("datetime"); ok {
		if t, err := time.Parse(resultDateLayout, posted); err == nil {
			record.PostedAt = &t
		}
	}

	return record
}

// parseBedrooms returns nil for missing or zero counts so downstream stages
// only ever see positive bedroom numbers.
func parseBedrooms(re *regexp.Regexp, text string) *int {
	match := re.FindStringSubmatch(text)
	if len(match) < 2 {
		return nil
	}
	n, err := strconv.Atoi(match[1])
	if err != nil || n <= 0 {
		return nil
	}
	return &n
}

func trimHood(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "(")
	s = strings.TrimSuffix(s, ")")
	return strings.TrimSpace(s)
}

func resolveURL(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || base == nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}
