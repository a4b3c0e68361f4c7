package source

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/lysyi3m/rental-comb/app/listing"
)

const (
	KindHTML = "html"
	KindRSS  = "rss"

	SortNewest = "newest"
)

// Query describes one search against the listing site.
type Query struct {
	Site     string
	Area     string
	Category string
	Sort     string
	Limit    int
	Params   map[string]string // extra search parameters, e.g. min_price
}

// Source returns listings most recent first, at most q.Limit of them.
type Source interface {
	Fetch(ctx context.Context, q Query) ([]listing.Record, error)
}

// New returns the source adapter registered under kind.
func New(kind string, httpClient *http.Client, userAgent string, timeout time.Duration) (Source, error) {
	switch kind {
	case KindHTML:
		return NewHTMLSource(httpClient, userAgent, timeout), nil
	case KindRSS:
		return NewRSSSource(httpClient, userAgent, timeout), nil
	default:
		return nil, fmt.Errorf("unknown source %q (expected %s or %s)", kind, KindHTML, KindRSS)
	}
}

func (q Query) searchURL(baseURL string, extra url.Values) string {
	base := strings.TrimRight(baseURL, "/")
	if base == "" {
		base = fmt.Sprintf("https://%s.craigslist.org", q.Site)
	}

	path := "/search/" + q.Category
	if q.Area != "" {
		path = "/search/" + q.Area + "/" + q.Category
	}

	values := url.Values{}
	for k, v := range q.Params {
		values.Set(k, v)
	}
	if q.Sort == SortNewest || q.Sort == "" {
		values.Set("sort", "date")
	} else {
		values.Set("sort", q.Sort)
	}
	for k, vs := range extra {
		for _, v := range vs {
			values.Add(k, v)
		}
	}

	return base + path + "?" + values.Encode()
}

func truncate(records []listing.Record, limit int) []listing.Record {
	if limit > 0 && len(records) > limit {
		return records[:limit]
	}
	return records
}
