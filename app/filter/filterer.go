package filter

import (
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/text/cases"

	"github.com/lysyi3m/rental-comb/app/listing"
)

const (
	DefaultMinBedrooms = 3
)

var DefaultNeighborhoods = []string{"berkeley", "oakland"}

var bedroomPatterns = []string{
	"%d bed",
	"%dbed",
	"%d br",
	"%dbr",
}

// DefaultBlacklist returns "studio" plus the small-unit variants for each
// bedroom count, e.g. DefaultBlacklist(1, 2) adds "1 bed", "1bed", "1 br"...
func DefaultBlacklist(bedroomCounts ...int) []string {
	words := []string{"studio"}
	for _, pattern := range bedroomPatterns {
		for _, n := range bedroomCounts {
			words = append(words, fmt.Sprintf(pattern, n))
		}
	}
	return words
}

type Predicate interface {
	Name() string
	Match(record listing.Record) bool
}

type BedroomPredicate struct {
	Min int
}

func (p BedroomPredicate) Name() string {
	return "bedrooms"
}

func (p BedroomPredicate) Match(record listing.Record) bool {
	return record.Bedrooms == nil || *record.Bedrooms >= p.Min
}

type LocationPredicate struct {
	neighborhoods []string
}

// NewLocationPredicate accepts records whose where contains one of
// neighborhoods, ignoring case. Blank entries are dropped.
func NewLocationPredicate(neighborhoods []string) LocationPredicate {
	return LocationPredicate{neighborhoods: foldPatterns(neighborhoods)}
}

func (p LocationPredicate) Name() string {
	return "where"
}

func (p LocationPredicate) Match(record listing.Record) bool {
	if record.Where == nil {
		return true
	}
	return containsAny(*record.Where, p.neighborhoods)
}

type NameBlacklistPredicate struct {
	words []string
}

// NewNameBlacklistPredicate rejects records whose name contains one of
// words, ignoring case. Blank entries are dropped.
func NewNameBlacklistPredicate(words []string) NameBlacklistPredicate {
	return NameBlacklistPredicate{words: foldPatterns(words)}
}

func (p NameBlacklistPredicate) Name() string {
	return "name"
}

func (p NameBlacklistPredicate) Match(record listing.Record) bool {
	if record.Name == nil {
		slog.Warn("Listing has no name, keeping it", "id", record.ID, "url", record.URL)
		return true
	}
	return !containsAny(*record.Name, p.words)
}

func foldPatterns(patterns []string) []string {
	caser := cases.Fold()
	folded := make([]string, 0, len(patterns))
	for _, pattern := range patterns {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}
		folded = append(folded, caser.String(pattern))
	}
	return folded
}

// containsAny expects patterns already passed through foldPatterns.
func containsAny(value string, patterns []string) bool {
	folded := cases.Fold().String(value)
	for _, pattern := range patterns {
		if pattern != "" && strings.Contains(folded, pattern) {
			return true
		}
	}
	return false
}

// Chain applies predicates in order and keeps a record only if all of them
// match. Cheap, selective predicates should come first.
type Chain struct {
	predicates []Predicate
}

func NewChain(predicates ...Predicate) *Chain {
	return &Chain{predicates: predicates}
}

// NewDefaultChain orders predicates cheapest first: integer compare, then the
// short neighborhood list, then the longer blacklist.
func NewDefaultChain(minBedrooms int, neighborhoods, blacklist []string) *Chain {
	return NewChain(
		BedroomPredicate{Min: minBedrooms},
		NewLocationPredicate(neighborhoods),
		NewNameBlacklistPredicate(blacklist),
	)
}

type Rejection struct {
	Record listing.Record
	Reason string
	Err    error // set for records dropped by shape validation
}

type Result struct {
	Passed   []listing.Record
	Rejected []Rejection
}

// Match reports whether the record passes every predicate, and if not, the
// name of the first predicate that rejected it.
func (c *Chain) Match(record listing.Record) (bool, string) {
	for _, predicate := range c.predicates {
		if !predicate.Match(record) {
			return false, predicate.Name()
		}
	}
	return true, ""
}

// Run validates each record's shape and applies the chain, preserving source
// order for the records that pass.
func (c *Chain) Run(records []listing.Record) Result {
	result := Result{
		Passed: make([]listing.Record, 0, len(records)),
	}

	for _, record := range records {
		if err := record.Validate(); err != nil {
			slog.Warn("Dropping malformed listing", "id", record.ID, "error", err)
			result.Rejected = append(result.Rejected, Rejection{
				Record: record,
				Reason: "Excluded by shape check: " + err.Error(),
				Err:    err,
			})
			continue
		}

		ok, predicateName := c.Match(record)
		if !ok {
			reason := fmt.Sprintf("Excluded by %s filter", predicateName)
			slog.Debug("Listing filtered", "id", record.ID, "reason", reason)
			result.Rejected = append(result.Rejected, Rejection{Record: record, Reason: reason})
			continue
		}

		result.Passed = append(result.Passed, record)
	}

	return result
}
