package enrich

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/lysyi3m/rental-comb/app/listing"
)

// ErrZeroBedrooms is returned for a record reporting 0 bedrooms. Sources are
// expected to normalize bedroom counts to positive integers or leave them out.
var ErrZeroBedrooms = errors.New("bedroom count is zero")

type Enricher struct{}

func NewEnricher() *Enricher {
	return &Enricher{}
}

// Apply returns a copy of record with PricePerOccupant computed. A record
// that is already enriched is returned unchanged.
func (e *Enricher) Apply(record listing.Record) (listing.Record, error) {
	if record.PricePerOccupant.IsSet() {
		return record, nil
	}

	if record.Bedrooms == nil || record.Price == nil {
		record.PricePerOccupant = listing.NotApplicable()
		return record, nil
	}

	bedrooms := *record.Bedrooms
	if bedrooms == 0 {
		return record, fmt.Errorf("listing %s: %w", record.ID, ErrZeroBedrooms)
	}
	if bedrooms < 0 {
		return record, fmt.Errorf("listing %s: negative bedroom count %d", record.ID, bedrooms)
	}

	price, ok := ParsePrice(*record.Price)
	if !ok {
		slog.Debug("Price has no digits, price per occupant not applicable", "id", record.ID, "price", *record.Price)
		record.PricePerOccupant = listing.NotApplicable()
		return record, nil
	}

	record.PricePerOccupant = listing.PerOccupant(price / bedrooms)
	return record, nil
}

// ParsePrice strips currency decoration ("$", thousands separators, spaces)
// and returns the whole-unit amount. Any fractional part is dropped.
func ParsePrice(raw string) (int, bool) {
	if whole, _, found := strings.Cut(raw, "."); found {
		raw = whole
	}

	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return 0, false
	}

	price, err := strconv.Atoi(b.String())
	if err != nil {
		return 0, false
	}
	return price, true
}
