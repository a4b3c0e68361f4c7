package filter

import (
	"errors"
	"reflect"
	"testing"

	"github.com/lysyi3m/rental-comb/app/listing"
)

func TestBedroomPredicate(t *testing.T) {
	predicate := BedroomPredicate{Min: 3}

	tests := []struct {
		bedrooms *int
		expected bool
	}{
		{nil, true},
		{listing.Int(0), false},
		{listing.Int(2), false},
		{listing.Int(3), true},
		{listing.Int(5), true},
	}

	for _, test := range tests {
		result := predicate.Match(listing.Record{ID: "1", URL: "u", Bedrooms: test.bedrooms})
		if result != test.expected {
			t.Errorf("Match(bedrooms=%v): expected %v, got %v", deref(test.bedrooms), test.expected, result)
		}
	}
}

func TestBedroomPredicate_ConfigurableMinimum(t *testing.T) {
	record := listing.Record{ID: "1", URL: "u", Bedrooms: listing.Int(3)}

	if !(BedroomPredicate{Min: 3}).Match(record) {
		t.Error("3 bedrooms should pass a minimum of 3")
	}
	if (BedroomPredicate{Min: 4}).Match(record) {
		t.Error("3 bedrooms should fail a minimum of 4")
	}
}

func TestLocationPredicate(t *testing.T) {
	predicate := NewLocationPredicate(DefaultNeighborhoods)

	tests := []struct {
		where    *string
		expected bool
	}{
		{nil, true},
		{listing.String("berkeley"), true},
		{listing.String("North Berkeley"), true},
		{listing.String("OAKLAND LAKE MERRITT"), true},
		{listing.String("fresno"), false},
		{listing.String(""), false},
	}

	for _, test := range tests {
		result := predicate.Match(listing.Record{ID: "1", URL: "u", Where: test.where})
		if result != test.expected {
			t.Errorf("Match(where=%q): expected %v, got %v", derefString(test.where), test.expected, result)
		}
	}
}

func TestLocationPredicate_CaseInsensitivePattern(t *testing.T) {
	predicate := NewLocationPredicate([]string{"Rockridge"})

	if !predicate.Match(listing.Record{ID: "1", URL: "u", Where: listing.String("rockridge / temescal")}) {
		t.Error("Pattern case should not matter")
	}
}

func TestPredicates_BlankPatternsIgnored(t *testing.T) {
	record := listing.Record{
		ID:    "1",
		URL:   "u",
		Name:  listing.String("Big craftsman house"),
		Where: listing.String("oakland"),
	}

	if !NewNameBlacklistPredicate([]string{"", "  "}).Match(record) {
		t.Error("Blank blacklist entries should not reject every name")
	}
	if !NewLocationPredicate([]string{"berkeley", " oakland "}).Match(record) {
		t.Error("Neighborhood entries should be trimmed before matching")
	}
	if NewLocationPredicate([]string{""}).Match(record) {
		t.Error("A blank neighborhood should not accept every location")
	}
}

func TestNameBlacklistPredicate(t *testing.T) {
	predicate := NewNameBlacklistPredicate(DefaultBlacklist(1, 2))

	tests := []struct {
		name     *string
		expected bool
	}{
		{nil, true},
		{listing.String("Sunny 3BR craftsman"), true},
		{listing.String("Cozy STUDIO near campus"), false},
		{listing.String("2 bed 1 bath flat"), false},
		{listing.String("Charming 1br cottage"), false},
		{listing.String("2BED in-law"), false},
		{listing.String("1 BR with view"), false},
		{listing.String("nice place"), true},
	}

	for _, test := range tests {
		result := predicate.Match(listing.Record{ID: "1", URL: "u", Name: test.name})
		if result != test.expected {
			t.Errorf("Match(name=%q): expected %v, got %v", derefString(test.name), test.expected, result)
		}
	}
}

func TestNameBlacklistPredicate_SimpleVariant(t *testing.T) {
	predicate := NewNameBlacklistPredicate(DefaultBlacklist())

	if !predicate.Match(listing.Record{ID: "1", URL: "u", Name: listing.String("2 bed 1 bath flat")}) {
		t.Error("Simple blacklist should not reject bedroom variants")
	}
	if predicate.Match(listing.Record{ID: "1", URL: "u", Name: listing.String("studio apt")}) {
		t.Error("Simple blacklist should still reject studios")
	}
}

func TestDefaultBlacklist(t *testing.T) {
	expected := []string{
		"studio",
		"1 bed", "2 bed",
		"1bed", "2bed",
		"1 br", "2 br",
		"1br", "2br",
	}

	result := DefaultBlacklist(1, 2)
	if !reflect.DeepEqual(result, expected) {
		t.Errorf("Expected %v, got %v", expected, result)
	}

	if simple := DefaultBlacklist(); !reflect.DeepEqual(simple, []string{"studio"}) {
		t.Errorf("Expected [studio], got %v", simple)
	}
}

func TestChain_Run_PreservesOrderAndReasons(t *testing.T) {
	chain := NewDefaultChain(3, DefaultNeighborhoods, DefaultBlacklist(1, 2))

	records := []listing.Record{
		{ID: "a", URL: "ua", Bedrooms: listing.Int(4), Where: listing.String("oakland"), Name: listing.String("big house")},
		{ID: "b", URL: "ub", Bedrooms: listing.Int(2), Where: listing.String("berkeley"), Name: listing.String("nice place")},
		{ID: "c", URL: "uc", Where: listing.String("fresno")},
		{ID: "d", URL: "ud", Name: listing.String("studio apt")},
		{ID: "e", URL: "ue"},
	}

	result := chain.Run(records)

	if len(result.Passed) != 2 {
		t.Fatalf("Expected 2 passed records, got %d", len(result.Passed))
	}
	if result.Passed[0].ID != "a" || result.Passed[1].ID != "e" {
		t.Errorf("Expected passed order [a e], got [%s %s]", result.Passed[0].ID, result.Passed[1].ID)
	}

	expectedReasons := map[string]string{
		"b": "Excluded by bedrooms filter",
		"c": "Excluded by where filter",
		"d": "Excluded by name filter",
	}
	if len(result.Rejected) != len(expectedReasons) {
		t.Fatalf("Expected %d rejections, got %d", len(expectedReasons), len(result.Rejected))
	}
	for _, rejection := range result.Rejected {
		if rejection.Reason != expectedReasons[rejection.Record.ID] {
			t.Errorf("Record %s: expected reason '%s', got '%s'", rejection.Record.ID, expectedReasons[rejection.Record.ID], rejection.Reason)
		}
	}
}

func TestChain_Run_DropsMalformedRecords(t *testing.T) {
	chain := NewDefaultChain(3, DefaultNeighborhoods, DefaultBlacklist())

	result := chain.Run([]listing.Record{
		{URL: "u-without-id"},
		{ID: "no-url"},
		{ID: "ok", URL: "u"},
	})

	if len(result.Passed) != 1 || result.Passed[0].ID != "ok" {
		t.Fatalf("Expected only 'ok' to pass, got %+v", result.Passed)
	}
	for _, rejection := range result.Rejected {
		if !errors.Is(rejection.Err, listing.ErrRecordShape) {
			t.Errorf("Expected shape error for %q, got %v", rejection.Record.ID, rejection.Err)
		}
	}
}

func TestChain_ShortCircuits(t *testing.T) {
	counter := &countingPredicate{}
	chain := NewChain(BedroomPredicate{Min: 3}, counter)

	chain.Run([]listing.Record{
		{ID: "1", URL: "u", Bedrooms: listing.Int(1)},
		{ID: "2", URL: "u", Bedrooms: listing.Int(3)},
	})

	if counter.calls != 1 {
		t.Errorf("Expected second predicate to run once, ran %d times", counter.calls)
	}
}

func TestChain_DoesNotMutateRecords(t *testing.T) {
	chain := NewDefaultChain(3, DefaultNeighborhoods, DefaultBlacklist(1, 2))

	original := listing.Record{
		ID:       "1",
		URL:      "u",
		Name:     listing.String("Big House"),
		Where:    listing.String("Berkeley"),
		Bedrooms: listing.Int(4),
		Price:    listing.String("$4000"),
	}
	snapshot := original

	result := chain.Run([]listing.Record{original})

	if !reflect.DeepEqual(original, snapshot) {
		t.Error("Input record was mutated")
	}
	if *result.Passed[0].Name != "Big House" || *result.Passed[0].Where != "Berkeley" {
		t.Error("Passed record fields should keep their original case")
	}
}

func TestChain_EmptyChainPassesEverything(t *testing.T) {
	result := NewChain().Run([]listing.Record{{ID: "1", URL: "u"}, {ID: "2", URL: "u"}})
	if len(result.Passed) != 2 {
		t.Errorf("Expected 2 records, got %d", len(result.Passed))
	}
}

type countingPredicate struct {
	calls int
}

func (p *countingPredicate) Name() string { return "counting" }

func (p *countingPredicate) Match(listing.Record) bool {
	p.calls++
	return true
}

func deref(n *int) any {
	if n == nil {
		return nil
	}
	return *n
}

func derefString(s *string) string {
	if s == nil {
		return "<nil>"
	}
	return *s
}
