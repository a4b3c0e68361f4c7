package listing

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

var ErrRecordShape = errors.New("record is missing a required field")

// Record is one listing instance as reported by the source.
// Optional fields are nil when the source did not report them.
type Record struct {
	ID       string
	RepostOf *string // id of an earlier listing this one reposts
	Name     *string
	Where    *string
	Bedrooms *int
	Price    *string // raw currency string, e.g. "$1,200"
	URL      string
	PostedAt *time.Time

	PricePerOccupant PricePerOccupant // set by the enrichment stage only
}

// ShapeError reports a record that cannot be processed because a required
// field is empty.
type ShapeError struct {
	ID    string
	Field string
}

func (e *ShapeError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("record has no %s", e.Field)
	}
	return fmt.Sprintf("record %s has no %s", e.ID, e.Field)
}

func (e *ShapeError) Unwrap() error {
	return ErrRecordShape
}

func (r Record) Validate() error {
	if r.ID == "" {
		return &ShapeError{Field: "id"}
	}
	if r.URL == "" {
		return &ShapeError{ID: r.ID, Field: "url"}
	}
	return nil
}

type ppoState uint8

const (
	ppoUnset ppoState = iota
	ppoValue
	ppoNotApplicable
)

// PricePerOccupant is the derived monthly price per bedroom. The zero value
// means "not computed yet", which is distinct from both a computed 0 and the
// not-applicable sentinel.
type PricePerOccupant struct {
	value int
	state ppoState
}

func PerOccupant(v int) PricePerOccupant {
	return PricePerOccupant{value: v, state: ppoValue}
}

func NotApplicable() PricePerOccupant {
	return PricePerOccupant{state: ppoNotApplicable}
}

func (p PricePerOccupant) IsSet() bool {
	return p.state != ppoUnset
}

func (p PricePerOccupant) IsNotApplicable() bool {
	return p.state == ppoNotApplicable
}

// Value returns the computed amount and whether one exists.
func (p PricePerOccupant) Value() (int, bool) {
	return p.value, p.state == ppoValue
}

func (p PricePerOccupant) String() string {
	switch p.state {
	case ppoValue:
		return strconv.Itoa(p.value)
	case ppoNotApplicable:
		return "n/a"
	default:
		return ""
	}
}

func String(s string) *string {
	return &s
}

func Int(n int) *int {
	return &n
}
