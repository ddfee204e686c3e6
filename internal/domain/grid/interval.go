package grid

import (
	"fmt"

	"github.com/medbook/bookd/internal/platform/apperror"
)

// Interval is a half-open span [Start, End) over the day grid.
type Interval struct {
	Start Mark
	End   Mark
}

// NewInterval builds an interval from two marks, rejecting empty or
// inverted spans.
func NewInterval(start, end Mark) (Interval, error) {
	if start.Index >= end.Index {
		return Interval{}, apperror.E(apperror.BadRequest, "start time cannot equal or follow end time")
	}
	return Interval{Start: start, End: end}, nil
}

// ParseInterval resolves two symbolic keys into an interval.
func ParseInterval(startKey, endKey string) (Interval, error) {
	start, err := ParseMark(startKey)
	if err != nil {
		return Interval{}, err
	}
	end, err := ParseMark(endKey)
	if err != nil {
		return Interval{}, err
	}
	return NewInterval(start, end)
}

// Overlaps reports whether two half-open intervals intersect. Touching
// endpoints ([1,5) and [5,10)) do not overlap.
func (iv Interval) Overlaps(other Interval) bool {
	return !(iv.Start.Index >= other.End.Index || iv.End.Index <= other.Start.Index)
}

// Label renders the interval for display, e.g. "8:00 AM - 9:00 AM".
func (iv Interval) Label() string {
	return fmt.Sprintf("%s - %s", iv.Start.Label, iv.End.Label)
}
