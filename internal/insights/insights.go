// Package insights turns raw order, review and recipe rows into the figures the
// analytics, inventory and recommendation endpoints report.
//
// All functions are pure. Time bucketing happens in the engine's location so
// that a "day" matches the restaurant's calendar rather than UTC.
package insights

import (
	"errors"
	"math"
	"sort"
	"time"

	"github.com/AntonioRamos11/RestaurantIA/internal/persistence"
)

const (
	dayLayout  = "2006-01-02"
	hourLayout = "2006-01-02 15:00:00"
)

// ErrInvalidRange indicates a date range whose start falls after its end.
var ErrInvalidRange = errors.New("insights: start date is after end date")

// Engine aggregates rows in a fixed location.
type Engine struct {
	location *time.Location
}

// NewEngine constructs an Engine that buckets times in loc. A nil loc means UTC.
func NewEngine(loc *time.Location) *Engine {
	if loc == nil {
		loc = time.UTC
	}
	return &Engine{location: loc}
}

// Location returns the engine's bucketing location.
func (e *Engine) Location() *time.Location {
	if e == nil || e.location == nil {
		return time.UTC
	}
	return e.location
}

// Range is a half-open instant range [From, To).
type Range struct {
	From time.Time
	To   time.Time
}

// ParseDay parses a YYYY-MM-DD date as midnight in the engine's location.
func (e *Engine) ParseDay(value string) (time.Time, error) {
	return time.ParseInLocation(dayLayout, value, e.Location())
}

// DayRange converts the inclusive calendar days [start, end] into an instant
// range covering both days completely.
func (e *Engine) DayRange(start, end time.Time) (Range, error) {
	loc := e.Location()
	from := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, loc)
	last := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, loc)
	if from.After(last) {
		return Range{}, ErrInvalidRange
	}
	return Range{From: from, To: last.AddDate(0, 0, 1)}, nil
}

// CoverBucket is the covers served at one location during one bucket.
type CoverBucket struct {
	Bucket   string
	Location string
	Covers   int
}

// DailyCovers sums covers per calendar day and location, ordered by day then location.
func (e *Engine) DailyCovers(orders []persistence.Order) []CoverBucket {
	return e.covers(orders, dayLayout)
}

// HourlyCovers sums covers per hour and location, ordered by hour then location.
func (e *Engine) HourlyCovers(orders []persistence.Order) []CoverBucket {
	return e.covers(orders, hourLayout)
}

func (e *Engine) covers(orders []persistence.Order, layout string) []CoverBucket {
	type key struct {
		bucket   string
		location string
	}
	loc := e.Location()
	sums := make(map[key]int)
	for _, order := range orders {
		k := key{bucket: order.OrderedAt.In(loc).Format(layout), location: order.LocationName}
		sums[k] += order.Covers
	}

	out := make([]CoverBucket, 0, len(sums))
	for k, covers := range sums {
		out = append(out, CoverBucket{Bucket: k.bucket, Location: k.location, Covers: covers})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Bucket == out[j].Bucket {
			return out[i].Location < out[j].Location
		}
		return out[i].Bucket < out[j].Bucket
	})
	return out
}

// Round rounds v half away from zero to the given number of decimal places.
func Round(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}

func roundedPtr(v float64, places int) *float64 {
	r := Round(v, places)
	return &r
}
