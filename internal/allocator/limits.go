package allocator

import (
	"fmt"
	"sort"
	"strings"
)

// Limits bounds the requests the allocator accepts.
type Limits struct {
	MinPartySize       int
	MaxPartySize       int
	MinDurationMin     int
	MaxDurationMin     int
	DefaultDurationMin int
}

// DefaultLimits accepts parties of 1 to 12 for 30 to 240 minutes, 90 by default.
var DefaultLimits = Limits{
	MinPartySize:       1,
	MaxPartySize:       12,
	MinDurationMin:     30,
	MaxDurationMin:     240,
	DefaultDurationMin: 90,
}

// InvalidRequestError lists the request fields that fall outside the limits.
type InvalidRequestError struct {
	Fields map[string]string
}

func (e *InvalidRequestError) Error() string {
	if e == nil || len(e.Fields) == 0 {
		return "allocator: invalid request"
	}
	keys := make([]string, 0, len(e.Fields))
	for key := range e.Fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, key+": "+e.Fields[key])
	}
	return "allocator: invalid request (" + strings.Join(parts, "; ") + ")"
}

func (e *InvalidRequestError) add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	e.Fields[field] = message
}

// Normalize fills the default duration when none was given and rejects values
// outside the limits. Values are never clamped.
func (l Limits) Normalize(req Request) (Request, error) {
	if req.DurationMin == 0 {
		req.DurationMin = l.DefaultDurationMin
	}

	invalid := &InvalidRequestError{}
	if req.PartySize < l.MinPartySize || req.PartySize > l.MaxPartySize {
		invalid.add("party_size", fmt.Sprintf("party size must be between %d and %d", l.MinPartySize, l.MaxPartySize))
	}
	if req.DurationMin < l.MinDurationMin || req.DurationMin > l.MaxDurationMin {
		invalid.add("duration_min", fmt.Sprintf("duration must be between %d and %d minutes", l.MinDurationMin, l.MaxDurationMin))
	}
	if req.Start.IsZero() {
		invalid.add("when", "start time is required")
	}
	if len(invalid.Fields) > 0 {
		return Request{}, invalid
	}
	return req, nil
}
