package application

import (
	"strings"
	"time"

	"github.com/AntonioRamos11/RestaurantIA/internal/insights"
	"github.com/AntonioRamos11/RestaurantIA/internal/persistence"
)

// resolvedRange holds optional half-open bounds derived from a DateRangeInput.
type resolvedRange struct {
	from     *time.Time
	to       *time.Time
	location string
}

func (r resolvedRange) orderFilter() persistence.OrderFilter {
	return persistence.OrderFilter{From: r.from, To: r.to, Location: r.location}
}

// resolveRange parses the inclusive day range in the engine's timezone. When
// required is false either bound may be omitted.
func resolveRange(engine *insights.Engine, input DateRangeInput, required bool) (resolvedRange, *ValidationError) {
	vErr := &ValidationError{}
	out := resolvedRange{location: strings.TrimSpace(input.Location)}

	start, hasStart := parseDay(engine, vErr, "start", input.Start, required)
	end, hasEnd := parseDay(engine, vErr, "end", input.End, required)
	if vErr.HasErrors() {
		return resolvedRange{}, vErr
	}

	switch {
	case hasStart && hasEnd:
		window, err := engine.DayRange(start, end)
		if err != nil {
			vErr.add("start", "start must not be after end")
			return resolvedRange{}, vErr
		}
		from, to := window.From.UTC(), window.To.UTC()
		out.from, out.to = &from, &to
	case hasStart:
		window, _ := engine.DayRange(start, start)
		from := window.From.UTC()
		out.from = &from
	case hasEnd:
		window, _ := engine.DayRange(end, end)
		to := window.To.UTC()
		out.to = &to
	}
	return out, nil
}

func parseDay(engine *insights.Engine, vErr *ValidationError, field, value string, required bool) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		if required {
			vErr.add(field, field+" is required")
		}
		return time.Time{}, false
	}
	day, err := engine.ParseDay(value)
	if err != nil {
		vErr.add(field, field+" must be formatted as YYYY-MM-DD")
		return time.Time{}, false
	}
	return day, true
}
