package insights

import (
	"time"

	"github.com/AntonioRamos11/RestaurantIA/internal/persistence"
)

// Metrics summarizes trading over a set of orders.
type Metrics struct {
	TotalOrders      int
	Covers           int
	Hours            int
	AvgCoversPerHour *float64
	ItemsSold        int
	Revenue          float64
	AvgCheckPerCover *float64
}

// CoreMetrics computes order, cover and revenue totals. Hours counts the
// distinct clock hours that saw at least one order. Averages are nil when
// their denominator is zero.
func (e *Engine) CoreMetrics(orders []persistence.Order) Metrics {
	loc := e.Location()
	hours := make(map[string]struct{})
	var m Metrics

	for _, order := range orders {
		m.TotalOrders++
		m.Covers += order.Covers
		hours[order.OrderedAt.In(loc).Format(hourLayout)] = struct{}{}
		for _, line := range order.Lines {
			m.ItemsSold += line.Qty
			m.Revenue += float64(line.Qty) * line.Price
		}
	}

	m.Hours = len(hours)
	if m.Hours > 0 {
		m.AvgCoversPerHour = roundedPtr(float64(m.Covers)/float64(m.Hours), 3)
	}
	if m.Covers > 0 {
		m.AvgCheckPerCover = roundedPtr(m.Revenue/float64(m.Covers), 2)
	}
	m.Revenue = Round(m.Revenue, 2)
	return m
}

// Freshness states.
const (
	FreshnessOK     = "ok"
	FreshnessStale  = "stale"
	FreshnessNoData = "no-data"
)

// Freshness reports how old the newest row of a dataset is.
type Freshness struct {
	MaxTS      *time.Time
	AgeMinutes *float64
	Status     string
}

// CheckFreshness compares the newest timestamp against slo. A nil latest means
// the dataset is empty.
func CheckFreshness(latest *time.Time, now time.Time, slo time.Duration) Freshness {
	if latest == nil {
		return Freshness{Status: FreshnessNoData}
	}

	age := now.Sub(*latest)
	status := FreshnessOK
	if age > slo {
		status = FreshnessStale
	}
	ts := *latest
	return Freshness{
		MaxTS:      &ts,
		AgeMinutes: roundedPtr(age.Minutes(), 1),
		Status:     status,
	}
}
