// Package analytics holds the pure aggregation core: period windows,
// rollup math, catalog assembly and customer segmentation. Nothing in
// this package performs I/O; upstream data arrives through the
// providers types and a clock is always injected.
package analytics

import "time"

// Period names are part of the dashboard wire contract.
type Period string

const (
	PeriodLast90Days Period = "last_90_days"
	PeriodLast7Days  Period = "last_7_days"
	PeriodYesterday  Period = "yesterday"
)

// Periods lists the three fixed look-back windows in display order.
var Periods = []Period{PeriodLast90Days, PeriodLast7Days, PeriodYesterday}

// Clock abstracts the processing instant so window boundaries are
// deterministic under test.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock is the production clock.
var SystemClock Clock = systemClock{}

// FixedClock returns a clock pinned to t.
func FixedClock(t time.Time) Clock { return fixedClock{t} }

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

// Window is one period's time range.
type Window struct {
	Period Period
	From   time.Time
	To     time.Time
}

// Windows computes the three fixed windows from the clock's current
// instant. Each window is computed independently; the yesterday window
// spans exactly 24 hours regardless of the time of day.
func Windows(clock Clock) []Window {
	now := clock.Now()
	return []Window{
		{Period: PeriodLast90Days, From: now.AddDate(0, 0, -90), To: now},
		{Period: PeriodLast7Days, From: now.AddDate(0, 0, -7), To: now},
		{Period: PeriodYesterday, From: now.Add(-24 * time.Hour), To: now},
	}
}
