package providers

import (
	"context"
	"time"
)

// Session source names selected by configuration.
const (
	SessionSourceSynthetic = "synthetic"
	SessionSourceReports   = "reports"
)

// SessionDataSource supplies traffic figures (sessions, views,
// add-to-basket counts) for a time window. Two implementations exist:
// "reports" calls the platform's analytics reports, "synthetic"
// derives placeholders from order activity. The selection is explicit
// configuration; the two are never silently mixed.
type SessionDataSource interface {
	Name() string
	Traffic(ctx context.Context, from, to time.Time, stats OrderStats) (TrafficStats, error)
	DailySessions(ctx context.Context, from, to time.Time, orders []Order) ([]SessionRecord, error)
}

// SyntheticSessionSource synthesizes traffic from order counts. The
// numbers are placeholders, always flagged Estimated, sized by the
// fixed formula sessions = max(orderCount * 20, 1).
type SyntheticSessionSource struct{}

// NewSyntheticSessionSource returns the placeholder traffic source.
func NewSyntheticSessionSource() *SyntheticSessionSource {
	return &SyntheticSessionSource{}
}

// Name identifies the source in snapshot metadata.
func (s *SyntheticSessionSource) Name() string {
	return SessionSourceSynthetic
}

// Traffic synthesizes window traffic from order stats.
func (s *SyntheticSessionSource) Traffic(_ context.Context, _, _ time.Time, stats OrderStats) (TrafficStats, error) {
	sessions := stats.OrderCount * 20
	if sessions < 1 {
		sessions = 1
	}
	return TrafficStats{
		Sessions:   sessions,
		Views:      sessions * 4,
		AddToCarts: stats.UnitsSold * 3,
		Estimated:  true,
	}, nil
}

// DailySessions synthesizes a daily series by grouping the supplied
// orders by calendar day and applying the session formula per day.
// Days without orders are emitted with the floor value of 1 session.
func (s *SyntheticSessionSource) DailySessions(_ context.Context, from, to time.Time, orders []Order) ([]SessionRecord, error) {
	ordersByDay := make(map[string]int64)
	for _, o := range orders {
		ordersByDay[o.CreatedAt.UTC().Format("2006-01-02")]++
	}

	var records []SessionRecord
	for day := from.UTC().Truncate(24 * time.Hour); !day.After(to.UTC()); day = day.Add(24 * time.Hour) {
		date := day.Format("2006-01-02")
		sessions := ordersByDay[date] * 20
		if sessions < 1 {
			sessions = 1
		}
		records = append(records, SessionRecord{
			Date:      date,
			Sessions:  sessions,
			Views:     sessions * 4,
			Estimated: true,
		})
	}
	return records, nil
}

var _ SessionDataSource = (*SyntheticSessionSource)(nil)
