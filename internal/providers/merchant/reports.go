package merchant

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	merchantdomain "github.com/storelens/service-analytics/internal/domain/merchant"
	"github.com/storelens/service-analytics/internal/providers"
)

const sessionsReportPath = "/reports/sessions.json"

type sessionsReportPage struct {
	Sessions []struct {
		Date       string `json:"date"`
		Sessions   int64  `json:"sessions"`
		PageViews  int64  `json:"page_views"`
		AddToCarts int64  `json:"add_to_carts"`
	} `json:"sessions"`
}

// ReportSessionSource is the measured SessionDataSource backed by the
// platform's analytics reports endpoints.
type ReportSessionSource struct {
	client *Client
}

// NewReportSessionSource creates a report-backed session source.
func NewReportSessionSource(client *Client) *ReportSessionSource {
	return &ReportSessionSource{client: client}
}

// Name identifies the source in snapshot metadata.
func (s *ReportSessionSource) Name() string {
	return providers.SessionSourceReports
}

func (s *ReportSessionSource) fetch(ctx context.Context, from, to time.Time) (*sessionsReportPage, error) {
	query := map[string]string{
		"from": from.UTC().Format("2006-01-02"),
		"to":   to.UTC().Format("2006-01-02"),
	}

	var report sessionsReportPage
	err := s.client.FetchAll(ctx, &Request{Path: sessionsReportPath, Query: query}, func(body json.RawMessage) error {
		var page sessionsReportPage
		if err := json.Unmarshal(body, &page); err != nil {
			return merchantdomain.NewParseError("decoding sessions report", err)
		}
		report.Sessions = append(report.Sessions, page.Sessions...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch sessions report: %w", err)
	}
	return &report, nil
}

// Traffic sums the report rows for the window. The scope stats are
// unused: report figures are measured, not derived from orders.
func (s *ReportSessionSource) Traffic(ctx context.Context, from, to time.Time, _ providers.OrderStats) (providers.TrafficStats, error) {
	report, err := s.fetch(ctx, from, to)
	if err != nil {
		return providers.TrafficStats{}, err
	}

	var stats providers.TrafficStats
	for _, row := range report.Sessions {
		stats.Sessions += row.Sessions
		stats.Views += row.PageViews
		stats.AddToCarts += row.AddToCarts
	}
	return stats, nil
}

// DailySessions returns the measured daily series. The orders argument
// exists only for the synthetic fallback and is ignored here.
func (s *ReportSessionSource) DailySessions(ctx context.Context, from, to time.Time, _ []providers.Order) ([]providers.SessionRecord, error) {
	report, err := s.fetch(ctx, from, to)
	if err != nil {
		return nil, err
	}

	records := make([]providers.SessionRecord, 0, len(report.Sessions))
	for _, row := range report.Sessions {
		records = append(records, providers.SessionRecord{
			Date:     row.Date,
			Sessions: row.Sessions,
			Views:    row.PageViews,
		})
	}
	return records, nil
}

var _ providers.SessionDataSource = (*ReportSessionSource)(nil)
