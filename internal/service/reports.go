package service

import (
	"context"
	"log"
	"time"

	"fuelpos/backend/internal/domain"
	"fuelpos/backend/internal/store"
)

const dailyReportTTL = 5 * time.Minute

func dailyReportKey(stationID string, day time.Time) string {
	return "report:daily:" + stationID + ":" + day.UTC().Format("2006-01-02")
}

// dropDailyReport invalidates the cached report for the day a write touched.
// Cache trouble is logged and swallowed: the TTL bounds the staleness.
func (s *Service) dropDailyReport(ctx context.Context, stationID string, day time.Time) {
	if err := s.reports.Delete(ctx, dailyReportKey(stationID, day)); err != nil {
		log.Printf("[service] WARN: failed to drop cached daily report station=%s: %v", stationID, err)
	}
}

// GetDailyReport summarizes one calendar day (UTC) for a station. Results are
// cached briefly since the dashboard polls this endpoint.
func (s *Service) GetDailyReport(ctx context.Context, stationID string, day time.Time) (domain.DailyReport, error) {
	actor, err := requireRole(ctx)
	if err != nil {
		return domain.DailyReport{}, err
	}
	if stationID == "" {
		return domain.DailyReport{}, store.Invalid("station_id", "is required")
	}
	if err := scopeStation(actor, stationID); err != nil {
		return domain.DailyReport{}, err
	}
	if _, err := s.repo.GetStation(ctx, stationID); err != nil {
		return domain.DailyReport{}, err
	}

	day = day.UTC().Truncate(24 * time.Hour)
	key := dailyReportKey(stationID, day)
	if cached, ok, err := s.reports.Get(ctx, key); err != nil {
		log.Printf("[service] WARN: daily report cache read failed station=%s: %v", stationID, err)
	} else if ok {
		return *cached, nil
	}

	report, err := s.repo.GetDailyReport(ctx, stationID, day, day.Add(24*time.Hour))
	if err != nil {
		return domain.DailyReport{}, err
	}
	if err := s.reports.Set(ctx, key, &report, dailyReportTTL); err != nil {
		log.Printf("[service] WARN: daily report cache write failed station=%s: %v", stationID, err)
	}
	return report, nil
}

// GetFinancialReport totals journal activity per account type over a half-open
// date range and derives the net result from the revenue and expense rows.
func (s *Service) GetFinancialReport(ctx context.Context, stationID string, from time.Time, to time.Time) (domain.FinancialReport, error) {
	actor, err := requireRole(ctx, domain.RoleAdmin, domain.RoleManager)
	if err != nil {
		return domain.FinancialReport{}, err
	}
	if stationID == "" {
		return domain.FinancialReport{}, store.Invalid("station_id", "is required")
	}
	if err := scopeStation(actor, stationID); err != nil {
		return domain.FinancialReport{}, err
	}
	if !from.Before(to) {
		return domain.FinancialReport{}, store.Invalid("from", "must be before to")
	}
	return s.repo.GetFinancialReport(ctx, stationID, from.UTC(), to.UTC())
}

// GetAgingReport buckets open credit documents by age: receivables from credit
// sales, payables from purchase orders.
func (s *Service) GetAgingReport(ctx context.Context, stationID string, side string, asOf time.Time) (domain.AgingReport, error) {
	actor, err := requireRole(ctx, domain.RoleAdmin, domain.RoleManager)
	if err != nil {
		return domain.AgingReport{}, err
	}
	if stationID == "" {
		return domain.AgingReport{}, store.Invalid("station_id", "is required")
	}
	if err := scopeStation(actor, stationID); err != nil {
		return domain.AgingReport{}, err
	}
	switch side {
	case domain.AgingReceivable, domain.AgingPayable:
	default:
		return domain.AgingReport{}, store.Invalid("side", "must be receivable or payable")
	}
	if asOf.IsZero() {
		asOf = time.Now().UTC()
	}
	return s.repo.GetAgingReport(ctx, stationID, side, asOf.UTC())
}
