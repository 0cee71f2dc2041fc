package dashboard

import (
	"context"
	"fmt"
	"time"

	"stock-backend/internal/apperror"

	"github.com/shopspring/decimal"
)

const (
	PeriodDay   = "jour"
	PeriodWeek  = "semaine"
	PeriodMonth = "mois"
)

// Upper bounds on the number of buckets per period.
const (
	maxDays   = 366
	maxWeeks  = 104
	maxMonths = 120
)

type PeriodPoint struct {
	Period     string          `json:"periode"`
	SalesCount int             `json:"nombreVentes"`
	QtySold    int             `json:"quantiteVendue"`
	Revenue    decimal.Decimal `json:"chiffreAffaire"`
}

type PeriodTotals struct {
	SalesCount int             `json:"nombreVentes"`
	QtySold    int             `json:"quantiteVendue"`
	Revenue    decimal.Decimal `json:"chiffreAffaire"`
}

type PeriodChart struct {
	Period string        `json:"periode"`
	From   string        `json:"from"`
	To     string        `json:"to"`
	Points []PeriodPoint `json:"points"`
	Totals PeriodTotals  `json:"totaux"`
}

// SalesByPeriod buckets sales per day (7), per week starting Monday (8) or
// per month (12). count overrides the number of buckets when positive and
// may not exceed 366 days, 104 weeks or 120 months.
func (s *Service) SalesByPeriod(ctx context.Context, period string, count int) (*PeriodChart, error) {
	if period == "" {
		period = PeriodDay
	}

	now := s.now()
	today := startOfDay(now)
	var start, end time.Time
	var step func(t time.Time, n int) time.Time
	var label func(t time.Time) string
	var limit int

	switch period {
	case PeriodDay:
		if count <= 0 {
			count = 7
		}
		limit = maxDays
		step = func(t time.Time, n int) time.Time { return t.AddDate(0, 0, n) }
		end = today.AddDate(0, 0, 1)
		start = end.AddDate(0, 0, -count)
		label = func(t time.Time) string { return t.Format("02/01") }
	case PeriodWeek:
		if count <= 0 {
			count = 8
		}
		limit = maxWeeks
		step = func(t time.Time, n int) time.Time { return t.AddDate(0, 0, 7*n) }
		monday := today.AddDate(0, 0, -((int(today.Weekday()) + 6) % 7))
		end = monday.AddDate(0, 0, 7)
		start = end.AddDate(0, 0, -7*count)
		label = func(t time.Time) string {
			_, w := t.ISOWeek()
			return fmt.Sprintf("S%02d %d", w, t.Year())
		}
	case PeriodMonth:
		if count <= 0 {
			count = 12
		}
		limit = maxMonths
		step = func(t time.Time, n int) time.Time { return t.AddDate(0, n, 0) }
		end = startOfMonth(now).AddDate(0, 1, 0)
		start = end.AddDate(0, -count, 0)
		label = func(t time.Time) string { return fmt.Sprintf("%s %d", monthName(t.Month()), t.Year()) }
	default:
		return nil, apperror.NewValidation("Période invalide: utilisez jour, semaine ou mois").
			WithDetail("periode", period)
	}
	if count > limit {
		return nil, apperror.NewValidation(fmt.Sprintf("Nombre de périodes trop élevé (maximum %d)", limit)).
			WithDetail("count", count)
	}

	rows, err := s.salesBetween(ctx, start, end)
	if err != nil {
		return nil, err
	}

	bounds := make([]time.Time, count+1)
	for i := range bounds {
		bounds[i] = step(start, i)
	}
	points := make([]PeriodPoint, count)
	for i := range points {
		points[i] = PeriodPoint{Period: label(bounds[i]), Revenue: decimal.Zero}
	}

	totals := PeriodTotals{Revenue: decimal.Zero}
	loc := start.Location()
	b := 0
	for _, r := range rows {
		d := r.Date.In(loc)
		for b < count && !d.Before(bounds[b+1]) {
			b++
		}
		if b == count {
			break
		}
		points[b].SalesCount++
		points[b].QtySold += r.Qty
		points[b].Revenue = points[b].Revenue.Add(r.TotalPrice)

		totals.SalesCount++
		totals.QtySold += r.Qty
		totals.Revenue = totals.Revenue.Add(r.TotalPrice)
	}
	for i := range points {
		points[i].Revenue = points[i].Revenue.Round(2)
	}
	totals.Revenue = totals.Revenue.Round(2)

	return &PeriodChart{
		Period: period,
		From:   start.Format("2006-01-02"),
		To:     end.AddDate(0, 0, -1).Format("2006-01-02"),
		Points: points,
		Totals: totals,
	}, nil
}
