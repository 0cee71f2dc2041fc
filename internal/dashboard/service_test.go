package dashboard

import (
	"context"
	"math"
	"net/http"
	"testing"
	"time"

	"stock-backend/internal/apperror"
	"stock-backend/internal/cache"
	"stock-backend/internal/models"
	"stock-backend/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var fixedNow = time.Date(2025, 6, 14, 10, 0, 0, 0, time.UTC)

func day(y int, m time.Month, d, h int) time.Time {
	return time.Date(y, m, d, h, 0, 0, 0, time.UTC)
}

func createVente(t *testing.T, db *gorm.DB, societeID uint, article string, qty int, total string, date time.Time, vendeurID *uint) {
	t.Helper()
	v := models.Vente{
		SocieteID:  societeID,
		Article:    article,
		Lot:        "L",
		Qty:        qty,
		Date:       date,
		UnitPrice:  testutil.Dec(total).Div(decimal.NewFromInt(int64(qty))),
		TotalPrice: testutil.Dec(total),
		VendeurID:  vendeurID,
	}
	require.NoError(t, db.Create(&v).Error)
}

type fixture struct {
	db  *gorm.DB
	svc *Service
}

func newFixture(t *testing.T, c cache.Cache) *fixture {
	t.Helper()
	db := testutil.NewDB(t)

	s1 := testutil.CreateSociete(t, db, "Pharmacie du Port")
	s2 := testutil.CreateSociete(t, db, "Pharmacie Centrale")
	a := testutil.CreateArticle(t, db, "DOL500", "Doliprane", "2.50")
	b := testutil.CreateArticle(t, db, "BIA", "Biafine", "5.00")

	soon := day(2025, 6, 20, 0)
	sooner := day(2025, 6, 16, 0)
	later := day(2025, 9, 1, 0)
	l1 := testutil.CreateLot(t, db, a.ID, "L1", 5, "2.00", &soon)
	testutil.CreateLot(t, db, a.ID, "L2", 0, "3.00", &sooner)
	l3 := testutil.CreateLot(t, db, b.ID, "L3", 20, "4.00", &later)

	testutil.CreateStock(t, db, s1.ID, a, l1, 0)
	testutil.CreateStock(t, db, s1.ID, b, l3, 4)
	testutil.CreateStock(t, db, s2.ID, b, l3, 8)
	testutil.CreateStock(t, db, s2.ID, a, l1, 50)

	seller := testutil.CreateUser(t, db, "vendeur@example.com", models.RoleVendeur, &s1.ID)
	testutil.CreateUser(t, db, "idle@example.com", models.RoleVendeur, &s2.ID)
	testutil.CreateUser(t, db, "admin@example.com", models.RoleAdmin, nil)

	createVente(t, db, s1.ID, "Doliprane", 2, "4.00", day(2025, 6, 14, 8), &seller.ID)
	createVente(t, db, s1.ID, "Doliprane", 3, "6.00", day(2025, 6, 2, 12), nil)
	createVente(t, db, s2.ID, "Biafine", 1, "4.00", day(2025, 5, 20, 12), nil)
	createVente(t, db, s2.ID, "Biafine", 1, "4.00", day(2024, 6, 10, 12), nil)

	svc := NewService(db, Options{StockAlertThreshold: 10, ExpirationWindowDays: 30, Cache: c})
	svc.now = func() time.Time { return fixedNow }
	return &fixture{db: db, svc: svc}
}

func dec(s string) decimal.Decimal { return testutil.Dec(s) }

func TestGeneralStats(t *testing.T) {
	f := newFixture(t, nil)

	st, err := f.svc.GeneralStats(context.Background())
	require.NoError(t, err)

	assert.EqualValues(t, 2, st.TotalArticles)
	assert.EqualValues(t, 3, st.TotalLots)
	assert.EqualValues(t, 62, st.TotalStock)
	assert.EqualValues(t, 4, st.TotalVentes)
	assert.EqualValues(t, 2, st.TotalSocietes)
	assert.EqualValues(t, 2, st.TotalVendeurs)
	assert.True(t, st.MonthlyRevenue.Equal(dec("10")), st.MonthlyRevenue.String())
}

func TestKeyMetrics(t *testing.T) {
	f := newFixture(t, nil)

	m, err := f.svc.KeyMetrics(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, m.SalesToday)
	assert.True(t, m.RevenueToday.Equal(dec("4")))
	assert.Equal(t, 2, m.SalesThisMonth)
	assert.True(t, m.RevenueThisMonth.Equal(dec("10")))
	assert.InDelta(t, 100.0, m.SalesEvolution, 0.001)
	assert.InDelta(t, 150.0, m.RevenueEvolution, 0.001)
	assert.EqualValues(t, 3, m.CriticalStockAlerts)
	assert.EqualValues(t, 1, m.ExpiringLots)
}

func TestPercentChange(t *testing.T) {
	assert.Zero(t, percentChange(dec("10"), decimal.Zero))
	assert.InDelta(t, -50.0, percentChange(dec("5"), dec("10")), 0.001)
	assert.InDelta(t, 33.33, percentChange(dec("4"), dec("3")), 0.001)
}

func TestSalesByMonth(t *testing.T) {
	f := newFixture(t, nil)

	points, err := f.svc.SalesByMonth(context.Background())
	require.NoError(t, err)
	require.Len(t, points, 12)

	assert.Equal(t, "juillet", points[0].Month)
	assert.Equal(t, 2024, points[0].Year)
	assert.Zero(t, points[0].SalesCount)

	assert.Equal(t, "mai", points[10].Month)
	assert.Equal(t, 1, points[10].SalesCount)

	last := points[11]
	assert.Equal(t, "juin", last.Month)
	assert.Equal(t, 6, last.MonthNum)
	assert.Equal(t, 2, last.SalesCount)
	assert.Equal(t, 5, last.QtySold)
	assert.True(t, last.Revenue.Equal(dec("10")))
}

func TestSalesByPeriod(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	days, err := f.svc.SalesByPeriod(ctx, PeriodDay, 0)
	require.NoError(t, err)
	require.Len(t, days.Points, 7)
	assert.Equal(t, "08/06", days.Points[0].Period)
	assert.Equal(t, "14/06", days.Points[6].Period)
	assert.Equal(t, 1, days.Points[6].SalesCount)
	assert.Equal(t, 1, days.Totals.SalesCount)
	assert.Equal(t, "2025-06-14", days.To)

	weeks, err := f.svc.SalesByPeriod(ctx, PeriodWeek, 0)
	require.NoError(t, err)
	require.Len(t, weeks.Points, 8)
	assert.Equal(t, "2025-04-21", weeks.From)
	assert.Equal(t, "S24 2025", weeks.Points[7].Period)
	assert.Equal(t, 1, weeks.Points[7].SalesCount)
	assert.Equal(t, 1, weeks.Points[6].SalesCount)
	assert.Equal(t, 3, weeks.Totals.SalesCount)
	assert.True(t, weeks.Totals.Revenue.Equal(dec("14")))

	months, err := f.svc.SalesByPeriod(ctx, PeriodMonth, 3)
	require.NoError(t, err)
	require.Len(t, months.Points, 3)
	assert.Equal(t, "avril 2025", months.Points[0].Period)
	assert.Equal(t, 3, months.Totals.SalesCount)

	_, err = f.svc.SalesByPeriod(ctx, "annee", 0)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

func TestSalesByPeriod_CountLimit(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	cases := []struct {
		period string
		limit  int
	}{
		{PeriodDay, 366},
		{PeriodWeek, 104},
		{PeriodMonth, 120},
	}
	for _, tc := range cases {
		t.Run(tc.period, func(t *testing.T) {
			chart, err := f.svc.SalesByPeriod(ctx, tc.period, tc.limit)
			require.NoError(t, err)
			assert.Len(t, chart.Points, tc.limit)

			for _, count := range []int{tc.limit + 1, math.MaxInt} {
				_, err := f.svc.SalesByPeriod(ctx, tc.period, count)
				require.Error(t, err)
				appErr, ok := apperror.AsAppError(err)
				require.True(t, ok)
				assert.Equal(t, http.StatusBadRequest, appErr.HTTPStatus)
				assert.Equal(t, count, appErr.Details["count"])
			}
		})
	}
}

func TestTopArticlesAndSalesBySociete(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	top, err := f.svc.TopArticles(ctx)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "Doliprane", top[0].Article)
	assert.Equal(t, 5, top[0].QtySold)
	assert.Equal(t, 2, top[0].SalesCount)
	assert.True(t, top[0].Revenue.Equal(dec("10")))
	assert.Equal(t, "Biafine", top[1].Article)

	bySociete, err := f.svc.SalesBySociete(ctx)
	require.NoError(t, err)
	require.Len(t, bySociete, 2)
	assert.Equal(t, "Pharmacie du Port", bySociete[0].Societe)
	assert.InDelta(t, 55.56, bySociete[0].Share, 0.001)
	assert.InDelta(t, 44.44, bySociete[1].Share, 0.001)
}

func TestStockViews(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	byArticle, err := f.svc.StockByArticle(ctx)
	require.NoError(t, err)
	require.Len(t, byArticle, 2)
	assert.Equal(t, "Biafine", byArticle[0].Article)
	assert.Equal(t, 20, byArticle[0].Qty)
	assert.True(t, byArticle[0].Value.Equal(dec("80")))
	assert.Equal(t, "Doliprane", byArticle[1].Article)
	assert.Equal(t, 2, byArticle[1].LotCount)
	assert.True(t, byArticle[1].Value.Equal(dec("10")))

	prices, err := f.svc.AveragePrices(ctx)
	require.NoError(t, err)
	require.Len(t, prices, 2)
	assert.True(t, prices[1].Average.Equal(dec("2.5")))
	assert.True(t, prices[1].Min.Equal(dec("2")))
	assert.True(t, prices[1].Max.Equal(dec("3")))

	alerts, err := f.svc.StockAlerts(ctx)
	require.NoError(t, err)
	require.Len(t, alerts, 3)
	assert.Equal(t, StatusRupture, alerts[0].Status)
	assert.Equal(t, "Doliprane", alerts[0].ArticleName)
	assert.Equal(t, StatusCritique, alerts[1].Status)
	assert.Equal(t, StatusFaible, alerts[2].Status)
	assert.Equal(t, "Pharmacie Centrale", alerts[2].SocieteName)

	expiring, err := f.svc.ExpiringLots(ctx)
	require.NoError(t, err)
	require.Len(t, expiring, 1)
	assert.Equal(t, "L1", expiring[0].LotNumber)
	assert.Equal(t, 6, expiring[0].DaysRemaining)
}

func TestAlertStatus(t *testing.T) {
	assert.Equal(t, StatusRupture, alertStatus(0, 10))
	assert.Equal(t, StatusCritique, alertStatus(5, 10))
	assert.Equal(t, StatusFaible, alertStatus(6, 10))
	assert.Equal(t, StatusFaible, alertStatus(10, 10))
	assert.Empty(t, alertStatus(11, 10))
}

func TestRevenueTrendAndSellers(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	trend, err := f.svc.RevenueTrend(ctx)
	require.NoError(t, err)
	require.Len(t, trend, 30)
	assert.Equal(t, "2025-05-16", trend[0].Date)
	assert.Equal(t, "2025-06-14", trend[29].Date)
	assert.True(t, trend[29].Revenue.Equal(dec("4")))
	assert.Equal(t, 1, trend[4].SalesCount)

	sellers, err := f.svc.SellerPerformance(ctx)
	require.NoError(t, err)
	require.Len(t, sellers, 2)
	assert.Equal(t, "vendeur@example.com", sellers[0].Email)
	assert.Equal(t, 1, sellers[0].SalesCount)
	assert.True(t, sellers[0].Revenue.Equal(dec("4")))
	assert.Zero(t, sellers[1].SalesCount)
}

func TestSummaryIsCachedUntilInvalidated(t *testing.T) {
	f := newFixture(t, cache.NewMemory())
	ctx := context.Background()

	first, err := f.svc.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Metrics.SalesToday)
	assert.Len(t, first.SalesByMonth, 12)
	assert.Len(t, first.Alerts, 3)

	var s1 models.Societe
	require.NoError(t, f.db.First(&s1).Error)
	createVente(t, f.db, s1.ID, "Doliprane", 1, "2.00", day(2025, 6, 14, 9), nil)

	cached, err := f.svc.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, cached.Metrics.SalesToday)

	f.svc.Invalidate(ctx)
	fresh, err := f.svc.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, fresh.Metrics.SalesToday)
}
