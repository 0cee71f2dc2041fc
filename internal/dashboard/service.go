// Package dashboard computes the back-office statistics.
package dashboard

import (
	"context"
	"fmt"
	"sort"
	"time"

	"stock-backend/internal/cache"
	"stock-backend/internal/logger"
	"stock-backend/internal/metrics"
	"stock-backend/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const summaryKey = "dashboard:resume"

const (
	StatusRupture  = "Rupture"
	StatusCritique = "Critique"
	StatusFaible   = "Faible"
)

var monthNames = [...]string{
	"janvier", "février", "mars", "avril", "mai", "juin",
	"juillet", "août", "septembre", "octobre", "novembre", "décembre",
}

func monthName(m time.Month) string { return monthNames[m-1] }

type Options struct {
	StockAlertThreshold  int
	ExpirationWindowDays int
	SummaryTTL           time.Duration
	// Cache is optional. Without it Summary is computed on every call.
	Cache cache.Cache
}

type Service struct {
	db   *gorm.DB
	opts Options
	now  func() time.Time
}

func NewService(db *gorm.DB, opts Options) *Service {
	if opts.StockAlertThreshold <= 0 {
		opts.StockAlertThreshold = 10
	}
	if opts.ExpirationWindowDays <= 0 {
		opts.ExpirationWindowDays = 30
	}
	if opts.SummaryTTL <= 0 {
		opts.SummaryTTL = time.Minute
	}
	return &Service{db: db, opts: opts, now: time.Now}
}

type GeneralStats struct {
	TotalArticles  int64           `json:"totalArticles"`
	TotalLots      int64           `json:"totalLots"`
	TotalStock     int64           `json:"totalStock"`
	TotalVentes    int64           `json:"totalVentes"`
	TotalSocietes  int64           `json:"totalSocietes"`
	TotalVendeurs  int64           `json:"totalVendeurs"`
	MonthlyRevenue decimal.Decimal `json:"chiffreAffaireMensuel"`
}

type KeyMetrics struct {
	SalesToday          int             `json:"ventesAujourdhui"`
	RevenueToday        decimal.Decimal `json:"caAujourdhui"`
	SalesThisMonth      int             `json:"ventesMoisActuel"`
	RevenueThisMonth    decimal.Decimal `json:"caMoisActuel"`
	SalesEvolution      float64         `json:"evolutionVentesMois"`
	RevenueEvolution    float64         `json:"evolutionCAMois"`
	CriticalStockAlerts int64           `json:"alertesStockCritique"`
	ExpiringLots        int64           `json:"lotsProchesExpiration"`
}

type MonthPoint struct {
	Month      string          `json:"mois"`
	Year       int             `json:"annee"`
	MonthNum   int             `json:"moisNum"`
	SalesCount int             `json:"nombreVentes"`
	QtySold    int             `json:"quantiteVendue"`
	Revenue    decimal.Decimal `json:"chiffreAffaire"`
}

type TopArticle struct {
	Article    string          `gorm:"column:article" json:"article"`
	QtySold    int             `gorm:"column:qty_sold" json:"quantiteVendue"`
	SalesCount int             `gorm:"column:sales_count" json:"nombreVentes"`
	Revenue    decimal.Decimal `gorm:"column:revenue" json:"chiffreAffaire"`
}

type ArticleStock struct {
	Article  string          `gorm:"column:article" json:"article"`
	Qty      int             `gorm:"column:qty" json:"quantiteStock"`
	LotCount int             `gorm:"column:lot_count" json:"nombreLots"`
	Value    decimal.Decimal `gorm:"column:value" json:"valeurStock"`
}

type ExpiringLot struct {
	ID            uint       `json:"id"`
	LotNumber     string     `json:"numLot"`
	ArticleName   string     `json:"articleNom"`
	AvailableQty  int        `json:"quantiteDisponible"`
	ExpiresAt     *time.Time `json:"dateExpiration"`
	DaysRemaining int        `json:"joursRestants"`
}

type RevenuePoint struct {
	Date       string          `json:"date"`
	Revenue    decimal.Decimal `json:"chiffreAffaire"`
	SalesCount int             `json:"nombreVentes"`
}

type SocieteSales struct {
	Societe    string          `gorm:"column:societe" json:"societe"`
	SalesCount int             `gorm:"column:sales_count" json:"nombreVentes"`
	QtySold    int             `gorm:"column:qty_sold" json:"quantiteVendue"`
	Revenue    decimal.Decimal `gorm:"column:revenue" json:"chiffreAffaire"`
	Share      float64         `gorm:"-" json:"pourcentageCA"`
}

type StockAlert struct {
	ArticleName string     `json:"articleNom"`
	LotNumber   string     `json:"lotNum"`
	Qty         int        `json:"quantiteActuelle"`
	Status      string     `json:"statut"`
	SocieteName string     `json:"societeNom"`
	ExpiresAt   *time.Time `json:"dateExpiration"`
}

type ArticlePrices struct {
	Article  string          `gorm:"column:article" json:"article"`
	Average  decimal.Decimal `gorm:"column:avg_price" json:"prixMoyen"`
	Min      decimal.Decimal `gorm:"column:min_price" json:"prixMin"`
	Max      decimal.Decimal `gorm:"column:max_price" json:"prixMax"`
	LotCount int             `gorm:"column:lot_count" json:"nombreLots"`
}

type SellerPerformance struct {
	ID         uint            `gorm:"column:id" json:"id"`
	Name       string          `gorm:"column:name" json:"nom"`
	Email      string          `gorm:"column:email" json:"email"`
	SalesCount int             `gorm:"column:sales_count" json:"nombreVentes"`
	Revenue    decimal.Decimal `gorm:"column:revenue" json:"chiffreAffaire"`
	CreatedAt  time.Time       `gorm:"column:created_at" json:"dateCreation"`
}

type Summary struct {
	Metrics      *KeyMetrics  `json:"metriques"`
	SalesByMonth []MonthPoint `json:"ventesParMois"`
	TopArticles  []TopArticle `json:"topArticles"`
	Alerts       []StockAlert `json:"alertes"`
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func startOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// percentChange is 0 when there is nothing to compare with.
func percentChange(cur, prev decimal.Decimal) float64 {
	if prev.IsZero() {
		return 0
	}
	return cur.Sub(prev).Div(prev).Mul(decimal.NewFromInt(100)).Round(2).InexactFloat64()
}

// saleRow is the slice of a vente the time series need.
type saleRow struct {
	Date       time.Time
	Qty        int
	TotalPrice decimal.Decimal
}

// salesBetween returns the sales dated in [from, to).
func (s *Service) salesBetween(ctx context.Context, from, to time.Time) ([]saleRow, error) {
	var rows []saleRow
	err := s.db.WithContext(ctx).Model(&models.Vente{}).
		Select("date", "qty", "total_price").
		Where("date >= ? AND date < ?", from, to).
		Order("date").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("ventes de la période: %w", err)
	}
	return rows, nil
}

func totals(rows []saleRow) (count int, qty int, revenue decimal.Decimal) {
	revenue = decimal.Zero
	for _, r := range rows {
		count++
		qty += r.Qty
		revenue = revenue.Add(r.TotalPrice)
	}
	return count, qty, revenue.Round(2)
}

func (s *Service) GeneralStats(ctx context.Context) (*GeneralStats, error) {
	db := s.db.WithContext(ctx)
	st := &GeneralStats{}

	counts := []struct {
		model any
		where string
		args  []any
		dst   *int64
	}{
		{&models.Article{}, "", nil, &st.TotalArticles},
		{&models.Lot{}, "", nil, &st.TotalLots},
		{&models.Vente{}, "", nil, &st.TotalVentes},
		{&models.Societe{}, "", nil, &st.TotalSocietes},
		{&models.User{}, "role = ?", []any{models.RoleVendeur}, &st.TotalVendeurs},
	}
	for _, c := range counts {
		q := db.Model(c.model)
		if c.where != "" {
			q = q.Where(c.where, c.args...)
		}
		if err := q.Count(c.dst).Error; err != nil {
			return nil, fmt.Errorf("statistiques générales: %w", err)
		}
	}
	if err := db.Model(&models.Stock{}).Select("COALESCE(SUM(qty), 0)").Scan(&st.TotalStock).Error; err != nil {
		return nil, fmt.Errorf("total stock: %w", err)
	}

	from := startOfMonth(s.now())
	rows, err := s.salesBetween(ctx, from, from.AddDate(0, 1, 0))
	if err != nil {
		return nil, err
	}
	_, _, st.MonthlyRevenue = totals(rows)
	return st, nil
}

func (s *Service) KeyMetrics(ctx context.Context) (*KeyMetrics, error) {
	now := s.now()
	today := startOfDay(now)
	month := startOfMonth(now)
	prevMonth := month.AddDate(0, -1, 0)

	todayRows, err := s.salesBetween(ctx, today, today.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}
	monthRows, err := s.salesBetween(ctx, month, month.AddDate(0, 1, 0))
	if err != nil {
		return nil, err
	}
	prevRows, err := s.salesBetween(ctx, prevMonth, month)
	if err != nil {
		return nil, err
	}

	m := &KeyMetrics{}
	m.SalesToday, _, m.RevenueToday = totals(todayRows)
	m.SalesThisMonth, _, m.RevenueThisMonth = totals(monthRows)
	prevCount, _, prevRevenue := totals(prevRows)
	m.SalesEvolution = percentChange(decimal.NewFromInt(int64(m.SalesThisMonth)), decimal.NewFromInt(int64(prevCount)))
	m.RevenueEvolution = percentChange(m.RevenueThisMonth, prevRevenue)

	db := s.db.WithContext(ctx)
	if err := db.Model(&models.Stock{}).Where("qty <= ?", s.opts.StockAlertThreshold).
		Count(&m.CriticalStockAlerts).Error; err != nil {
		return nil, fmt.Errorf("alertes stock: %w", err)
	}
	limit := today.AddDate(0, 0, s.opts.ExpirationWindowDays+1)
	if err := db.Model(&models.Lot{}).
		Where("available_qty > 0 AND expires_at IS NOT NULL AND expires_at >= ? AND expires_at < ?", today, limit).
		Count(&m.ExpiringLots).Error; err != nil {
		return nil, fmt.Errorf("lots proches expiration: %w", err)
	}
	return m, nil
}

// SalesByMonth covers the last twelve months, current month included,
// oldest first.
func (s *Service) SalesByMonth(ctx context.Context) ([]MonthPoint, error) {
	end := startOfMonth(s.now()).AddDate(0, 1, 0)
	start := end.AddDate(0, -12, 0)
	rows, err := s.salesBetween(ctx, start, end)
	if err != nil {
		return nil, err
	}

	points := make([]MonthPoint, 12)
	for i := range points {
		m := start.AddDate(0, i, 0)
		points[i] = MonthPoint{Month: monthName(m.Month()), Year: m.Year(), MonthNum: int(m.Month()), Revenue: decimal.Zero}
	}
	loc := start.Location()
	for _, r := range rows {
		d := r.Date.In(loc)
		i := (d.Year()-start.Year())*12 + int(d.Month()) - int(start.Month())
		if i < 0 || i >= len(points) {
			continue
		}
		points[i].SalesCount++
		points[i].QtySold += r.Qty
		points[i].Revenue = points[i].Revenue.Add(r.TotalPrice)
	}
	for i := range points {
		points[i].Revenue = points[i].Revenue.Round(2)
	}
	return points, nil
}

func (s *Service) TopArticles(ctx context.Context) ([]TopArticle, error) {
	var out []TopArticle
	err := s.db.WithContext(ctx).Model(&models.Vente{}).
		Select("article, COUNT(*) AS sales_count, COALESCE(SUM(qty), 0) AS qty_sold, COALESCE(SUM(total_price), 0) AS revenue").
		Group("article").
		Order("qty_sold DESC, revenue DESC, article").
		Limit(10).
		Scan(&out).Error
	if err != nil {
		return nil, fmt.Errorf("top articles: %w", err)
	}
	for i := range out {
		out[i].Revenue = out[i].Revenue.Round(2)
	}
	return out, nil
}

func (s *Service) StockByArticle(ctx context.Context) ([]ArticleStock, error) {
	var out []ArticleStock
	err := s.db.WithContext(ctx).Table("articles").
		Select("articles.name AS article, COALESCE(SUM(lots.available_qty), 0) AS qty, COUNT(lots.id) AS lot_count, " +
			"COALESCE(SUM(lots.available_qty * lots.unit_price), 0) AS value").
		Joins("LEFT JOIN lots ON lots.article_id = articles.id").
		Group("articles.id, articles.name").
		Order("articles.name").
		Scan(&out).Error
	if err != nil {
		return nil, fmt.Errorf("stock par article: %w", err)
	}
	for i := range out {
		out[i].Value = out[i].Value.Round(2)
	}
	return out, nil
}

// ExpiringLots lists lots still in stock that expire between today and the
// end of the configured window, soonest first.
func (s *Service) ExpiringLots(ctx context.Context) ([]ExpiringLot, error) {
	today := startOfDay(s.now())
	limit := today.AddDate(0, 0, s.opts.ExpirationWindowDays+1)

	var lots []models.Lot
	err := s.db.WithContext(ctx).Preload("Article").
		Where("available_qty > 0 AND expires_at IS NOT NULL AND expires_at >= ? AND expires_at < ?", today, limit).
		Order("expires_at, id").
		Find(&lots).Error
	if err != nil {
		return nil, fmt.Errorf("lots proches expiration: %w", err)
	}

	out := make([]ExpiringLot, 0, len(lots))
	for _, l := range lots {
		row := ExpiringLot{
			ID:            l.ID,
			LotNumber:     l.Number,
			AvailableQty:  l.AvailableQty,
			ExpiresAt:     l.ExpiresAt,
			DaysRemaining: int(startOfDay(l.ExpiresAt.In(today.Location())).Sub(today).Hours() / 24),
		}
		if l.Article != nil {
			row.ArticleName = l.Article.Name
		}
		out = append(out, row)
	}
	return out, nil
}

// RevenueTrend gives one point per day over the last 30 days, today
// included.
func (s *Service) RevenueTrend(ctx context.Context) ([]RevenuePoint, error) {
	const days = 30
	end := startOfDay(s.now()).AddDate(0, 0, 1)
	start := end.AddDate(0, 0, -days)
	rows, err := s.salesBetween(ctx, start, end)
	if err != nil {
		return nil, err
	}

	points := make([]RevenuePoint, days)
	index := make(map[string]int, days)
	for i := range points {
		label := start.AddDate(0, 0, i).Format("2006-01-02")
		points[i] = RevenuePoint{Date: label, Revenue: decimal.Zero}
		index[label] = i
	}
	for _, r := range rows {
		i, ok := index[r.Date.In(start.Location()).Format("2006-01-02")]
		if !ok {
			continue
		}
		points[i].SalesCount++
		points[i].Revenue = points[i].Revenue.Add(r.TotalPrice)
	}
	for i := range points {
		points[i].Revenue = points[i].Revenue.Round(2)
	}
	return points, nil
}

func (s *Service) SalesBySociete(ctx context.Context) ([]SocieteSales, error) {
	var out []SocieteSales
	err := s.db.WithContext(ctx).Model(&models.Vente{}).
		Select("societes.name AS societe, COUNT(ventes.id) AS sales_count, COALESCE(SUM(ventes.qty), 0) AS qty_sold, " +
			"COALESCE(SUM(ventes.total_price), 0) AS revenue").
		Joins("JOIN societes ON societes.id = ventes.societe_id").
		Group("societes.id, societes.name").
		Order("revenue DESC, societes.name").
		Scan(&out).Error
	if err != nil {
		return nil, fmt.Errorf("ventes par société: %w", err)
	}

	total := decimal.Zero
	for i := range out {
		out[i].Revenue = out[i].Revenue.Round(2)
		total = total.Add(out[i].Revenue)
	}
	if !total.IsZero() {
		for i := range out {
			out[i].Share = out[i].Revenue.Div(total).Mul(decimal.NewFromInt(100)).Round(2).InexactFloat64()
		}
	}
	return out, nil
}

// alertStatus classifies a stock quantity against the threshold. The empty
// string means no alert.
func alertStatus(qty, threshold int) string {
	switch {
	case qty <= 0:
		return StatusRupture
	case qty <= threshold/2:
		return StatusCritique
	case qty <= threshold:
		return StatusFaible
	default:
		return ""
	}
}

func (s *Service) StockAlerts(ctx context.Context) ([]StockAlert, error) {
	var stocks []models.Stock
	err := s.db.WithContext(ctx).Preload("Article").Preload("Societe").
		Where("qty <= ?", s.opts.StockAlertThreshold).
		Order("qty, id").
		Find(&stocks).Error
	if err != nil {
		return nil, fmt.Errorf("alertes stock: %w", err)
	}

	out := make([]StockAlert, 0, len(stocks))
	for _, st := range stocks {
		a := StockAlert{
			ArticleName: st.Barcode,
			LotNumber:   st.LotNumber,
			Qty:         st.Qty,
			Status:      alertStatus(st.Qty, s.opts.StockAlertThreshold),
			ExpiresAt:   st.ExpiresAt,
		}
		if st.Article != nil {
			a.ArticleName = st.Article.Name
		}
		if st.Societe != nil {
			a.SocieteName = st.Societe.Name
		}
		out = append(out, a)
	}
	return out, nil
}

func (s *Service) AveragePrices(ctx context.Context) ([]ArticlePrices, error) {
	var out []ArticlePrices
	err := s.db.WithContext(ctx).Table("lots").
		Select("articles.name AS article, AVG(lots.unit_price) AS avg_price, MIN(lots.unit_price) AS min_price, " +
			"MAX(lots.unit_price) AS max_price, COUNT(lots.id) AS lot_count").
		Joins("JOIN articles ON articles.id = lots.article_id").
		Group("articles.id, articles.name").
		Order("articles.name").
		Scan(&out).Error
	if err != nil {
		return nil, fmt.Errorf("prix moyens: %w", err)
	}
	for i := range out {
		out[i].Average = out[i].Average.Round(2)
		out[i].Min = out[i].Min.Round(2)
		out[i].Max = out[i].Max.Round(2)
	}
	return out, nil
}

func (s *Service) SellerPerformance(ctx context.Context) ([]SellerPerformance, error) {
	var out []SellerPerformance
	err := s.db.WithContext(ctx).Table("users").
		Select("users.id, users.name, users.email, users.created_at, COUNT(ventes.id) AS sales_count, "+
			"COALESCE(SUM(ventes.total_price), 0) AS revenue").
		Joins("LEFT JOIN ventes ON ventes.vendeur_id = users.id").
		Where("users.role = ?", models.RoleVendeur).
		Group("users.id, users.name, users.email, users.created_at").
		Scan(&out).Error
	if err != nil {
		return nil, fmt.Errorf("performances vendeurs: %w", err)
	}
	for i := range out {
		out[i].Revenue = out[i].Revenue.Round(2)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if c := out[i].Revenue.Cmp(out[j].Revenue); c != 0 {
			return c > 0
		}
		return out[i].SalesCount > out[j].SalesCount
	})
	return out, nil
}

// Summary bundles the home page data. It is cached for SummaryTTL.
func (s *Service) Summary(ctx context.Context) (*Summary, error) {
	c := s.opts.Cache
	if c != nil {
		var cached Summary
		hit, err := c.Get(ctx, summaryKey, &cached)
		if err != nil {
			logger.Warn(ctx, "dashboard cache read failed", "error", err)
		}
		if hit {
			metrics.CacheHits.WithLabelValues(c.Driver()).Inc()
			return &cached, nil
		}
		metrics.CacheMisses.WithLabelValues(c.Driver()).Inc()
	}

	sum := &Summary{}
	var err error
	if sum.Metrics, err = s.KeyMetrics(ctx); err != nil {
		return nil, err
	}
	if sum.SalesByMonth, err = s.SalesByMonth(ctx); err != nil {
		return nil, err
	}
	if sum.TopArticles, err = s.TopArticles(ctx); err != nil {
		return nil, err
	}
	if sum.Alerts, err = s.StockAlerts(ctx); err != nil {
		return nil, err
	}

	if c != nil {
		if err := c.Set(ctx, summaryKey, sum, s.opts.SummaryTTL); err != nil {
			logger.Warn(ctx, "dashboard cache write failed", "error", err)
		}
	}
	return sum, nil
}

// Invalidate drops the cached summary. Registered on sale changes.
func (s *Service) Invalidate(ctx context.Context) {
	if s.opts.Cache == nil {
		return
	}
	if err := s.opts.Cache.Del(ctx, summaryKey); err != nil {
		logger.Warn(ctx, "dashboard cache invalidation failed", "error", err)
	}
}
