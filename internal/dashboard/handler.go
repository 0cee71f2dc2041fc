package dashboard

import (
	"context"

	"github.com/gofiber/fiber/v2"
)

// jsonHandler adapts a parameterless service query to a fiber handler.
func jsonHandler[T any](fn func(ctx context.Context) (T, error)) fiber.Handler {
	return func(c *fiber.Ctx) error {
		out, err := fn(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(out)
	}
}

func GeneralStatsHandler(svc *Service) fiber.Handler      { return jsonHandler(svc.GeneralStats) }
func KeyMetricsHandler(svc *Service) fiber.Handler        { return jsonHandler(svc.KeyMetrics) }
func SalesByMonthHandler(svc *Service) fiber.Handler      { return jsonHandler(svc.SalesByMonth) }
func TopArticlesHandler(svc *Service) fiber.Handler       { return jsonHandler(svc.TopArticles) }
func StockByArticleHandler(svc *Service) fiber.Handler    { return jsonHandler(svc.StockByArticle) }
func ExpiringLotsHandler(svc *Service) fiber.Handler      { return jsonHandler(svc.ExpiringLots) }
func RevenueTrendHandler(svc *Service) fiber.Handler      { return jsonHandler(svc.RevenueTrend) }
func SalesBySocieteHandler(svc *Service) fiber.Handler    { return jsonHandler(svc.SalesBySociete) }
func StockAlertsHandler(svc *Service) fiber.Handler       { return jsonHandler(svc.StockAlerts) }
func AveragePricesHandler(svc *Service) fiber.Handler     { return jsonHandler(svc.AveragePrices) }
func SellerPerformanceHandler(svc *Service) fiber.Handler { return jsonHandler(svc.SellerPerformance) }
func SummaryHandler(svc *Service) fiber.Handler           { return jsonHandler(svc.Summary) }

// GET /api/dashboard/ventes/par-periode?periode=semaine&count=8
func SalesByPeriodHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		chart, err := svc.SalesByPeriod(c.UserContext(), c.Query("periode", PeriodDay), c.QueryInt("count", 0))
		if err != nil {
			return err
		}
		return c.JSON(chart)
	}
}
