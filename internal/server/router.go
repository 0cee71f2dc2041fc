// Package server builds the fiber application and its routes.
package server

import (
	"strings"
	"time"

	"stock-backend/internal/admin"
	"stock-backend/internal/audit"
	"stock-backend/internal/auth"
	"stock-backend/internal/cache"
	"stock-backend/internal/config"
	"stock-backend/internal/dashboard"
	"stock-backend/internal/database"
	"stock-backend/internal/inventory"
	"stock-backend/internal/logger"
	"stock-backend/internal/metrics"
	"stock-backend/internal/models"
	"stock-backend/internal/sales"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const appName = "stock-backend"

// Version is set at build time with -ldflags "-X stock-backend/internal/server.Version=...".
var Version = "dev"

type Deps struct {
	Config *config.Config
	DB     *gorm.DB
	// Cache backs the dashboard summary. Nil disables caching.
	Cache  cache.Cache
	Logger *logger.Logger
}

func New(d Deps) *fiber.App {
	cfg := d.Config
	db := d.DB
	log := d.Logger
	if log == nil {
		log = logger.Default()
	}

	app := fiber.New(fiber.Config{
		AppName:      appName,
		ErrorHandler: ErrorHandler,
		BodyLimit:    10 * 1024 * 1024,
	})

	app.Use(recover.New(recover.Config{EnableStackTrace: cfg.LogDevelopment}))
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(requestContext(log))
	app.Use(requestLogger())
	app.Use(metrics.Middleware())

	origins := strings.Split(cfg.CORSOrigins, ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(origins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
	}))

	auditSvc := audit.NewService(db)
	authSvc := auth.NewService(db, cfg.JWTSecret, cfg.JWTTTL)
	societes := admin.NewSocieteService(db)
	vendeurs := admin.NewVendeurService(db)
	articles := inventory.NewArticleService(db)
	lots := inventory.NewLotService(db)
	stocks := inventory.NewStockService(db)
	dash := dashboard.NewService(db, dashboard.Options{
		StockAlertThreshold:  cfg.StockAlertThreshold,
		ExpirationWindowDays: cfg.ExpirationWindowDays,
		SummaryTTL:           cfg.DashboardTTL,
		Cache:                d.Cache,
	})
	ventes := sales.NewVenteService(db)
	ventes.OnChange(dash.Invalidate)
	tickets := sales.NewTicketService(db)

	app.Get("/metrics", metrics.Handler())

	api := app.Group("/api")

	api.Get("/info", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"name":    appName,
			"version": Version,
			"time":    time.Now(),
		})
	})
	api.Get("/health", func(c *fiber.Ctx) error {
		if err := database.Ping(db); err != nil {
			logger.Warn(c.UserContext(), "health check failed", "error", err)
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status":   "degraded",
				"database": "unreachable",
			})
		}
		return c.JSON(fiber.Map{"status": "ok", "database": "ok"})
	})

	// Public auth
	api.Post("/auth/login", auth.LoginHandler(authSvc))
	api.Post("/auth/register-admin", auth.RegisterAdminHandler(authSvc))

	protected := api.Group("", auth.JWTMiddleware(cfg))
	adminOnly := auth.RequireRole(models.RoleAdmin)

	protected.Get("/auth/me", auth.MeHandler(authSvc))
	protected.Put("/auth/profile", auth.UpdateProfileHandler(authSvc))
	protected.Put("/auth/password", auth.ChangePasswordHandler(authSvc))

	// Articles
	protected.Get("/articles", inventory.ListArticlesHandler(articles))
	protected.Get("/articles/search", inventory.SearchArticlesHandler(articles))
	protected.Get("/articles/code/:code", inventory.GetArticleByCodeHandler(articles))
	protected.Get("/articles/societe/:societeId", inventory.ListArticlesBySocieteHandler(articles))
	protected.Get("/articles/:id", inventory.GetArticleHandler(articles))
	protected.Post("/articles/import", adminOnly, inventory.ImportArticlesHandler(articles, auditSvc))
	protected.Post("/articles", adminOnly, inventory.CreateArticleHandler(articles, auditSvc))
	protected.Put("/articles/:id", adminOnly, inventory.UpdateArticleHandler(articles, auditSvc))
	protected.Delete("/articles/:id", adminOnly, inventory.DeleteArticleHandler(articles, auditSvc))

	// Lots
	protected.Get("/lots", inventory.ListLotsHandler(lots))
	protected.Get("/lots/article/:articleId", inventory.ListLotsByArticleHandler(lots))
	protected.Get("/lots/select/article/:articleId", inventory.ListLotsForSelectHandler(lots))
	protected.Get("/lots/:id", inventory.GetLotHandler(lots))
	protected.Post("/lots", adminOnly, inventory.CreateLotHandler(lots, auditSvc))
	protected.Put("/lots/:id", adminOnly, inventory.UpdateLotHandler(lots, auditSvc))
	protected.Patch("/lots/:id/quantite", adminOnly, inventory.UpdateLotQuantityHandler(lots, auditSvc))
	protected.Delete("/lots/:id", adminOnly, inventory.DeleteLotHandler(lots, auditSvc))

	// Stocks
	protected.Get("/stocks/consultation/societe/:societeId", inventory.StockConsultationHandler(stocks))
	protected.Get("/stocks", adminOnly, inventory.ListStocksHandler(stocks))
	protected.Get("/stocks/societe/:societeId", adminOnly, inventory.ListStocksBySocieteHandler(stocks))
	protected.Get("/stocks/:id", adminOnly, inventory.GetStockHandler(stocks))
	protected.Post("/stocks", adminOnly, inventory.CreateStockHandler(stocks, auditSvc))
	protected.Put("/stocks/:id", adminOnly, inventory.UpdateStockHandler(stocks, auditSvc))
	protected.Delete("/stocks/:id", adminOnly, inventory.DeleteStockHandler(stocks, auditSvc))

	// Sociétés
	protected.Get("/societes", admin.ListSocietesHandler(societes))
	protected.Get("/societes/:id", admin.GetSocieteHandler(societes))
	protected.Post("/societes", adminOnly, admin.CreateSocieteHandler(societes, auditSvc))
	protected.Put("/societes/:id", adminOnly, admin.UpdateSocieteHandler(societes, auditSvc))
	protected.Delete("/societes/:id", adminOnly, admin.DeleteSocieteHandler(societes, auditSvc))

	// Vendeur back-office
	backoffice := protected.Group("/backoffice/vendeurs", adminOnly)
	backoffice.Get("/", admin.ListVendeursHandler(vendeurs))
	backoffice.Get("/search", admin.SearchVendeursHandler(vendeurs))
	backoffice.Get("/:id", admin.GetVendeurHandler(vendeurs))
	backoffice.Post("/", admin.CreateVendeurHandler(vendeurs, auditSvc))
	backoffice.Put("/:id", admin.UpdateVendeurHandler(vendeurs, auditSvc))
	backoffice.Delete("/:id", admin.DeleteVendeurHandler(vendeurs, auditSvc))

	// Ventes: the quick-sale and validation routes are open to sellers.
	protected.Post("/ventes/vente-rapide", sales.VenteRapideHandler(ventes, auditSvc))
	protected.Post("/ventes/article", sales.VenteRapideHandler(ventes, auditSvc))
	protected.Post("/ventes/valider", sales.ValiderVenteHandler(ventes))
	protected.Post("/ventes/avec-calcul", adminOnly, sales.CreateVenteAvecCalculHandler(ventes, auditSvc))
	protected.Get("/ventes/export", adminOnly, sales.ExportVentesHandler(ventes))
	protected.Get("/ventes/societe/:societeId", adminOnly, sales.ListVentesBySocieteHandler(ventes))
	protected.Get("/ventes", adminOnly, sales.ListVentesHandler(ventes))
	protected.Get("/ventes/:id", adminOnly, sales.GetVenteHandler(ventes))
	protected.Post("/ventes", adminOnly, sales.CreateVenteHandler(ventes, auditSvc))
	protected.Put("/ventes/:id/avec-calcul", adminOnly, sales.UpdateVenteAvecCalculHandler(ventes, auditSvc))
	protected.Put("/ventes/:id", adminOnly, sales.UpdateVenteHandler(ventes, auditSvc))
	protected.Delete("/ventes/:id", adminOnly, sales.DeleteVenteHandler(ventes, auditSvc))

	// Tickets
	protected.Get("/tickets", adminOnly, sales.ListTicketsHandler(tickets))
	protected.Get("/tickets/barcode/:code", sales.GetTicketByBarcodeHandler(tickets))
	protected.Post("/tickets/generate", sales.GenerateTicketHandler(tickets))
	protected.Get("/tickets/:id/recu", sales.TicketReceiptHandler(tickets))
	protected.Patch("/tickets/:id/imprime", sales.MarkTicketPrintedHandler(tickets))
	protected.Get("/tickets/:id", sales.GetTicketHandler(tickets))

	// Dashboard
	board := protected.Group("/dashboard", adminOnly)
	board.Get("/stats/general", dashboard.GeneralStatsHandler(dash))
	board.Get("/metriques", dashboard.KeyMetricsHandler(dash))
	board.Get("/ventes/par-mois", dashboard.SalesByMonthHandler(dash))
	board.Get("/ventes/par-periode", dashboard.SalesByPeriodHandler(dash))
	board.Get("/ventes/par-societe", dashboard.SalesBySocieteHandler(dash))
	board.Get("/articles/top-vendus", dashboard.TopArticlesHandler(dash))
	board.Get("/articles/prix-moyens", dashboard.AveragePricesHandler(dash))
	board.Get("/stocks/par-article", dashboard.StockByArticleHandler(dash))
	board.Get("/lots/expiration-proches", dashboard.ExpiringLotsHandler(dash))
	board.Get("/chiffre-affaire/evolution", dashboard.RevenueTrendHandler(dash))
	board.Get("/alertes/stock", dashboard.StockAlertsHandler(dash))
	board.Get("/vendeurs/performances", dashboard.SellerPerformanceHandler(dash))
	board.Get("/resume-complet", dashboard.SummaryHandler(dash))

	// Audit
	protected.Get("/audit-logs", adminOnly, audit.ListAuditLogsHandler(auditSvc))

	return app
}
