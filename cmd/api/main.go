package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	_ "github.com/jhoicas/invorya-stock/docs"
	"github.com/jhoicas/invorya-stock/internal/application/billing"
	"github.com/jhoicas/invorya-stock/internal/application/inventory"
	"github.com/jhoicas/invorya-stock/internal/application/ports"
	domaininv "github.com/jhoicas/invorya-stock/internal/domain/inventory"
	"github.com/jhoicas/invorya-stock/internal/infrastructure/audit"
	"github.com/jhoicas/invorya-stock/internal/infrastructure/cache"
	infrapdf "github.com/jhoicas/invorya-stock/internal/infrastructure/pdf"
	"github.com/jhoicas/invorya-stock/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/invorya-stock/internal/interfaces/http"
	"github.com/jhoicas/invorya-stock/pkg/config"
	"github.com/jhoicas/invorya-stock/pkg/logger"
)

// @title        Invorya Stock API
// @version      1.0
// @description  Inventario con descuento atómico de stock por factura.
// @BasePath     /
// @securityDefinitions.apikey Bearer
// @in           header
// @name         Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	policy, err := domaininv.ParseFractionalPolicy(cfg.Inventory.FractionalPolicy)
	if err != nil {
		log.Fatal().Err(err).Msg("configuración de inventario")
	}

	if cfg.DB.AutoMigrate {
		if err := migrate(cfg.DB.ConnectionString(), log); err != nil {
			log.Fatal().Err(err).Msg("migraciones")
		}
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	itemRepo := postgres.NewInventoryItemRepository(pool)
	movementRepo := postgres.NewStockMovementRepository(pool)
	invoiceRepo := postgres.NewInvoiceRepository(pool)
	txRunner := postgres.NewTxRunner(pool, cfg.DB.LockTimeout)

	// Efectos post-commit: auditoría siempre; invalidación de caché solo con Redis activo.
	sinks := ports.Fanout{audit.NewLogSink(log)}
	var itemCache inventory.ItemCache
	if cfg.Redis.Enabled {
		rdb, err := cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a Redis")
		}
		defer rdb.Close()
		redisCache := cache.NewRedisItemCache(rdb, cfg.Redis.ItemTTL)
		itemCache = redisCache
		sinks = append(sinks, cache.NewInvalidator(redisCache))
	}

	engine := inventory.NewStockEngine()
	checker := inventory.NewAvailabilityChecker(itemRepo)
	pdfGenerator := infrapdf.NewMarotoPDFGenerator(cfg.App.Name)

	itemUC := inventory.NewItemUseCase(txRunner, itemRepo, movementRepo, itemCache, pdfGenerator, sinks, log)
	adjustUC := inventory.NewAdjustmentUseCase(txRunner, sinks, log)
	createInvoiceUC := billing.NewCreateInvoiceUseCase(txRunner, engine, checker, sinks, log, policy)
	cancelInvoiceUC := billing.NewCancelInvoiceUseCase(txRunner, engine, sinks, log)
	queryUC := billing.NewQueryUseCase(invoiceRepo, movementRepo)
	invoicePDFUC := billing.NewPDFUseCase(invoiceRepo, pdfGenerator)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  time.Second * 60,
		BodyLimit:    cfg.HTTP.BodyLimit,
	})
	app.Use(recover.New())
	app.Use(httpRouter.RequestLogger(log))

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Invorya Stock API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		hctx, cancel := context.WithTimeout(c.Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(hctx); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "degraded", "service": cfg.App.Name})
		}
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		Items:         itemUC,
		Adjustments:   adjustUC,
		Availability:  checker,
		CreateInvoice: createInvoiceUC,
		CancelInvoice: cancelInvoiceUC,
		InvoiceQuery:  queryUC,
		InvoicePDF:    invoicePDFUC,
		Logger:        log,
		JWTSecret:     cfg.JWT.Secret,
		JWTIssuer:     cfg.JWT.Issuer,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}

func migrate(databaseURL string, log *logger.Logger) error {
	m, err := postgres.NewMigrator(databaseURL, log.Component("migrate").Zerolog())
	if err != nil {
		return err
	}
	defer m.Close()
	return m.Up()
}
