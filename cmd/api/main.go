package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"supplierportal/docs"
	"supplierportal/internal/auth"
	"supplierportal/internal/config"
	"supplierportal/internal/database"
	"supplierportal/internal/database/migration"
	handlers "supplierportal/internal/http/handler"
	"supplierportal/internal/http/middleware"
	"supplierportal/internal/logging"
	"supplierportal/internal/metrics"
	"supplierportal/internal/otel"
	"supplierportal/internal/repository/postgres"
	"supplierportal/internal/service"
	"supplierportal/internal/storage"
	"supplierportal/internal/workflow/form"
	"supplierportal/internal/workflow/status"
)

// @title						Supplier Portal API
// @version					1.0
// @BasePath					/
// @securityDefinitions.apikey	BearerAuth
// @in							header
// @name						Authorization
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()
	log := logging.Init(cfg.Location(), cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(ctx, log)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize tracing")
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			log.WithError(err).Warn("tracing_shutdown_failed")
		}
	}()

	// Initialize PostgreSQL connection (with pooling via database/sql)
	db, err := database.NewPostgres(ctx, cfg.Database, log)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, log, cfg.Database.Host); err != nil {
		log.WithError(err).Fatal("failed to migrate database")
	}

	// Initialize reusable S3-compatible object storage client (MinIO-supported)
	objStore, err := storage.NewMinIO(ctx, cfg.MinIO)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize object storage")
	}

	issuer, err := auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL())
	if err != nil {
		log.WithError(err).Fatal("failed to initialize token verification")
	}

	wf, err := metrics.NewWorkflow(prometheus.DefaultRegisterer)
	if err != nil {
		log.WithError(err).Fatal("failed to register workflow metrics")
	}
	httpMetrics, err := middleware.NewPrometheusMiddleware(prometheus.DefaultRegisterer)
	if err != nil {
		log.WithError(err).Fatal("failed to register http metrics")
	}

	// Initialize repositories and services
	appRepo := postgres.NewApplicationPostgres(db)
	docRepo := postgres.NewDocumentPostgres(db)
	contractRepo := postgres.NewContractPostgres(db)

	machine := status.NewMachine(status.PolicyFromConfig(cfg.Workflow.LegalReviewMode, cfg.Workflow.LegalReviewEntityTypes))
	validator := form.NewValidator()

	appSvc := service.NewApplicationService(service.ApplicationDeps{
		Applications: appRepo,
		Documents:    docRepo,
		Machine:      machine,
		Validator:    validator,
		Metrics:      wf,
		Log:          log,
		MaxListItems: cfg.Workflow.MaxListItems,
	})
	docSvc := service.NewDocumentService(service.DocumentDeps{
		Storage:      objStore,
		Documents:    docRepo,
		Applications: appRepo,
		PresignTTL:   time.Duration(cfg.MinIO.PresignTTLSec) * time.Second,
		MaxBytes:     int64(cfg.Workflow.MaxUploadBytes),
		Log:          log,
	})
	contractSvc := service.NewContractService(service.ContractDeps{
		Contracts:    contractRepo,
		Applications: appRepo,
		Machine:      machine,
		Validator:    validator,
		Metrics:      wf,
		Log:          log,
	})

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
		// Leave room for the multipart envelope around the largest upload.
		BodyLimit: cfg.Workflow.MaxUploadBytes + 1<<20,
	})

	// Register global middleware
	tracing := middleware.Noop()
	if os.Getenv("OTEL_SDK_DISABLED") != "true" {
		tracing = otelfiber.Middleware()
	}
	app.Use(tracing)
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	app.Use(middleware.LoggerWithLogger(log))
	app.Use(httpMetrics.Handler())

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Register HTTP routes with injected services
	handlers.RegisterRoutes(app, handlers.Deps{
		DB:           db,
		Applications: appSvc,
		Documents:    docSvc,
		Contracts:    contractSvc,
		Verifier:     issuer,
	})

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	go func() {
		<-ctx.Done()
		log.Info("shutting_down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.WithError(err).Warn("server_shutdown_failed")
		}
	}()

	addr := ":" + cfg.Port
	log.WithField("addr", addr).Info("server_starting")
	if err := app.Listen(addr); err != nil {
		log.WithError(err).Fatal("failed to start server")
	}
}
