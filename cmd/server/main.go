package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/shopline/backend/docs"
	cartapp "github.com/shopline/backend/internal/application/cart"
	catalogapp "github.com/shopline/backend/internal/application/catalog"
	identityapp "github.com/shopline/backend/internal/application/identity"
	orderapp "github.com/shopline/backend/internal/application/order"
	paymentapp "github.com/shopline/backend/internal/application/payment"
	"github.com/shopline/backend/internal/domain/payment"
	"github.com/shopline/backend/internal/domain/shared"
	"github.com/shopline/backend/internal/infrastructure/auth"
	"github.com/shopline/backend/internal/infrastructure/cache"
	"github.com/shopline/backend/internal/infrastructure/config"
	"github.com/shopline/backend/internal/infrastructure/event"
	"github.com/shopline/backend/internal/infrastructure/invoice"
	"github.com/shopline/backend/internal/infrastructure/logger"
	razorpay "github.com/shopline/backend/internal/infrastructure/payment"
	"github.com/shopline/backend/internal/infrastructure/persistence"
	"github.com/shopline/backend/internal/infrastructure/storage"
	"github.com/shopline/backend/internal/infrastructure/telemetry"
	"github.com/shopline/backend/internal/interfaces/http/handler"
	"github.com/shopline/backend/internal/interfaces/http/middleware"
	"github.com/shopline/backend/internal/interfaces/http/router"
)

// version is overridden at build time with -ldflags "-X main.version=..."
var version = "dev"

//	@title			Shopline API
//	@version		1.0
//	@description	Storefront backend: catalog, cart, wishlist, checkout, payments and cancellations.

//	@contact.name	Shopline Engineering
//	@contact.url	https://github.com/shopline/backend

//	@license.name	Apache 2.0
//	@license.url	http://www.apache.org/licenses/LICENSE-2.0.html

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Access token from /auth/login. Format: "Bearer {token}"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	baseLog, err := logger.New(logger.FromConfig(cfg.Log))
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	ctx := context.Background()

	// Telemetry comes first so the database and HTTP layers pick up the global providers
	tracerProvider, err := telemetry.NewTracerProvider(ctx, cfg.Telemetry, baseLog)
	if err != nil {
		baseLog.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	meterProvider, err := telemetry.NewMeterProvider(ctx, cfg.Telemetry, baseLog)
	if err != nil {
		baseLog.Fatal("Failed to initialize metrics", zap.Error(err))
	}
	logProvider, err := telemetry.NewLoggerProvider(ctx, cfg.Telemetry, baseLog)
	if err != nil {
		baseLog.Fatal("Failed to initialize log export", zap.Error(err))
	}
	log := logProvider.Bridge(baseLog, cfg.Telemetry.ServiceName)
	defer func() { _ = log.Sync() }()

	profiler, err := telemetry.NewProfiler(cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}

	log.Info("Starting Shopline backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	gormLog := logger.NewGormLogger(log, logger.GormLevel(cfg.Log.Level), 200*time.Millisecond)
	db, err := persistence.NewDatabase(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	if cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled {
		if err := telemetry.NewDBTracing(cfg.Telemetry.DBLogFullSQL, 0, log).Register(db.DB); err != nil {
			log.Fatal("Failed to register database tracing", zap.Error(err))
		}
	}
	log.Info("Database connected")

	redisClient, err := cache.Connect(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}

	var (
		blacklist        auth.TokenBlacklist
		idempotencyStore shared.IdempotencyStore
	)
	if redisClient != nil {
		blacklist = auth.NewRedisTokenBlacklist(redisClient)
		idempotencyStore = cache.NewRedisIdempotencyStore(redisClient, "shopline:checkout:")
	} else {
		blacklist = auth.NewInMemoryTokenBlacklist()
		idempotencyStore = cache.NewInMemoryIdempotencyStore(time.Minute)
	}

	// Repositories
	userRepo := persistence.NewGormUserRepository(db.DB)
	productRepo := persistence.NewGormProductRepository(db.DB)
	stockLedger := persistence.NewGormStockLedger(db.DB)
	cartRepo := persistence.NewGormCartRepository(db.DB)
	wishlistRepo := persistence.NewGormWishlistRepository(db.DB)
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	cancellationRepo := persistence.NewGormCancellationRepository(db.DB)
	txScope := persistence.NewGormTransactionScope(db.DB)

	// Metrics feed both the OTLP pipeline and the /metrics scrape endpoint
	meter := meterProvider.Meter(cfg.Telemetry.ServiceName)
	promRegistry := telemetry.NewPrometheusRegistry()
	shopMetrics, err := telemetry.NewShopMetrics(meter, promRegistry)
	if err != nil {
		log.Fatal("Failed to register business metrics", zap.Error(err))
	}
	httpMetrics, err := middleware.HTTPMetrics(meter, promRegistry)
	if err != nil {
		log.Fatal("Failed to register HTTP metrics", zap.Error(err))
	}

	publisher := newEventPublisher(cfg.Kafka, log)
	gateway := newPaymentGateway(cfg.Razorpay, log)
	imageStore := newImageStore(cfg.Storage, log)

	var (
		renderer orderapp.InvoiceRenderer
		printer  *invoice.ChromedpPrinter
	)
	if cfg.Invoice.Enabled {
		tmpl, err := invoice.NewTemplate(cfg.Invoice.StoreName, cfg.Razorpay.Currency, cfg.Invoice.Locale)
		if err != nil {
			log.Fatal("Failed to load invoice template", zap.Error(err))
		}
		printer = invoice.NewChromedpPrinter(cfg.Invoice.ChromeURL, cfg.Invoice.RenderTimeout, log)
		renderer = invoice.NewRenderer(tmpl, printer, log)
		log.Info("Invoice rendering enabled", zap.Bool("remote_browser", cfg.Invoice.ChromeURL != ""))
	}

	// Application services
	jwtService := auth.NewJWTService(cfg.JWT)
	authService := identityapp.NewAuthService(userRepo, jwtService, blacklist, log)
	userService := identityapp.NewUserService(userRepo, blacklist, cfg.JWT.RefreshTokenExpiration, log)
	if err := userService.EnsureAdmin(ctx, cfg.Admin); err != nil {
		log.Fatal("Failed to provision administrator", zap.Error(err))
	}

	productService := catalogapp.NewProductService(productRepo, stockLedger, log)
	imageService := catalogapp.NewImageService(productRepo, imageStore, log)
	if imageStore != nil {
		productService.SetObjectStorage(imageStore, cfg.Storage.PresignExpiry)
	}
	wishlistService := catalogapp.NewWishlistService(wishlistRepo, productRepo)
	cartService := cartapp.NewService(cartRepo, productRepo, log)

	checkoutService := orderapp.NewCheckoutService(txScope, log)
	checkoutService.SetIdempotencyStore(idempotencyStore, cfg.Idempotency.TTL)
	checkoutService.SetEventPublisher(publisher)
	checkoutService.SetMetrics(shopMetrics)

	orderService := orderapp.NewOrderService(orderRepo, cancellationRepo, txScope, log)
	orderService.SetEventPublisher(publisher)
	orderService.SetMetrics(shopMetrics)

	invoiceService := orderapp.NewInvoiceService(orderRepo, renderer)

	paymentService := paymentapp.NewService(gateway, orderRepo, txScope, cfg.Razorpay.Currency, log)
	paymentService.SetEventPublisher(publisher)
	paymentService.SetMetrics(shopMetrics)

	// HTTP
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	healthChecks := map[string]handler.HealthCheck{
		"database": func(context.Context) error { return db.Ping() },
	}
	if redisClient != nil {
		healthChecks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}

	loginLimiter := middleware.NewRateLimiter(cfg.HTTP.LoginRateLimit, cfg.HTTP.LoginRateWindow)

	opts := router.Options{
		Config:       cfg,
		Logger:       log,
		JWTService:   jwtService,
		Blacklist:    blacklist,
		LoginLimiter: loginLimiter,
		HTTPMetrics:  httpMetrics,
	}
	if cfg.Telemetry.PrometheusEnabled {
		opts.MetricsHandler = telemetry.PrometheusHandler(promRegistry)
	}

	engine := router.NewEngine(opts, router.Handlers{
		Auth:     handler.NewAuthHandler(authService, userService, log),
		User:     handler.NewUserHandler(userService, log),
		Product:  handler.NewProductHandler(productService, imageService, log),
		Cart:     handler.NewCartHandler(cartService, log),
		Wishlist: handler.NewWishlistHandler(wishlistService, log),
		Order:    handler.NewOrderHandler(checkoutService, orderService, invoiceService, log),
		Payment:  handler.NewPaymentHandler(paymentService, log),
		Health:   handler.NewHealthHandler(version, healthChecks, log),
	})

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shut down", zap.Error(err))
	}

	// Release in reverse order of construction
	loginLimiter.Stop()
	if printer != nil {
		printer.Close()
	}
	if closer, ok := publisher.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			log.Error("Error closing event publisher", zap.Error(err))
		}
	}
	if err := idempotencyStore.Close(); err != nil {
		log.Error("Error closing idempotency store", zap.Error(err))
	}
	closeRedis(redisClient, log)
	if err := db.Close(); err != nil {
		log.Error("Error closing database", zap.Error(err))
	}
	if err := profiler.Stop(); err != nil {
		log.Error("Error stopping profiler", zap.Error(err))
	}
	if err := meterProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down meter provider", zap.Error(err))
	}
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down tracer provider", zap.Error(err))
	}
	log.Info("Server exited")
	if err := logProvider.Shutdown(shutdownCtx); err != nil {
		baseLog.Error("Error shutting down log export", zap.Error(err))
	}
}

// newEventPublisher publishes to Kafka when configured and to the log otherwise
func newEventPublisher(cfg config.KafkaConfig, log *zap.Logger) shared.EventPublisher {
	if !cfg.Enabled {
		log.Info("Kafka disabled, domain events go to the log")
		return event.NewLogPublisher(log)
	}
	publisher, err := event.NewKafkaPublisher(cfg, log)
	if err != nil {
		log.Fatal("Failed to create Kafka publisher", zap.Error(err))
	}
	log.Info("Publishing domain events to Kafka",
		zap.Strings("brokers", cfg.Brokers),
		zap.String("topic", cfg.Topic),
	)
	return publisher
}

// newPaymentGateway falls back to a gateway that rejects every call, so cash
// on delivery keeps working without credentials.
func newPaymentGateway(cfg config.RazorpayConfig, log *zap.Logger) payment.Gateway {
	gw, err := razorpay.NewRazorpayAdapter(razorpay.NewRazorpayConfig(cfg), log)
	if err != nil {
		log.Warn("Razorpay is not configured, online payments are disabled", zap.Error(err))
		return razorpay.UnconfiguredGateway{}
	}
	return gw
}

func newImageStore(cfg config.StorageConfig, log *zap.Logger) catalogapp.ObjectStorageService {
	if !cfg.Enabled {
		log.Info("Object storage disabled, product image uploads are unavailable")
		return nil
	}
	store, err := storage.NewS3ImageStore(cfg, storage.WithLogger(log))
	if err != nil {
		log.Fatal("Failed to create object storage client", zap.Error(err))
	}
	log.Info("Object storage ready", zap.String("bucket", cfg.Bucket))
	return store
}

func closeRedis(client *redis.Client, log *zap.Logger) {
	if client == nil {
		return
	}
	if err := client.Close(); err != nil {
		log.Error("Error closing Redis client", zap.Error(err))
	}
}
