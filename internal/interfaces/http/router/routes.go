package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/shopline/backend/internal/infrastructure/auth"
	"github.com/shopline/backend/internal/infrastructure/config"
	"github.com/shopline/backend/internal/infrastructure/logger"
	"github.com/shopline/backend/internal/interfaces/http/handler"
	"github.com/shopline/backend/internal/interfaces/http/middleware"
)

// Handlers are the HTTP handlers served by the API
type Handlers struct {
	Auth     *handler.AuthHandler
	User     *handler.UserHandler
	Product  *handler.ProductHandler
	Cart     *handler.CartHandler
	Wishlist *handler.WishlistHandler
	Order    *handler.OrderHandler
	Payment  *handler.PaymentHandler
	Health   *handler.HealthHandler
}

// Options carries what the engine needs besides the handlers
type Options struct {
	Config     *config.Config
	Logger     *zap.Logger
	JWTService *auth.JWTService
	Blacklist  auth.TokenBlacklist

	// LoginLimiter throttles /auth/login per client IP; nil disables it
	LoginLimiter *middleware.RateLimiter
	// HTTPMetrics is the request metrics middleware; nil disables it
	HTTPMetrics gin.HandlerFunc
	// MetricsHandler serves /metrics; nil leaves the route unregistered
	MetricsHandler http.Handler
}

// NewEngine builds the gin engine with the full middleware stack and every route
func NewEngine(opts Options, h Handlers) *gin.Engine {
	cfg := opts.Config
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Warn("Failed to set trusted proxies", zap.Error(err))
	}

	engine.Use(
		middleware.RequestID(),
		logger.Recovery(log),
		middleware.Tracing(cfg.Telemetry.ServiceName, cfg.Telemetry.Enabled),
		middleware.SpanEnricher(),
		logger.GinMiddleware(log),
	)
	if opts.HTTPMetrics != nil {
		engine.Use(opts.HTTPMetrics)
	}
	engine.Use(
		middleware.Profiling(cfg.Telemetry.ProfilingEnabled),
		middleware.Secure(cfg.App.Env == "production"),
		middleware.CORS(middleware.CORSConfigFrom(cfg.HTTP)),
		middleware.BodyLimit(cfg.HTTP.MaxBodySize),
	)

	engine.GET("/health", h.Health.Health)
	if opts.MetricsHandler != nil {
		engine.GET("/metrics", gin.WrapH(opts.MetricsHandler))
	}
	engine.GET("/swagger/*any", middleware.SwaggerProtection(cfg.Swagger), ginSwagger.WrapHandler(swaggerFiles.Handler))

	requireAuth := middleware.JWTAuth(middleware.JWTConfig{
		JWTService: opts.JWTService,
		Blacklist:  opts.Blacklist,
		Logger:     log,
	})

	r := NewRouter(engine, WithAPIVersion("v1"))
	r.Register(
		authRoutes(h, requireAuth, opts.LoginLimiter),
		catalogRoutes(h),
		shopperRoutes(h, requireAuth),
		adminRoutes(h, requireAuth),
	)
	r.Setup()

	engine.NoRoute(func(c *gin.Context) {
		h.Health.Error(c, http.StatusNotFound, "NOT_FOUND", "route not found")
	})
	return engine
}

func authRoutes(h Handlers, requireAuth gin.HandlerFunc, limiter *middleware.RateLimiter) *DomainGroup {
	g := NewDomainGroup("auth", "/auth")
	if limiter != nil {
		g.POST("/login", middleware.RateLimit(limiter), h.Auth.Login)
	} else {
		g.POST("/login", h.Auth.Login)
	}
	g.POST("/refresh", h.Auth.Refresh)
	g.POST("/logout", requireAuth, h.Auth.Logout)
	g.GET("/me", requireAuth, h.Auth.Me)
	return g
}

func catalogRoutes(h Handlers) *DomainGroup {
	return NewDomainGroup("catalog", "/products").
		GET("", h.Product.List).
		GET("/:id", h.Product.Get)
}

// shopperRoutes are the authenticated routes acting on the caller's own data
func shopperRoutes(h Handlers, requireAuth gin.HandlerFunc) *DomainGroup {
	g := NewDomainGroup("shopper", "").Use(requireAuth)

	g.Group("cart", "/cart").
		GET("", h.Cart.List).
		POST("", h.Cart.Add).
		PUT("/:id", h.Cart.Update).
		DELETE("/:id", h.Cart.Remove)

	g.Group("wishlist", "/wishlist").
		GET("", h.Wishlist.List).
		POST("", h.Wishlist.Add).
		DELETE("/:id", h.Wishlist.Remove)

	g.Group("orders", "/orders").
		GET("", h.Order.List).
		POST("", h.Order.Checkout).
		GET("/:id", h.Order.Get).
		POST("/:id/cancel", h.Order.Cancel).
		GET("/:id/invoice", h.Order.Invoice).
		POST("/:id/retry-payment", h.Payment.Retry)

	g.Group("payments", "/payments").
		POST("/create", h.Payment.Create).
		POST("/verify", h.Payment.Verify)

	return g
}

func adminRoutes(h Handlers, requireAuth gin.HandlerFunc) *DomainGroup {
	g := NewDomainGroup("admin", "/admin").Use(requireAuth, middleware.RequireAdmin())

	g.Group("products", "/products").
		GET("", h.Product.AdminList).
		POST("", h.Product.Create).
		GET("/:id", h.Product.AdminGet).
		PATCH("/:id", h.Product.Update).
		DELETE("/:id", h.Product.Delete).
		POST("/:id/stock", h.Product.AdjustStock).
		POST("/:id/images", h.Product.InitiateImageUpload).
		POST("/:id/images/confirm", h.Product.ConfirmImageUpload).
		DELETE("/:id/images", h.Product.RemoveImage)

	g.Group("orders", "/orders").
		GET("", h.Order.AdminList).
		GET("/:id", h.Order.AdminGet).
		PUT("/:id/status", h.Order.UpdateStatus).
		POST("/:id/cancel", h.Order.AdminCancel)

	g.Group("cancellations", "/cancellations").
		GET("", h.Order.ListCancellations).
		POST("/:order_id/refund", h.Order.MarkRefunded)

	g.Group("users", "/users").
		GET("", h.User.List).
		PUT("/:id/block", h.User.SetBlocked)

	return g
}
