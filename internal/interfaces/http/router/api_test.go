package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	appcart "github.com/shopline/backend/internal/application/cart"
	appcatalog "github.com/shopline/backend/internal/application/catalog"
	appidentity "github.com/shopline/backend/internal/application/identity"
	apporder "github.com/shopline/backend/internal/application/order"
	apppayment "github.com/shopline/backend/internal/application/payment"
	"github.com/shopline/backend/internal/domain/identity"
	"github.com/shopline/backend/internal/domain/payment"
	"github.com/shopline/backend/internal/domain/shared"
	"github.com/shopline/backend/internal/infrastructure/auth"
	"github.com/shopline/backend/internal/infrastructure/config"
	"github.com/shopline/backend/internal/infrastructure/persistence"
	"github.com/shopline/backend/internal/infrastructure/persistence/models"
	"github.com/shopline/backend/internal/infrastructure/storage"
	"github.com/shopline/backend/internal/interfaces/http/dto"
	"github.com/shopline/backend/internal/interfaces/http/handler"
	"github.com/shopline/backend/internal/interfaces/http/middleware"
)

const (
	adminPassword   = "admin-pass-123"
	shopperPassword = "shopper-pass-123"
)

// stubGateway mints intents locally and accepts only the signature "good"
type stubGateway struct {
	intents map[string]*payment.Intent
}

func (g *stubGateway) Name() string { return "stub" }

func (g *stubGateway) CreateIntent(_ context.Context, req *payment.CreateIntentRequest) (*payment.Intent, error) {
	intent := &payment.Intent{
		ID:       "order_" + req.Receipt[:8],
		Amount:   payment.ToMinorUnits(req.Amount),
		Currency: req.Currency,
		Receipt:  req.Receipt,
	}
	g.intents[intent.ID] = intent
	return intent, nil
}

func (g *stubGateway) FetchIntent(_ context.Context, id string) (*payment.Intent, error) {
	intent, ok := g.intents[id]
	if !ok {
		return nil, payment.ErrGatewayRequestFailed
	}
	return intent, nil
}

func (g *stubGateway) VerifySignature(v payment.Verification) error {
	if v.Signature != "good" {
		return payment.ErrSignatureMismatch
	}
	return nil
}

type apiEnv struct {
	t      *testing.T
	engine http.Handler
	db     *gorm.DB
}

func (e *apiEnv) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	e.t.Helper()
	var raw []byte
	if body != nil {
		var err error
		raw, err = json.Marshal(body)
		require.NoError(e.t, err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(raw))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[dto.ErrorResponse](t, w).Code
}

func newAPIEnv(t *testing.T) *apiEnv {
	t.Helper()
	middleware.SetupValidator()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true, TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(models.AllModels()...))

	cfg := &config.Config{
		App: config.AppConfig{Name: "shopline", Env: "test"},
		JWT: config.JWTConfig{
			Secret:                 "router-test-secret-0123456789abcdef",
			Issuer:                 "shopline-test",
			AccessTokenExpiration:  15 * time.Minute,
			RefreshTokenExpiration: time.Hour,
		},
		HTTP:      config.HTTPConfig{MaxBodySize: 1 << 20},
		Telemetry: config.TelemetryConfig{ServiceName: "shopline-test"},
	}
	log := zap.NewNop()

	users := persistence.NewGormUserRepository(db)
	products := persistence.NewGormProductRepository(db)
	orders := persistence.NewGormOrderRepository(db)
	txScope := persistence.NewGormTransactionScope(db)
	jwtService := auth.NewJWTService(cfg.JWT)
	blacklist := auth.NewInMemoryTokenBlacklist()
	images := storage.NewMemoryImageStore("")

	productService := appcatalog.NewProductService(products, persistence.NewGormStockLedger(db), log)
	productService.SetObjectStorage(images, time.Minute)
	userService := appidentity.NewUserService(users, blacklist, cfg.JWT.RefreshTokenExpiration, log)
	require.NoError(t, userService.EnsureAdmin(context.Background(), config.AdminConfig{
		Username: "admin", Email: "admin@example.com", Password: adminPassword,
	}))

	h := Handlers{
		Auth:    handler.NewAuthHandler(appidentity.NewAuthService(users, jwtService, blacklist, log), userService, log),
		User:    handler.NewUserHandler(userService, log),
		Product: handler.NewProductHandler(productService, appcatalog.NewImageService(products, images, log), log),
		Cart:    handler.NewCartHandler(appcart.NewService(persistence.NewGormCartRepository(db), products, log), log),
		Wishlist: handler.NewWishlistHandler(
			appcatalog.NewWishlistService(persistence.NewGormWishlistRepository(db), products), log),
		Order: handler.NewOrderHandler(
			apporder.NewCheckoutService(txScope, log),
			apporder.NewOrderService(orders, persistence.NewGormCancellationRepository(db), txScope, log),
			apporder.NewInvoiceService(orders, nil),
			log,
		),
		Payment: handler.NewPaymentHandler(
			apppayment.NewService(&stubGateway{intents: map[string]*payment.Intent{}}, orders, txScope, "INR", log), log),
		Health: handler.NewHealthHandler("test", map[string]handler.HealthCheck{
			"database": func(ctx context.Context) error { return sqlDB.PingContext(ctx) },
		}, log),
	}

	engine := NewEngine(Options{Config: cfg, Logger: log, JWTService: jwtService, Blacklist: blacklist}, h)
	return &apiEnv{t: t, engine: engine, db: db}
}

func (e *apiEnv) addShopper(t *testing.T, username string) string {
	t.Helper()
	u, err := identity.NewUser(username, username+"@example.com", shopperPassword, identity.RoleUser)
	require.NoError(t, err)
	require.NoError(t, persistence.NewGormUserRepository(e.db).Save(context.Background(), u))
	return e.login(t, username, shopperPassword)
}

func (e *apiEnv) login(t *testing.T, username, password string) string {
	t.Helper()
	w := e.do(http.MethodPost, "/api/v1/auth/login", "",
		appidentity.LoginRequest{Username: username, Password: password})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return decode[appidentity.TokenResponse](t, w).AccessToken
}

func (e *apiEnv) createProduct(t *testing.T, admin, name, price string, count int) uuid.UUID {
	t.Helper()
	w := e.do(http.MethodPost, "/api/v1/admin/products", admin, map[string]interface{}{
		"name": name, "category": "kitchen", "price": price, "count": count,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[appcatalog.ProductResponse](t, w).ID
}

func (e *apiEnv) stock(t *testing.T, id uuid.UUID) int {
	t.Helper()
	w := e.do(http.MethodGet, "/api/v1/products/"+id.String(), "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return decode[appcatalog.ProductResponse](t, w).Count
}

func (e *apiEnv) checkout(t *testing.T, token string, productID uuid.UUID, qty int, total, method string) *httptest.ResponseRecorder {
	t.Helper()
	w := e.do(http.MethodPost, "/api/v1/cart", token, map[string]interface{}{
		"product_id": productID, "quantity": qty,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	return e.do(http.MethodPost, "/api/v1/orders", token, map[string]interface{}{
		"shipping_details": map[string]string{"name": "Asha", "city": "Pune", "pincode": "411001"},
		"total_amount":     total,
		"payment_method":   method,
	})
}

func (e *apiEnv) orderStatus(t *testing.T, token string, id uuid.UUID) string {
	t.Helper()
	w := e.do(http.MethodGet, "/api/v1/orders/"+id.String(), token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return decode[apporder.OrderResponse](t, w).Status
}

func TestAPI_AccessControl(t *testing.T) {
	env := newAPIEnv(t)
	shopper := env.addShopper(t, "asha")

	w := env.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(http.MethodGet, "/api/v1/cart", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "TOKEN_INVALID", errorCode(t, w))

	w = env.do(http.MethodGet, "/api/v1/products", "", nil)
	assert.Equal(t, http.StatusOK, w.Code, "catalog is public")

	w = env.do(http.MethodGet, "/api/v1/admin/orders", shopper, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, dto.ErrCodeForbidden, errorCode(t, w))

	w = env.do(http.MethodGet, "/api/v1/nowhere", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, dto.ErrCodeNotFound, errorCode(t, w))

	w = env.do(http.MethodPost, "/api/v1/auth/login", "",
		appidentity.LoginRequest{Username: "asha", Password: "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAPI_LogoutRevokesAccessToken(t *testing.T) {
	env := newAPIEnv(t)
	shopper := env.addShopper(t, "asha")

	w := env.do(http.MethodGet, "/api/v1/auth/me", shopper, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "asha", decode[appidentity.UserResponse](t, w).Username)

	w = env.do(http.MethodPost, "/api/v1/auth/logout", shopper, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.do(http.MethodGet, "/api/v1/auth/me", shopper, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "TOKEN_REVOKED", errorCode(t, w))
}

func TestAPI_CashOnDeliveryLifecycle(t *testing.T) {
	env := newAPIEnv(t)
	admin := env.login(t, "admin", adminPassword)
	shopper := env.addShopper(t, "asha")
	other := env.addShopper(t, "ravi")
	kettle := env.createProduct(t, admin, "Kettle", "10.00", 5)

	w := env.checkout(t, shopper, kettle, 2, "20.00", "cod")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	placed := decode[apporder.CheckoutResult](t, w)
	assert.Equal(t, "processing", placed.Status)
	assert.Equal(t, 3, env.stock(t, kettle))

	w = env.do(http.MethodGet, "/api/v1/cart", shopper, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[appcart.CartResponse](t, w).Items)

	w = env.do(http.MethodPost, "/api/v1/orders", shopper, map[string]interface{}{
		"shipping_details": map[string]string{"city": "Pune"},
		"payment_method":   "cod",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "CART_EMPTY", errorCode(t, w))

	orderPath := "/api/v1/orders/" + placed.OrderID.String()
	w = env.do(http.MethodGet, orderPath, other, nil)
	assert.Equal(t, http.StatusNotFound, w.Code, "orders of other users are invisible")

	w = env.do(http.MethodGet, orderPath+"/invoice", shopper, nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = env.do(http.MethodPost, orderPath+"/cancel", shopper, apporder.CancelOrderRequest{Reason: "changed my mind"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Order cancelled successfully", decode[apporder.CancelResult](t, w).Message)
	assert.Equal(t, 5, env.stock(t, kettle))
	assert.Equal(t, "cancelled", env.orderStatus(t, shopper, placed.OrderID))

	w = env.do(http.MethodPost, orderPath+"/cancel", shopper, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "CANNOT_CANCEL", errorCode(t, w))

	w = env.do(http.MethodGet, "/api/v1/admin/cancellations", admin, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	records := decode[shared.Paginated[apporder.CancelledOrderResponse]](t, w)
	require.Len(t, records.Items, 1)
	assert.Equal(t, placed.OrderID, records.Items[0].OrderID)
	assert.Equal(t, "user", records.Items[0].ActorRole)
}

func TestAPI_RazorpayPaymentFlow(t *testing.T) {
	env := newAPIEnv(t)
	admin := env.login(t, "admin", adminPassword)
	shopper := env.addShopper(t, "asha")
	kettle := env.createProduct(t, admin, "Kettle", "10.00", 5)

	w := env.checkout(t, shopper, kettle, 2, "20.00", "razorpay")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	placed := decode[apporder.CheckoutResult](t, w)
	require.Equal(t, "pending_payment", placed.Status)

	orderPath := "/api/v1/orders/" + placed.OrderID.String()
	w = env.do(http.MethodPost, orderPath+"/retry-payment", shopper, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	intent := decode[apppayment.IntentResponse](t, w)
	assert.Equal(t, int64(2000), intent.Amount)
	assert.Equal(t, "pending_payment", env.orderStatus(t, shopper, placed.OrderID))

	verify := apppayment.VerifyPaymentRequest{
		RazorpayOrderID:   intent.GatewayOrderID,
		RazorpayPaymentID: "pay_123",
		RazorpaySignature: "tampered",
		OrderID:           &placed.OrderID,
	}
	w = env.do(http.MethodPost, "/api/v1/payments/verify", shopper, verify)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	mismatch := decode[dto.ErrorResponse](t, w)
	assert.Equal(t, dto.ErrCodeSignatureMismatch, mismatch.Code)
	assert.Equal(t, "signature verification failed", mismatch.Error)
	assert.Equal(t, "pending_payment", env.orderStatus(t, shopper, placed.OrderID))

	verify.RazorpaySignature = "good"
	w = env.do(http.MethodPost, "/api/v1/payments/verify", shopper, verify)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "processing", decode[apppayment.VerifyResult](t, w).Status)
	assert.Equal(t, "processing", env.orderStatus(t, shopper, placed.OrderID))

	w = env.do(http.MethodPost, "/api/v1/payments/verify", shopper, verify)
	assert.Equal(t, http.StatusOK, w.Code, "a replayed verification is accepted")

	w = env.do(http.MethodPost, "/api/v1/payments/verify", shopper, map[string]string{"razorpay_order_id": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeValidation, errorCode(t, w))
}
