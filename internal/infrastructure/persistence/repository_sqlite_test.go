package persistence

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	apporder "github.com/shopline/backend/internal/application/order"
	apppayment "github.com/shopline/backend/internal/application/payment"
	"github.com/shopline/backend/internal/domain/cart"
	"github.com/shopline/backend/internal/domain/catalog"
	"github.com/shopline/backend/internal/domain/identity"
	"github.com/shopline/backend/internal/domain/order"
	"github.com/shopline/backend/internal/domain/payment"
	"github.com/shopline/backend/internal/domain/shared"
	"github.com/shopline/backend/internal/infrastructure/persistence/models"
)

// newSQLiteDB opens a private in-memory database with the schema applied.
// A single connection keeps every statement, transaction included, on the
// same in-memory database.
func newSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.AllModels()...))
	return db
}

type shopFixture struct {
	db       *gorm.DB
	user     *identity.User
	products *GormProductRepository
	carts    *GormCartRepository
	orders   *GormOrderRepository
	cancels  *GormCancellationRepository
	txScope  *GormTransactionScope
}

func newShopFixture(t *testing.T) *shopFixture {
	t.Helper()
	db := newSQLiteDB(t)
	f := &shopFixture{
		db:       db,
		products: NewGormProductRepository(db),
		carts:    NewGormCartRepository(db),
		orders:   NewGormOrderRepository(db),
		cancels:  NewGormCancellationRepository(db),
		txScope:  NewGormTransactionScope(db),
	}
	f.user = f.addUser(t, "asha")
	return f
}

func (f *shopFixture) addUser(t *testing.T, username string) *identity.User {
	t.Helper()
	u, err := identity.NewUser(username, username+"@example.com", "s3cret-pass", identity.RoleUser)
	require.NoError(t, err)
	require.NoError(t, NewGormUserRepository(f.db).Save(context.Background(), u))
	return u
}

func (f *shopFixture) addProduct(t *testing.T, name, category, price string, count int) *catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct(name, name+" description", category, decimal.RequireFromString(price), count)
	require.NoError(t, err)
	require.NoError(t, f.products.Save(context.Background(), p))
	return p
}

func (f *shopFixture) addToCart(t *testing.T, userID uuid.UUID, p *catalog.Product, qty int) {
	t.Helper()
	item, err := cart.NewItem(userID, p.ID, qty)
	require.NoError(t, err)
	require.NoError(t, f.carts.Save(context.Background(), item))
}

func (f *shopFixture) stock(t *testing.T, id uuid.UUID) int {
	t.Helper()
	p, err := f.products.FindByID(context.Background(), id)
	require.NoError(t, err)
	return p.Count
}

func (f *shopFixture) checkout(t *testing.T, userID uuid.UUID, total, method string) *apporder.CheckoutResult {
	t.Helper()
	amount := decimal.RequireFromString(total)
	res, err := apporder.NewCheckoutService(f.txScope, zap.NewNop()).Checkout(context.Background(), userID, "",
		apporder.CheckoutRequest{
			ShippingDetails: map[string]interface{}{"name": "Asha", "city": "Pune", "pincode": "411001"},
			TotalAmount:     &amount,
			PaymentMethod:   method,
		})
	require.NoError(t, err)
	return res
}

func TestStockLedger_DecrementAndIncrement(t *testing.T) {
	f := newShopFixture(t)
	ctx := context.Background()
	p := f.addProduct(t, "Kettle", "kitchen", "1499.00", 3)
	ledger := NewGormStockLedger(f.db)

	ok, err := ledger.Decrement(ctx, p.ID, 2)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, f.stock(t, p.ID))

	ok, err = ledger.Decrement(ctx, p.ID, 2)
	require.NoError(t, err)
	assert.False(t, ok, "insufficient stock is reported without error")
	assert.Equal(t, 1, f.stock(t, p.ID))

	ok, err = ledger.Decrement(ctx, uuid.New(), 1)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = ledger.Decrement(ctx, p.ID, 0)
	assert.Error(t, err)

	require.NoError(t, ledger.Increment(ctx, p.ID, 4))
	assert.Equal(t, 5, f.stock(t, p.ID))
	assert.ErrorIs(t, ledger.Increment(ctx, uuid.New(), 1), shared.ErrNotFound)
}

func TestProductRepository_FindAllFilters(t *testing.T) {
	f := newShopFixture(t)
	ctx := context.Background()
	f.addProduct(t, "Steel Kettle", "Kitchen", "1499.00", 3)
	f.addProduct(t, "Chef Knife", "kitchen", "899.00", 10)
	hidden := f.addProduct(t, "Old Kettle", "kitchen", "299.00", 1)
	f.addProduct(t, "Yoga Mat", "fitness", "650.00", 4)

	hidden.Deactivate()
	require.NoError(t, f.products.Save(ctx, hidden))

	filter := catalog.ProductFilter{Filter: shared.DefaultFilter(), Category: "KITCHEN", ActiveOnly: true}
	items, total, err := f.products.FindAll(ctx, filter)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, items, 2)

	filter = catalog.ProductFilter{Filter: shared.DefaultFilter(), Category: "all"}
	filter.Search = "kettle"
	items, total, err = f.products.FindAll(ctx, filter)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total, "inactive products are included without ActiveOnly")

	filter = catalog.ProductFilter{Filter: shared.Filter{Page: 2, PageSize: 1, OrderBy: "price", OrderDir: "asc"}, ActiveOnly: true}
	items, total, err = f.products.FindAll(ctx, filter)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, items, 1)
	assert.Equal(t, "Chef Knife", items[0].Name, "second cheapest active product")
}

func TestProductRepository_SaveKeepsStockColumn(t *testing.T) {
	f := newShopFixture(t)
	ctx := context.Background()
	p := f.addProduct(t, "Lamp", "home", "999.00", 7)

	ok, err := NewGormStockLedger(f.db).Decrement(ctx, p.ID, 2)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, p.Update("Desk Lamp", "LED", "home", decimal.RequireFromString("1099.00")))
	require.NoError(t, p.AddImage("products/lamp.png"))
	require.NoError(t, f.products.Save(ctx, p))

	got, err := f.products.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Desk Lamp", got.Name)
	assert.True(t, got.Price.Equal(decimal.RequireFromString("1099.00")))
	assert.Equal(t, []string{"products/lamp.png"}, got.Images)
	assert.Equal(t, 5, got.Count, "a descriptive save never overwrites the ledger's count")

	found, err := f.products.FindByIDs(ctx, []uuid.UUID{p.ID, uuid.New()})
	require.NoError(t, err)
	assert.Len(t, found, 1)
}

func TestCheckout_SkipsLinesWithoutStock(t *testing.T) {
	f := newShopFixture(t)
	ctx := context.Background()
	kettle := f.addProduct(t, "Kettle", "kitchen", "10.00", 5)
	mug := f.addProduct(t, "Mug", "kitchen", "5.50", 1)
	f.addToCart(t, f.user.ID, kettle, 2)
	f.addToCart(t, f.user.ID, mug, 3)

	res := f.checkout(t, f.user.ID, "20.00", "")

	assert.Equal(t, order.StatusProcessing.String(), res.Status)
	assert.Equal(t, []uuid.UUID{mug.ID}, res.SkippedItems)
	assert.Equal(t, 3, f.stock(t, kettle.ID))
	assert.Equal(t, 1, f.stock(t, mug.ID))

	placed, err := f.orders.FindByIDForUser(ctx, f.user.ID, res.OrderID)
	require.NoError(t, err)
	require.Len(t, placed.Items, 1)
	assert.Equal(t, "Kettle", placed.Items[0].ProductName)
	assert.True(t, placed.Items[0].Price.Equal(decimal.RequireFromString("10.00")))
	assert.Equal(t, order.PaymentMethodCOD, placed.PaymentMethod)
	assert.Equal(t, "Pune", placed.ShippingDetails["city"])

	lines, err := f.carts.FindByUser(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Empty(t, lines, "the cart is cleared even when a line was skipped")
}

func TestCheckout_SequentialOrdersDrainStockWithoutGoingNegative(t *testing.T) {
	f := newShopFixture(t)
	const (
		initial  = 10
		quantity = 3
		orders   = 3
	)
	lamp := f.addProduct(t, "Lamp", "home", "12.00", initial)

	for n := 1; n <= orders; n++ {
		f.addToCart(t, f.user.ID, lamp, quantity)
		res := f.checkout(t, f.user.ID, "36.00", "cod")
		assert.Empty(t, res.SkippedItems, "order %d", n)
		assert.Equal(t, initial-n*quantity, f.stock(t, lamp.ID), "after order %d", n)
	}

	// Only one lamp is left, so the next line of three cannot be filled.
	f.addToCart(t, f.user.ID, lamp, quantity)
	res := f.checkout(t, f.user.ID, "36.00", "cod")
	assert.Equal(t, []uuid.UUID{lamp.ID}, res.SkippedItems)
	assert.Equal(t, initial-orders*quantity, f.stock(t, lamp.ID))
	assert.GreaterOrEqual(t, f.stock(t, lamp.ID), 0)

	placed, err := f.orders.FindByIDForUser(context.Background(), f.user.ID, res.OrderID)
	require.NoError(t, err)
	assert.Empty(t, placed.Items)
}

func TestCheckout_EmptyCartRollsBack(t *testing.T) {
	f := newShopFixture(t)
	amount := decimal.RequireFromString("10.00")

	_, err := apporder.NewCheckoutService(f.txScope, zap.NewNop()).Checkout(context.Background(), f.user.ID, "",
		apporder.CheckoutRequest{
			ShippingDetails: map[string]interface{}{"city": "Pune"},
			TotalAmount:     &amount,
		})
	assert.ErrorIs(t, err, apporder.ErrCartEmpty)

	var count int64
	require.NoError(t, f.db.Model(&models.OrderModel{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCancel_RestocksAndRecordsOnce(t *testing.T) {
	f := newShopFixture(t)
	ctx := context.Background()
	kettle := f.addProduct(t, "Kettle", "kitchen", "10.00", 5)
	f.addToCart(t, f.user.ID, kettle, 2)
	res := f.checkout(t, f.user.ID, "20.00", "cod")
	require.Equal(t, 3, f.stock(t, kettle.ID))

	svc := apporder.NewOrderService(f.orders, f.cancels, f.txScope, zap.NewNop())
	actor := apporder.Actor{UserID: f.user.ID}

	out, err := svc.Cancel(ctx, actor, res.OrderID, apporder.CancelOrderRequest{Reason: "changed my mind"})
	require.NoError(t, err)
	assert.Equal(t, string(order.RefundStatusNotRequired), out.RefundStatus)
	assert.Equal(t, 5, f.stock(t, kettle.ID))

	got, err := f.orders.FindByID(ctx, res.OrderID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusCancelled, got.Status)
	assert.Equal(t, 2, got.Version)

	record, err := f.cancels.FindByOrderID(ctx, res.OrderID)
	require.NoError(t, err)
	assert.Equal(t, "changed my mind", record.Reason)
	assert.Equal(t, order.CancelledByUser, record.ActorRole)

	_, err = svc.Cancel(ctx, actor, res.OrderID, apporder.CancelOrderRequest{})
	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "CANNOT_CANCEL", domainErr.Code)
	assert.Equal(t, 5, f.stock(t, kettle.ID), "a rejected cancel must not restock twice")
}

func TestCancel_ForeignOrderIsNotFound(t *testing.T) {
	f := newShopFixture(t)
	kettle := f.addProduct(t, "Kettle", "kitchen", "10.00", 5)
	f.addToCart(t, f.user.ID, kettle, 1)
	res := f.checkout(t, f.user.ID, "10.00", "cod")
	other := f.addUser(t, "ravi")

	svc := apporder.NewOrderService(f.orders, f.cancels, f.txScope, zap.NewNop())
	_, err := svc.Cancel(context.Background(), apporder.Actor{UserID: other.ID}, res.OrderID, apporder.CancelOrderRequest{})
	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.Equal(t, 4, f.stock(t, kettle.ID))
}

func TestCancellationRepository_DuplicateAndRefund(t *testing.T) {
	f := newShopFixture(t)
	ctx := context.Background()
	kettle := f.addProduct(t, "Kettle", "kitchen", "10.00", 5)
	f.addToCart(t, f.user.ID, kettle, 1)
	res := f.checkout(t, f.user.ID, "10.00", "cod")

	o, err := f.orders.FindByID(ctx, res.OrderID)
	require.NoError(t, err)
	record := order.NewCancelledOrder(o, "ops", f.user.ID, order.CancelledByAdmin)
	record.RefundStatus = order.RefundStatusPending
	require.NoError(t, f.cancels.Create(ctx, record))

	dup := order.NewCancelledOrder(o, "again", f.user.ID, order.CancelledByAdmin)
	err = f.cancels.Create(ctx, dup)
	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "ALREADY_CANCELLED", domainErr.Code)

	pending, total, err := f.cancels.FindAll(ctx, shared.DefaultFilter(), order.RefundStatusPending)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, pending, 1)

	require.NoError(t, record.MarkRefunded())
	require.NoError(t, f.cancels.Save(ctx, record))
	_, total, err = f.cancels.FindAll(ctx, shared.DefaultFilter(), order.RefundStatusPending)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestOrderRepository_SaveWithLockDetectsStaleVersion(t *testing.T) {
	f := newShopFixture(t)
	ctx := context.Background()
	kettle := f.addProduct(t, "Kettle", "kitchen", "10.00", 5)
	f.addToCart(t, f.user.ID, kettle, 1)
	res := f.checkout(t, f.user.ID, "10.00", "cod")

	first, err := f.orders.FindByID(ctx, res.OrderID)
	require.NoError(t, err)
	second, err := f.orders.FindByID(ctx, res.OrderID)
	require.NoError(t, err)

	require.NoError(t, first.AdvanceTo(order.StatusShipped))
	require.NoError(t, f.orders.SaveWithLock(ctx, first))
	assert.Equal(t, 2, first.Version)

	require.NoError(t, second.AdvanceTo(order.StatusShipped))
	assert.ErrorIs(t, f.orders.SaveWithLock(ctx, second), shared.ErrConcurrencyConflict)
}

func TestOrderRepository_FindAllScopesByUser(t *testing.T) {
	f := newShopFixture(t)
	ctx := context.Background()
	kettle := f.addProduct(t, "Kettle", "kitchen", "10.00", 10)
	other := f.addUser(t, "ravi")

	f.addToCart(t, f.user.ID, kettle, 1)
	f.checkout(t, f.user.ID, "10.00", "cod")
	f.addToCart(t, f.user.ID, kettle, 1)
	f.checkout(t, f.user.ID, "10.00", "razorpay")
	f.addToCart(t, other.ID, kettle, 1)
	f.checkout(t, other.ID, "10.00", "cod")

	mine, total, err := f.orders.FindAll(ctx, order.Filter{Filter: shared.DefaultFilter(), UserID: &f.user.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	for _, o := range mine {
		assert.Equal(t, f.user.ID, o.UserID)
		assert.Len(t, o.Items, 1)
	}

	_, total, err = f.orders.FindAll(ctx, order.Filter{Filter: shared.DefaultFilter(), Status: order.StatusPendingPayment})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

// stubGateway accepts one signature and reports intents for known receipts
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

func TestVerifyPayment_CapturesOnceAndReplays(t *testing.T) {
	f := newShopFixture(t)
	ctx := context.Background()
	kettle := f.addProduct(t, "Kettle", "kitchen", "10.00", 5)
	f.addToCart(t, f.user.ID, kettle, 2)
	res := f.checkout(t, f.user.ID, "20.00", "razorpay")
	require.Equal(t, order.StatusPendingPayment.String(), res.Status)

	gw := &stubGateway{intents: map[string]*payment.Intent{}}
	svc := apppayment.NewService(gw, f.orders, f.txScope, "INR", zap.NewNop())

	intent, err := svc.RetryPayment(ctx, f.user.ID, res.OrderID)
	require.NoError(t, err)
	assert.Equal(t, int64(2000), intent.Amount)

	req := apppayment.VerifyPaymentRequest{
		RazorpayOrderID:   intent.GatewayOrderID,
		RazorpayPaymentID: "pay_1",
		RazorpaySignature: "bad",
	}
	_, err = svc.VerifyPayment(ctx, f.user.ID, req)
	assert.ErrorIs(t, err, payment.ErrSignatureMismatch)

	req.RazorpaySignature = "good"
	out, err := svc.VerifyPayment(ctx, f.user.ID, req)
	require.NoError(t, err)
	assert.Equal(t, order.StatusProcessing.String(), out.Status)

	again, err := svc.VerifyPayment(ctx, f.user.ID, req)
	require.NoError(t, err)
	assert.Equal(t, order.StatusProcessing.String(), again.Status)

	got, err := f.orders.FindByID(ctx, res.OrderID)
	require.NoError(t, err)
	assert.Equal(t, "pay_1", got.GatewayPaymentID)
	assert.Equal(t, intent.GatewayOrderID, got.GatewayOrderID)
}

func TestUserAndWishlistRepositories(t *testing.T) {
	f := newShopFixture(t)
	ctx := context.Background()
	users := NewGormUserRepository(f.db)

	exists, err := users.ExistsByUsername(ctx, " asha ")
	require.NoError(t, err)
	assert.True(t, exists)

	dup, err := identity.NewUser("asha", "", "another-pass", identity.RoleUser)
	require.NoError(t, err)
	var domainErr *shared.DomainError
	require.True(t, errors.As(users.Save(ctx, dup), &domainErr))
	assert.Equal(t, "ALREADY_EXISTS", domainErr.Code)

	f.user.SetBlocked(true)
	require.NoError(t, users.Save(ctx, f.user))
	got, err := users.FindByUsername(ctx, "asha")
	require.NoError(t, err)
	assert.True(t, got.IsBlocked)

	filter := shared.DefaultFilter()
	filter.Filters = map[string]interface{}{"is_blocked": true}
	blocked, total, err := users.FindAll(ctx, filter)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "asha", blocked[0].Username)

	wishlist := NewGormWishlistRepository(f.db)
	p := f.addProduct(t, "Lamp", "home", "999.00", 1)
	item := catalog.NewWishlistItem(f.user.ID, p.ID)
	require.NoError(t, wishlist.Save(ctx, item))

	list, err := wishlist.FindByUser(ctx, f.user.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.NotNil(t, list[0].Product)
	assert.Equal(t, "Lamp", list[0].Product.Name)

	assert.NoError(t, wishlist.DeleteForUser(ctx, f.user.ID, item.ID))
	assert.ErrorIs(t, wishlist.DeleteForUser(ctx, f.user.ID, item.ID), shared.ErrNotFound)
}
