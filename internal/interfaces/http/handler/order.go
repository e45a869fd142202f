package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shopline/backend/internal/application/order"
	"github.com/shopline/backend/internal/interfaces/http/dto"
	"github.com/shopline/backend/internal/interfaces/http/middleware"
)

// IdempotencyKeyHeader lets clients retry a checkout without placing it twice
const IdempotencyKeyHeader = "Idempotency-Key"

const maxIdempotencyKeyLength = 128

// OrderHandler serves checkout, the caller's orders and the admin order desk
type OrderHandler struct {
	BaseHandler
	checkoutService *order.CheckoutService
	orderService    *order.OrderService
	invoiceService  *order.InvoiceService
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(
	checkoutService *order.CheckoutService,
	orderService *order.OrderService,
	invoiceService *order.InvoiceService,
	logger *zap.Logger,
) *OrderHandler {
	return &OrderHandler{
		BaseHandler:     newBaseHandler(logger),
		checkoutService: checkoutService,
		orderService:    orderService,
		invoiceService:  invoiceService,
	}
}

// Checkout godoc
// @ID           checkout
// @Summary      Place an order from the cart
// @Description  Cash on delivery ("cod") orders start processing, every other method waits for payment.
// @Description  Lines whose product ran out of stock are left out and listed in skipped_items.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key header string                false "Client key that makes retries safe"
// @Param        request         body   order.CheckoutRequest true  "Shipping, total and payment method"
// @Success      201 {object} order.CheckoutResult
// @Failure      400 {object} dto.ErrorResponse
// @Failure      409 {object} dto.ErrorResponse
// @Failure      500 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /orders [post]
func (h *OrderHandler) Checkout(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	key := c.GetHeader(IdempotencyKeyHeader)
	if len(key) > maxIdempotencyKeyLength {
		h.BadRequest(c, "Idempotency-Key is too long")
		return
	}
	var req order.CheckoutRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.checkoutService.Checkout(c.Request.Context(), userID, key, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// List godoc
// @ID           listOrders
// @Summary      List my orders
// @Description  Newest first
// @Tags         orders
// @Produce      json
// @Param        page      query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(8)
// @Success      200 {object} shared.Paginated[order.OrderResponse]
// @Failure      400 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /orders [get]
func (h *OrderHandler) List(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	var filter order.ListOrdersFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	page, err := h.orderService.List(c.Request.Context(), userID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// Get godoc
// @ID           getOrder
// @Summary      Get one of my orders
// @Tags         orders
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Success      200 {object} order.OrderResponse
// @Failure      404 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /orders/{id} [get]
func (h *OrderHandler) Get(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	orderID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	result, err := h.orderService.Get(c.Request.Context(), userID, orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Cancel godoc
// @ID           cancelOrder
// @Summary      Cancel one of my orders
// @Description  Restores stock for every line. Shipped, delivered and cancelled orders cannot be cancelled.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        id      path string                   true  "Order ID" format(uuid)
// @Param        request body order.CancelOrderRequest false "Reason"
// @Success      200 {object} order.CancelResult
// @Failure      400 {object} dto.ErrorResponse
// @Failure      404 {object} dto.ErrorResponse
// @Failure      409 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /orders/{id}/cancel [post]
func (h *OrderHandler) Cancel(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	h.cancel(c, order.Actor{UserID: userID})
}

// AdminCancel godoc
// @ID           adminCancelOrder
// @Summary      Cancel any order
// @Tags         admin-orders
// @Accept       json
// @Produce      json
// @Param        id      path string                   true  "Order ID" format(uuid)
// @Param        request body order.CancelOrderRequest false "Reason"
// @Success      200 {object} order.CancelResult
// @Failure      400 {object} dto.ErrorResponse
// @Failure      404 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /admin/orders/{id}/cancel [post]
func (h *OrderHandler) AdminCancel(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	h.cancel(c, order.Actor{UserID: userID, IsAdmin: true})
}

func (h *OrderHandler) cancel(c *gin.Context, actor order.Actor) {
	orderID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req order.CancelOrderRequest
	if !h.bindOptionalJSON(c, &req) {
		return
	}
	result, err := h.orderService.Cancel(c.Request.Context(), actor, orderID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Invoice godoc
// @ID           getOrderInvoice
// @Summary      Download the invoice
// @Tags         orders
// @Produce      application/pdf
// @Param        id path string true "Order ID" format(uuid)
// @Success      200 {file} binary
// @Failure      404 {object} dto.ErrorResponse
// @Failure      503 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /orders/{id}/invoice [get]
func (h *OrderHandler) Invoice(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	orderID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	actor := order.Actor{UserID: userID}
	if claims := middleware.GetJWTClaims(c); claims != nil {
		actor.IsAdmin = claims.IsAdmin()
	}

	pdf, filename, err := h.invoiceService.Invoice(c.Request.Context(), actor, orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/pdf", pdf)
}

// AdminList godoc
// @ID           adminListOrders
// @Summary      List all orders
// @Tags         admin-orders
// @Produce      json
// @Param        page      query int    false "Page number" default(1)
// @Param        page_size query int    false "Page size" default(8)
// @Param        status    query string false "Order status"
// @Param        user_id   query string false "Owner" format(uuid)
// @Param        order_by  query string false "created_at, updated_at or total_amount"
// @Param        order_dir query string false "asc or desc"
// @Success      200 {object} shared.Paginated[order.OrderResponse]
// @Failure      400 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /admin/orders [get]
func (h *OrderHandler) AdminList(c *gin.Context) {
	var filter order.AdminOrderListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	if raw := c.Query("user_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, dto.NewValidationErrorResponse("Request validation failed",
				middleware.GetRequestID(c), []dto.ValidationDetail{{Field: "user_id", Message: "Invalid UUID format"}}))
			return
		}
		filter.UserID = &id
	}

	page, err := h.orderService.AdminList(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// AdminGet godoc
// @ID           adminGetOrder
// @Summary      Get any order
// @Tags         admin-orders
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Success      200 {object} order.OrderResponse
// @Failure      404 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /admin/orders/{id} [get]
func (h *OrderHandler) AdminGet(c *gin.Context) {
	orderID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	result, err := h.orderService.AdminGet(c.Request.Context(), orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// UpdateStatus godoc
// @ID           adminUpdateOrderStatus
// @Summary      Advance an order
// @Description  pending_payment to processing, processing to shipped, shipped to delivered
// @Tags         admin-orders
// @Accept       json
// @Produce      json
// @Param        id      path string                    true "Order ID" format(uuid)
// @Param        request body order.UpdateStatusRequest true "Next status"
// @Success      200 {object} order.OrderResponse
// @Failure      400 {object} dto.ErrorResponse
// @Failure      404 {object} dto.ErrorResponse
// @Failure      409 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /admin/orders/{id}/status [put]
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	orderID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req order.UpdateStatusRequest
	if !h.bindJSON(c, &req) {
		return
	}
	result, err := h.orderService.UpdateStatus(c.Request.Context(), orderID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ListCancellations godoc
// @ID           adminListCancellations
// @Summary      List cancelled orders
// @Tags         admin-orders
// @Produce      json
// @Param        page          query int    false "Page number" default(1)
// @Param        page_size     query int    false "Page size" default(8)
// @Param        refund_status query string false "not_required, pending or refunded"
// @Success      200 {object} shared.Paginated[order.CancelledOrderResponse]
// @Failure      400 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /admin/cancellations [get]
func (h *OrderHandler) ListCancellations(c *gin.Context) {
	var filter order.CancellationListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	page, err := h.orderService.ListCancellations(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// MarkRefunded godoc
// @ID           adminMarkRefunded
// @Summary      Mark a cancelled order refunded
// @Tags         admin-orders
// @Produce      json
// @Param        order_id path string true "Order ID" format(uuid)
// @Success      200 {object} order.CancelledOrderResponse
// @Failure      400 {object} dto.ErrorResponse
// @Failure      404 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /admin/cancellations/{order_id}/refund [post]
func (h *OrderHandler) MarkRefunded(c *gin.Context) {
	orderID, ok := h.pathID(c, "order_id")
	if !ok {
		return
	}
	result, err := h.orderService.MarkRefunded(c.Request.Context(), orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
