package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/shopline/backend/internal/application/payment"
)

// PaymentHandler creates gateway intents and verifies completed payments
type PaymentHandler struct {
	BaseHandler
	paymentService *payment.Service
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(paymentService *payment.Service, logger *zap.Logger) *PaymentHandler {
	return &PaymentHandler{BaseHandler: newBaseHandler(logger), paymentService: paymentService}
}

// Create godoc
// @ID           createPayment
// @Summary      Create a payment intent
// @Description  With order_id the intent is bound to that order and its total is used; amounts are returned in minor units
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        request body payment.CreatePaymentRequest true "Amount or order"
// @Success      200 {object} payment.IntentResponse
// @Failure      400 {object} dto.ErrorResponse
// @Failure      404 {object} dto.ErrorResponse
// @Failure      500 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /payments/create [post]
func (h *PaymentHandler) Create(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	var req payment.CreatePaymentRequest
	if !h.bindJSON(c, &req) {
		return
	}
	intent, err := h.paymentService.CreatePayment(c.Request.Context(), userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, intent)
}

// Retry godoc
// @ID           retryPayment
// @Summary      Retry payment for an order
// @Description  Creates a fresh intent for an order awaiting payment; the order status does not change
// @Tags         payments
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Success      200 {object} payment.IntentResponse
// @Failure      400 {object} dto.ErrorResponse
// @Failure      404 {object} dto.ErrorResponse
// @Failure      500 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /orders/{id}/retry-payment [post]
func (h *PaymentHandler) Retry(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	orderID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	intent, err := h.paymentService.RetryPayment(c.Request.Context(), userID, orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, intent)
}

// Verify godoc
// @ID           verifyPayment
// @Summary      Verify a completed payment
// @Description  Checks the gateway signature and marks the order processing. Repeating a verified call succeeds without side effects.
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        request body payment.VerifyPaymentRequest true "Gateway callback fields"
// @Success      200 {object} payment.VerifyResult
// @Failure      400 {object} dto.ErrorResponse
// @Failure      404 {object} dto.ErrorResponse
// @Failure      409 {object} dto.ErrorResponse
// @Failure      500 {object} dto.ErrorResponse
// @Security     BearerAuth
// @Router       /payments/verify [post]
func (h *PaymentHandler) Verify(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	var req payment.VerifyPaymentRequest
	if !h.bindJSON(c, &req) {
		return
	}
	result, err := h.paymentService.VerifyPayment(c.Request.Context(), userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
