// Package handler holds the gin handlers of the storefront API. Handlers
// bind and validate the request, call one application service and translate
// its error into the standard error body.
package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shopline/backend/internal/domain/payment"
	"github.com/shopline/backend/internal/domain/shared"
	"github.com/shopline/backend/internal/infrastructure/logger"
	"github.com/shopline/backend/internal/interfaces/http/dto"
	"github.com/shopline/backend/internal/interfaces/http/middleware"
)

// BaseHandler provides the response helpers shared by every handler
type BaseHandler struct {
	logger *zap.Logger
}

func newBaseHandler(l *zap.Logger) BaseHandler {
	if l == nil {
		l = zap.NewNop()
	}
	return BaseHandler{logger: l}
}

// Error sends an error response with an explicit status
func (h *BaseHandler) Error(c *gin.Context, status int, code, message string) {
	c.JSON(status, dto.NewErrorResponse(code, message, middleware.GetRequestID(c)))
}

// BadRequest sends a 400 with the BAD_REQUEST code
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// paymentErrors translates the payment port's sentinel errors
var paymentErrors = []struct {
	err     error
	status  int
	code    string
	message string
}{
	{payment.ErrSignatureMismatch, http.StatusBadRequest, dto.ErrCodeSignatureMismatch, "signature verification failed"},
	{payment.ErrMissingVerifyFields, http.StatusBadRequest, dto.ErrCodeValidation, "razorpay_order_id, razorpay_payment_id and razorpay_signature are required"},
	{payment.ErrIntentMismatch, http.StatusBadRequest, dto.ErrCodeIntentMismatch, "payment does not belong to this order"},
	{payment.ErrInvalidAmount, http.StatusBadRequest, dto.ErrCodeInvalidAmount, "amount must be positive"},
	{payment.ErrInvalidCurrency, http.StatusBadRequest, "INVALID_CURRENCY", "currency must be a 3 letter code"},
	{payment.ErrGatewayNotConfigured, http.StatusInternalServerError, dto.ErrCodeGateway, "payment gateway is not configured"},
	{payment.ErrGatewayUnavailable, http.StatusInternalServerError, dto.ErrCodeGateway, "payment gateway unavailable"},
	{payment.ErrGatewayRequestFailed, http.StatusInternalServerError, dto.ErrCodeGateway, "payment gateway request failed"},
}

// HandleError writes the response for an error returned by a service.
// Domain errors keep their code and message; anything unrecognised is logged
// and reported as a generic 500.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	requestID := middleware.GetRequestID(c)
	log := logger.FromContext(c.Request.Context(), h.logger)

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		status := dto.GetHTTPStatus(domainErr.Code)
		if status >= http.StatusInternalServerError {
			log.Error("Request failed", zap.String("code", domainErr.Code), zap.Error(err))
		}
		c.JSON(status, dto.NewErrorResponse(domainErr.Code, domainErr.Message, requestID))
		return
	}

	for _, pe := range paymentErrors {
		if errors.Is(err, pe.err) {
			if pe.status >= http.StatusInternalServerError {
				log.Error("Payment gateway error", zap.Error(err))
			} else {
				log.Warn("Payment rejected", zap.Error(err))
			}
			c.JSON(pe.status, dto.NewErrorResponse(pe.code, pe.message, requestID))
			return
		}
	}

	log.Error("Unhandled error", zap.String("path", c.FullPath()), zap.Error(err))
	c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(dto.ErrCodeInternal, "internal server error", requestID))
}

// bindJSON binds the body into req and writes the error response on failure
func (h *BaseHandler) bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		middleware.HandleBindError(c, err)
		return false
	}
	return true
}

// bindOptionalJSON is bindJSON for endpoints whose body may be omitted
func (h *BaseHandler) bindOptionalJSON(c *gin.Context, req any) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	return h.bindJSON(c, req)
}

// bindQuery binds query parameters into req and writes the error response on failure
func (h *BaseHandler) bindQuery(c *gin.Context, req any) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		middleware.HandleBindError(c, err)
		return false
	}
	return true
}

// pathID parses a uuid path parameter. A malformed id cannot name any
// resource, so it is reported as 404.
func (h *BaseHandler) pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		h.Error(c, http.StatusNotFound, dto.ErrCodeNotFound, "resource not found")
		return uuid.Nil, false
	}
	return id, true
}

// currentUser returns the authenticated user id set by the JWT middleware
func (h *BaseHandler) currentUser(c *gin.Context) (uuid.UUID, bool) {
	id := middleware.GetJWTUserID(c)
	if id == uuid.Nil {
		h.Error(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, "authentication required")
		return uuid.Nil, false
	}
	return id, true
}
