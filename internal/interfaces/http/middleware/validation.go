package middleware

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/shopline/backend/internal/interfaces/http/dto"
)

// SetupValidator configures gin's validator: errors name fields by their
// json (or form) tag and decimal amounts take part in numeric rules like gt=0.
func SetupValidator() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		}
		return name
	})
	v.RegisterCustomTypeFunc(decimalValue, decimal.Decimal{}, decimal.NullDecimal{})
}

func decimalValue(field reflect.Value) interface{} {
	switch d := field.Interface().(type) {
	case decimal.Decimal:
		f, _ := d.Float64()
		return f
	case decimal.NullDecimal:
		if !d.Valid {
			return nil
		}
		f, _ := d.Decimal.Float64()
		return f
	}
	return nil
}

// FormatValidationErrors formats validation errors into a standard response
func FormatValidationErrors(err error, requestID string) dto.ErrorResponse {
	var details []dto.ValidationDetail

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		for _, e := range validationErrors {
			details = append(details, dto.ValidationDetail{
				Field:   e.Field(),
				Message: getValidationMessage(e),
			})
		}
	}

	return dto.NewValidationErrorResponse("Request validation failed", requestID, details)
}

// HandleBindError writes the response for a failed ShouldBind* call
func HandleBindError(c *gin.Context, err error) {
	requestID := GetRequestID(c)

	var validationErrors validator.ValidationErrors
	var maxBytesErr *http.MaxBytesError
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError

	switch {
	case errors.As(err, &validationErrors):
		c.JSON(http.StatusBadRequest, FormatValidationErrors(err, requestID))
	case errors.As(err, &maxBytesErr):
		c.JSON(http.StatusRequestEntityTooLarge, dto.NewErrorResponse(dto.ErrCodeRequestTooLarge,
			"request body exceeds maximum allowed size", requestID))
	case errors.As(err, &typeErr):
		c.JSON(http.StatusBadRequest, dto.NewValidationErrorResponse("Request validation failed", requestID,
			[]dto.ValidationDetail{{Field: typeErr.Field, Message: "Must be of type " + typeErr.Type.String()}}))
	case errors.As(err, &syntaxErr), errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(dto.ErrCodeInvalidJSON, "malformed JSON body", requestID))
	default:
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(dto.ErrCodeBadRequest, err.Error(), requestID))
	}
}

// getValidationMessage returns a human-readable validation message
func getValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Invalid email format"
	case "min":
		if e.Kind() == reflect.String {
			return "Must be at least " + e.Param() + " characters"
		}
		return "Must be at least " + e.Param()
	case "max":
		if e.Kind() == reflect.String {
			return "Must be at most " + e.Param() + " characters"
		}
		return "Must be at most " + e.Param()
	case "len":
		return "Must be exactly " + e.Param() + " characters"
	case "uuid":
		return "Invalid UUID format"
	case "oneof":
		return "Must be one of: " + e.Param()
	case "gte":
		return "Must be greater than or equal to " + e.Param()
	case "lte":
		return "Must be less than or equal to " + e.Param()
	case "gt":
		return "Must be greater than " + e.Param()
	case "lt":
		return "Must be less than " + e.Param()
	case "iso4217":
		return "Must be an ISO 4217 currency code"
	case "url":
		return "Invalid URL format"
	default:
		return "Invalid value"
	}
}
