package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopline/backend/internal/interfaces/http/dto"
)

type bindTarget struct {
	Email    string          `json:"email" binding:"required,email"`
	Quantity int             `json:"quantity" binding:"required,min=1,max=5"`
	Amount   decimal.Decimal `json:"amount" binding:"gt=0"`
}

func bindRouter(limit int64) *gin.Engine {
	SetupValidator()
	r := gin.New()
	if limit > 0 {
		r.Use(BodyLimit(limit))
	}
	r.POST("/bind", func(c *gin.Context) {
		var req bindTarget
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleBindError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"amount": req.Amount.String()})
	})
	return r
}

func postBind(r *gin.Engine, body string) (*httptest.ResponseRecorder, dto.ErrorResponse) {
	req := httptest.NewRequest(http.MethodPost, "/bind", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp dto.ErrorResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

func TestHandleBindError_ValidationDetailsUseJSONNames(t *testing.T) {
	w, resp := postBind(bindRouter(0), `{"email":"nope","quantity":9,"amount":"10"}`)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeValidation, resp.Code)

	fields := map[string]string{}
	for _, d := range resp.Details {
		fields[d.Field] = d.Message
	}
	assert.Equal(t, "Invalid email format", fields["email"])
	assert.Equal(t, "Must be at most 5", fields["quantity"])
	assert.NotContains(t, fields, "amount")
}

func TestHandleBindError_DecimalGreaterThanZero(t *testing.T) {
	r := bindRouter(0)

	w, resp := postBind(r, `{"email":"a@b.co","quantity":1,"amount":"0"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Len(t, resp.Details, 1)
	assert.Equal(t, "amount", resp.Details[0].Field)
	assert.Equal(t, "Must be greater than 0", resp.Details[0].Message)

	w, _ = postBind(r, `{"email":"a@b.co","quantity":1,"amount":"0.01"}`)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHandleBindError_MalformedJSON(t *testing.T) {
	w, resp := postBind(bindRouter(0), `{"email":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeInvalidJSON, resp.Code)
}

func TestHandleBindError_WrongType(t *testing.T) {
	w, resp := postBind(bindRouter(0), `{"email":"a@b.co","quantity":"two"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeValidation, resp.Code)
	require.Len(t, resp.Details, 1)
	assert.Equal(t, "quantity", resp.Details[0].Field)
}

func TestHandleBindError_ChunkedBodyOverLimit(t *testing.T) {
	r := bindRouter(16)
	body := `{"email":"someone@example.com","quantity":1,"amount":"1"}`
	req := httptest.NewRequest(http.MethodPost, "/bind", strings.NewReader(body))
	req.ContentLength = -1
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}
