package payment

import (
	"errors"
	"strings"
	"time"

	"github.com/shopline/backend/internal/infrastructure/config"
)

const (
	razorpayAPIBaseURL     = "https://api.razorpay.com"
	razorpayOrdersPath     = "/v1/orders"
	razorpayOrderPath      = "/v1/orders/%s"
	razorpayDefaultTimeout = 10 * time.Second
)

// Errors for configuration validation
var (
	ErrRazorpayMissingKeyID     = errors.New("razorpay: missing key id")
	ErrRazorpayMissingKeySecret = errors.New("razorpay: missing key secret")
)

// RazorpayConfig contains the credentials of a Razorpay account
type RazorpayConfig struct {
	// KeyID is the public key id, also handed to the client checkout widget
	KeyID string
	// KeySecret signs API requests and payment signatures
	KeySecret string
	// BaseURL overrides the API host, mostly for tests
	BaseURL string
	Timeout time.Duration
}

// NewRazorpayConfig maps the application config section
func NewRazorpayConfig(cfg config.RazorpayConfig) *RazorpayConfig {
	return &RazorpayConfig{
		KeyID:     cfg.KeyID,
		KeySecret: cfg.KeySecret,
		BaseURL:   cfg.BaseURL,
		Timeout:   cfg.Timeout,
	}
}

// Validate validates the configuration
func (c *RazorpayConfig) Validate() error {
	if strings.TrimSpace(c.KeyID) == "" {
		return ErrRazorpayMissingKeyID
	}
	if strings.TrimSpace(c.KeySecret) == "" {
		return ErrRazorpayMissingKeySecret
	}
	return nil
}

func (c *RazorpayConfig) baseURL() string {
	if c.BaseURL == "" {
		return razorpayAPIBaseURL
	}
	return strings.TrimRight(c.BaseURL, "/")
}

func (c *RazorpayConfig) timeout() time.Duration {
	if c.Timeout <= 0 {
		return razorpayDefaultTimeout
	}
	return c.Timeout
}
