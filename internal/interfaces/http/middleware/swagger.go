package middleware

import (
	"net"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/shopline/backend/internal/infrastructure/config"
	"github.com/shopline/backend/internal/interfaces/http/dto"
)

// SwaggerProtection hides the API docs when they are disabled and limits
// them to the configured addresses otherwise. Unparseable entries are ignored.
func SwaggerProtection(cfg config.SwaggerConfig) gin.HandlerFunc {
	var nets []*net.IPNet
	var ips []net.IP
	for _, entry := range cfg.AllowedIPs {
		if strings.Contains(entry, "/") {
			if _, network, err := net.ParseCIDR(entry); err == nil {
				nets = append(nets, network)
			}
			continue
		}
		if ip := net.ParseIP(entry); ip != nil {
			ips = append(ips, ip)
		}
	}
	restricted := len(cfg.AllowedIPs) > 0

	return func(c *gin.Context) {
		if !cfg.Enabled {
			abortWithError(c, http.StatusNotFound, dto.ErrCodeNotFound, "API documentation is not available")
			return
		}
		if restricted && !isIPAllowed(net.ParseIP(c.ClientIP()), ips, nets) {
			abortWithError(c, http.StatusForbidden, dto.ErrCodeForbidden, "access to API documentation is restricted")
			return
		}
		c.Next()
	}
}

func isIPAllowed(ip net.IP, ips []net.IP, nets []*net.IPNet) bool {
	if ip == nil {
		return false
	}
	for _, allowed := range ips {
		if allowed.Equal(ip) {
			return true
		}
	}
	for _, network := range nets {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}
