package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// SecurityHeadersConfig controls the hardening headers applied to every
// response.
type SecurityHeadersConfig struct {
	// EnableHSTS adds Strict-Transport-Security. Only enable when the
	// service is reachable exclusively over TLS.
	EnableHSTS bool
	// HSTSMaxAgeSeconds is the max-age for HSTS; defaults to one year
	// when zero.
	HSTSMaxAgeSeconds int
	// ContentSecurityPolicy overrides the default restrictive CSP when
	// non-empty.
	ContentSecurityPolicy string
}

const defaultCSP = "default-src 'none'; frame-ancestors 'none'"

// SecurityHeaders sets conservative browser hardening headers on every
// response. The API serves JSON only, so the default CSP denies everything.
func SecurityHeaders(cfg SecurityHeadersConfig) gin.HandlerFunc {
	csp := cfg.ContentSecurityPolicy
	if csp == "" {
		csp = defaultCSP
	}
	maxAge := cfg.HSTSMaxAgeSeconds
	if maxAge <= 0 {
		maxAge = 31536000
	}
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Content-Security-Policy", csp)
		if cfg.EnableHSTS {
			h.Set("Strict-Transport-Security", "max-age="+strconv.Itoa(maxAge)+"; includeSubDomains")
		}
		c.Next()
	}
}
