package middleware

import (
	"net/http"
	"strings"
)

type CSP struct {
	isProd          bool
	cspHeaderString string
}

// NewCSP builds the policy sent with every response. Rendered posts may
// embed images from the media store, so its origin is added to img-src.
func NewCSP(isProd bool, imageSources ...string) *CSP {
	sources := make([]string, 0, len(imageSources))
	for _, src := range imageSources {
		if src = strings.TrimSpace(src); src != "" {
			sources = append(sources, src)
		}
	}

	imgSrc := "img-src 'self' data:"
	if len(sources) > 0 {
		imgSrc += " " + strings.Join(sources, " ")
	}

	cspHeader := "default-src 'self'; " +
		"script-src 'self'; " +
		"style-src 'self' 'unsafe-inline'; " +
		imgSrc + "; " +
		"connect-src 'self'; " +
		"frame-ancestors 'none'; " +
		"base-uri 'self'; " +
		"form-action 'self'"

	return &CSP{
		isProd:          isProd,
		cspHeaderString: cspHeader,
	}
}

func (c *CSP) Middleware() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Security-Policy", c.cspHeaderString)

			if c.isProd {
				w.Header().Set("Strict-Transport-Security", "max-age=63072000; includeSubDomains")
			}

			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

			next.ServeHTTP(w, r)
		})
	}
}
