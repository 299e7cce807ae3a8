package auth

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type GateOptions struct {
	LoginPath string
	// Forbidden renders the response for authenticated callers lacking
	// authority. Defaults to a plain 403.
	Forbidden gin.HandlerFunc
}

// Gate checks every request against policy. Unauthenticated callers on
// protected routes are redirected to the login page; authenticated callers
// without the required authority get 403.
func Gate(policy *Policy, sessions *Manager, opts GateOptions, logger zerolog.Logger) gin.HandlerFunc {
	if opts.LoginPath == "" {
		opts.LoginPath = "/login"
	}
	if opts.Forbidden == nil {
		opts.Forbidden = func(c *gin.Context) {
			c.String(http.StatusForbidden, "Forbidden")
		}
	}
	return func(c *gin.Context) {
		req := policy.Match(c.Request.URL.Path)

		principal, err := sessions.Resolve(c)
		if err != nil && !errors.Is(err, ErrNoSession) {
			logger.Error().Err(err).Str("path", c.Request.URL.Path).Msg("session lookup failed")
		}
		if principal != nil {
			setPrincipal(c, principal)
		}

		switch err := req.Check(principal); {
		case err == nil:
			c.Next()
		case errors.Is(err, ErrUnauthenticated):
			c.Redirect(http.StatusFound, opts.LoginPath)
			c.Abort()
		default:
			logger.Warn().
				Str("user", principal.Username).
				Str("path", c.Request.URL.Path).
				Msg("access denied")
			c.Status(http.StatusForbidden)
			opts.Forbidden(c)
			c.Abort()
		}
	}
}
