package api

import (
	"errors"
	"net/http"
	"path"

	"hospital/internal/auth"
	"hospital/internal/config"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type LoginForm struct {
	Username string `form:"username"`
	Password string `form:"password"`
}

// GET /login
func LoginPageHandler(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		q := c.Request.URL.Query()
		c.HTML(http.StatusOK, "login.html", view(c, cfg, gin.H{
			"title":      "Login",
			"loginError": q.Has("error"),
			"loggedOut":  q.Has("logout"),
		}))
	}
}

// POST /login
func LoginHandler(cfg *config.Config, authenticator *auth.Authenticator, sessions *auth.Manager, logger zerolog.Logger) gin.HandlerFunc {
	loginPath := path.Join("/", cfg.Server.Subpath, "login")
	return func(c *gin.Context) {
		var form LoginForm
		if err := c.ShouldBind(&form); err != nil {
			c.Redirect(http.StatusFound, loginPath+"?error")
			return
		}
		principal, err := authenticator.Authenticate(c.Request.Context(), form.Username, form.Password)
		if errors.Is(err, auth.ErrInvalidCredentials) {
			logger.Info().Str("username", form.Username).Msg("login failed")
			c.Redirect(http.StatusFound, loginPath+"?error")
			return
		}
		if err != nil {
			logger.Error().Err(err).Msg("authenticate")
			renderError(c, cfg, http.StatusInternalServerError, "Login is unavailable right now.")
			return
		}
		if err := sessions.Start(c, principal); err != nil {
			logger.Error().Err(err).Msg("start session")
			renderError(c, cfg, http.StatusInternalServerError, "Login is unavailable right now.")
			return
		}
		logger.Info().Str("username", principal.Username).Strs("authorities", principal.Authorities).Msg("login")
		c.Redirect(http.StatusFound, path.Join("/", cfg.Server.Subpath, "index"))
	}
}

// POST /logout
func LogoutHandler(cfg *config.Config, sessions *auth.Manager, logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := sessions.End(c); err != nil {
			logger.Warn().Err(err).Msg("end session")
		}
		c.Redirect(http.StatusFound, path.Join("/", cfg.Server.Subpath, "login")+"?logout")
	}
}

// GET /sessions/online  [admin only]
func OnlineSessionCountHandler(store auth.SessionStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		n, err := store.Count(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{"message": "Session store error"}})
			return
		}
		c.JSON(http.StatusOK, gin.H{"online": n})
	}
}
