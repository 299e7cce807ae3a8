package api

import (
	"net/http"
	"path"

	"hospital/internal/config"

	"github.com/gin-gonic/gin"
)

// GET /health
func healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// GET /
func homeHandler(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Redirect(http.StatusFound, path.Join("/", cfg.Server.Subpath, "index"))
	}
}
