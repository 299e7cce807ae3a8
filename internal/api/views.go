package api

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"

	"hospital/internal/auth"
	"hospital/internal/config"
	"hospital/internal/user"

	"github.com/gin-gonic/gin"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

func loadTemplates() *template.Template {
	funcs := template.FuncMap{
		"add": func(a, b int) int { return a + b },
	}
	return template.Must(template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html"))
}

func staticFiles(dir string) http.FileSystem {
	sub, err := fs.Sub(staticFS, "static/"+dir)
	if err != nil {
		panic(err)
	}
	return http.FS(sub)
}

// view adds the values every page needs to data.
func view(c *gin.Context, cfg *config.Config, data gin.H) gin.H {
	data["subpath"] = cfg.Server.Subpath
	if p := auth.PrincipalFrom(c); p != nil {
		data["principal"] = p
		data["isAdmin"] = p.HasAuthority(string(user.RoleAdmin))
	}
	return data
}

func renderError(c *gin.Context, cfg *config.Config, status int, message string) {
	c.HTML(status, "error.html", view(c, cfg, gin.H{
		"title":   http.StatusText(status),
		"status":  status,
		"message": message,
	}))
}
