package api

import (
	"net/http"
	"path"

	"hospital/internal/auth"
	"hospital/internal/config"
	"hospital/internal/logging"
	"hospital/internal/patient"
	"hospital/internal/user"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type Deps struct {
	Patients      *patient.Store
	Accounts      *user.Store
	Authenticator *auth.Authenticator
	Sessions      *auth.Manager
	Logger        zerolog.Logger
}

func SetupRouter(cfg *config.Config, deps Deps) *gin.Engine {
	r := gin.New()
	r.Use(logging.Recovery(deps.Logger), logging.RequestLogger(deps.Logger))
	subpath := cfg.Server.Subpath // e.g. "/hospital"; empty mounts at the root

	r.SetHTMLTemplate(loadTemplates())
	r.StaticFS(path.Join("/", subpath, "css"), staticFiles("css"))

	r.Use(auth.Gate(auth.DefaultPolicy(subpath), deps.Sessions, auth.GateOptions{
		LoginPath: path.Join("/", subpath, "login"),
		Forbidden: func(c *gin.Context) {
			renderError(c, cfg, http.StatusForbidden, "You are not allowed to access this page.")
		},
	}, deps.Logger))

	r.NoRoute(func(c *gin.Context) {
		renderError(c, cfg, http.StatusNotFound, "Page not found.")
	})

	if subpath != "" {
		r.GET(subpath, homeHandler(cfg))
	}
	group := r.Group(subpath)
	{
		group.GET("/", homeHandler(cfg))
		group.GET("/health", healthHandler)

		// Auth
		group.GET("/login", LoginPageHandler(cfg))
		group.POST("/login", LoginHandler(cfg, deps.Authenticator, deps.Sessions, deps.Logger))
		group.POST("/logout", LogoutHandler(cfg, deps.Sessions, deps.Logger))

		// Patients: listing for USER or ADMIN
		group.GET("/index", IndexHandler(cfg, deps.Patients, deps.Logger))
		group.GET("/patients", ListPatientsHandler(cfg, deps.Patients, deps.Logger))

		// Patients: ADMIN only
		group.GET("/formPatients", FormPatientHandler(cfg))
		group.POST("/save", SavePatientHandler(cfg, deps.Patients, deps.Logger))
		group.GET("/editPatient", EditPatientHandler(cfg, deps.Patients, deps.Logger))
		group.GET("/delete", DeletePatientHandler(cfg, deps.Patients, deps.Logger))

		// Accounts: ADMIN only
		group.GET("/users", ListUsersHandler(deps.Accounts))
		group.POST("/users", CreateUserHandler(deps.Accounts))
		group.POST("/users/:username/roles", AssignRoleHandler(deps.Accounts))
		group.GET("/sessions/online", OnlineSessionCountHandler(deps.Sessions.Store()))
	}
	return r
}
