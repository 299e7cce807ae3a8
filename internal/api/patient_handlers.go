package api

import (
	"errors"
	"net/http"
	"net/url"
	"path"
	"strconv"

	"hospital/internal/config"
	"hospital/internal/patient"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// listParams are the paging and search parameters that travel with every
// patient page so the user lands back where they were.
type listParams struct {
	Page    int
	Size    int
	Keyword string
}

func intParam(c *gin.Context, name string, def int) (int, error) {
	raw, ok := c.GetPostForm(name)
	if !ok {
		raw, ok = c.GetQuery(name)
	}
	if !ok || raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}

func stringParam(c *gin.Context, name string) string {
	if v, ok := c.GetPostForm(name); ok {
		return v
	}
	return c.Query(name)
}

func parseListParams(c *gin.Context, cfg *config.Config) (listParams, error) {
	page, err := intParam(c, "page", 0)
	if err != nil {
		return listParams{}, errors.New("page must be a number")
	}
	size, err := intParam(c, "size", cfg.Patients.PageSize)
	if err != nil {
		return listParams{}, errors.New("size must be a number")
	}
	if page < 0 {
		page = 0
	}
	if size <= 0 {
		size = cfg.Patients.PageSize
	}
	if size > cfg.Patients.MaxPageSize {
		size = cfg.Patients.MaxPageSize
	}
	return listParams{Page: page, Size: size, Keyword: stringParam(c, "keyword")}, nil
}

func indexURL(cfg *config.Config, params listParams) string {
	q := url.Values{}
	q.Set("page", strconv.Itoa(params.Page))
	q.Set("size", strconv.Itoa(params.Size))
	q.Set("keyword", params.Keyword)
	return path.Join("/", cfg.Server.Subpath, "index") + "?" + q.Encode()
}

func pageNumbers(n int) []int {
	pages := make([]int, n)
	for i := range pages {
		pages[i] = i
	}
	return pages
}

// GET /index
func IndexHandler(cfg *config.Config, store *patient.Store, logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		params, err := parseListParams(c, cfg)
		if err != nil {
			renderError(c, cfg, http.StatusBadRequest, err.Error())
			return
		}
		result, err := store.FindPage(c.Request.Context(), params.Keyword, params.Page, params.Size)
		if err != nil {
			logger.Error().Err(err).Msg("list patients")
			renderError(c, cfg, http.StatusInternalServerError, "Could not load patients.")
			return
		}
		c.HTML(http.StatusOK, "patients.html", view(c, cfg, gin.H{
			"title":       "Patients",
			"patientList": result,
			"pages":       pageNumbers(result.TotalPages),
			"currentPage": params.Page,
			"size":        params.Size,
			"keyword":     params.Keyword,
		}))
	}
}

// GET /patients
func ListPatientsHandler(cfg *config.Config, store *patient.Store, logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		patients, err := store.FindAll(c.Request.Context())
		if err != nil {
			logger.Error().Err(err).Msg("list all patients")
			c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{"message": "List error"}})
			return
		}
		c.JSON(http.StatusOK, patients)
	}
}

func renderPatientForm(c *gin.Context, cfg *config.Config, status int, form patient.Form, errs map[string]string, params listParams) {
	tmpl, title := "formPatients.html", "New patient"
	if form.ID != "" {
		tmpl, title = "editPatient.html", "Edit patient"
	}
	if errs == nil {
		errs = map[string]string{}
	}
	c.HTML(status, tmpl, view(c, cfg, gin.H{
		"title":   title,
		"form":    form,
		"errors":  errs,
		"page":    params.Page,
		"size":    params.Size,
		"keyword": params.Keyword,
	}))
}

// GET /formPatients
func FormPatientHandler(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		renderPatientForm(c, cfg, http.StatusOK, patient.Form{}, nil, listParams{Size: cfg.Patients.PageSize})
	}
}

// POST /save
func SavePatientHandler(cfg *config.Config, store *patient.Store, logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var form patient.Form
		if err := c.ShouldBind(&form); err != nil {
			renderError(c, cfg, http.StatusBadRequest, "Invalid form submission.")
			return
		}
		params, err := parseListParams(c, cfg)
		if err != nil {
			renderError(c, cfg, http.StatusBadRequest, err.Error())
			return
		}

		p, err := store.Rules().Parse(form)
		if err == nil {
			err = store.Save(c.Request.Context(), p)
		}
		if verr, ok := patient.IsValidationError(err); ok {
			renderPatientForm(c, cfg, http.StatusOK, form, verr.Fields, params)
			return
		}
		if errors.Is(err, patient.ErrNotFound) {
			renderError(c, cfg, http.StatusNotFound, "Patient not found.")
			return
		}
		if err != nil {
			logger.Error().Err(err).Msg("save patient")
			renderError(c, cfg, http.StatusInternalServerError, "Could not save patient.")
			return
		}
		logger.Info().Str("patient", p.ID.String()).Msg("patient saved")
		c.Redirect(http.StatusFound, indexURL(cfg, params))
	}
}

func patientIDParam(c *gin.Context) (uuid.UUID, error) {
	return uuid.Parse(c.Query("id"))
}

// GET /editPatient
func EditPatientHandler(cfg *config.Config, store *patient.Store, logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		params, err := parseListParams(c, cfg)
		if err != nil {
			renderError(c, cfg, http.StatusBadRequest, err.Error())
			return
		}
		id, err := patientIDParam(c)
		if err != nil {
			renderError(c, cfg, http.StatusBadRequest, "Invalid patient id.")
			return
		}
		p, err := store.FindByID(c.Request.Context(), id)
		if errors.Is(err, patient.ErrNotFound) {
			renderError(c, cfg, http.StatusNotFound, "Patient not found.")
			return
		}
		if err != nil {
			logger.Error().Err(err).Msg("load patient")
			renderError(c, cfg, http.StatusInternalServerError, "Could not load patient.")
			return
		}
		renderPatientForm(c, cfg, http.StatusOK, patient.FormFromPatient(p), nil, params)
	}
}

// GET /delete
func DeletePatientHandler(cfg *config.Config, store *patient.Store, logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		params, err := parseListParams(c, cfg)
		if err != nil {
			renderError(c, cfg, http.StatusBadRequest, err.Error())
			return
		}
		id, err := patientIDParam(c)
		if err != nil {
			renderError(c, cfg, http.StatusBadRequest, "Invalid patient id.")
			return
		}
		if err := store.DeleteByID(c.Request.Context(), id); err != nil {
			logger.Error().Err(err).Msg("delete patient")
			renderError(c, cfg, http.StatusInternalServerError, "Could not delete patient.")
			return
		}
		logger.Info().Str("patient", id.String()).Msg("patient deleted")
		c.Redirect(http.StatusFound, indexURL(cfg, params))
	}
}
