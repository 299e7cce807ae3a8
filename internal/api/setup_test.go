package api

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"hospital/internal/auth"
	"hospital/internal/config"
	"hospital/internal/db"
	"hospital/internal/patient"
	"hospital/internal/user"

	"github.com/PuerkitoBio/goquery"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type testApp struct {
	cfg      *config.Config
	router   *gin.Engine
	patients *patient.Store
	accounts *user.Store
	sessions *auth.MemorySessionStore
}

func setupApp(t *testing.T, mutate ...func(*config.Config)) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Default()
	cfg.Server.JWTSecret = "secret"
	cfg.Database.Driver = "sqlite"
	cfg.Database.DSN = fmt.Sprintf("file:api_%s?mode=memory&cache=shared", uuid.NewString())
	cfg.Session.Store = "memory"
	for _, m := range mutate {
		m(cfg)
	}

	conn, err := db.Open(cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.Migrate(conn); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	accounts := user.NewStore(conn)
	if _, err := user.Seed(context.Background(), accounts, user.DefaultSeedOptions("1234", "admin")); err != nil {
		t.Fatalf("failed to seed accounts: %v", err)
	}
	patients := patient.NewStore(conn, patient.RulesFromConfig(cfg.Patients))
	store := auth.NewMemorySessionStore()

	r := SetupRouter(cfg, Deps{
		Patients:      patients,
		Accounts:      accounts,
		Authenticator: auth.NewAuthenticator(accounts),
		Sessions:      auth.NewManager(cfg, store),
		Logger:        zerolog.Nop(),
	})
	return &testApp{cfg: cfg, router: r, patients: patients, accounts: accounts, sessions: store}
}

func (a *testApp) do(method, target string, form url.Values, cookie *http.Cookie) *httptest.ResponseRecorder {
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func (a *testApp) doJSON(method, target, body string, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func sessionCookieFrom(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == name && c.Value != "" {
			return c
		}
	}
	return nil
}

// login signs in through POST /login and returns the session cookie.
func (a *testApp) login(t *testing.T, username, password string) *http.Cookie {
	t.Helper()
	w := a.do("POST", "/login", url.Values{"username": {username}, "password": {password}}, nil)
	if w.Code != http.StatusFound {
		t.Fatalf("login as %s: expected 302, got %d", username, w.Code)
	}
	c := sessionCookieFrom(w, a.cfg.Session.CookieName)
	if c == nil {
		t.Fatalf("login as %s: no session cookie", username)
	}
	return c
}

func (a *testApp) addPatient(t *testing.T, name string, score int) *patient.Patient {
	t.Helper()
	p, err := a.patients.Rules().Parse(patient.Form{Name: name, BirthDate: "1990-05-17", Score: fmt.Sprint(score)})
	if err != nil {
		t.Fatalf("parse %q: %v", name, err)
	}
	if err := a.patients.Save(context.Background(), p); err != nil {
		t.Fatalf("save %q: %v", name, err)
	}
	return p
}

func (a *testApp) patientCount(t *testing.T) int64 {
	t.Helper()
	n, err := a.patients.Count(context.Background())
	if err != nil {
		t.Fatalf("count patients: %v", err)
	}
	return n
}

func parseHTML(t *testing.T, w *httptest.ResponseRecorder) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(w.Body)
	if err != nil {
		t.Fatalf("failed to parse HTML: %v", err)
	}
	return doc
}
