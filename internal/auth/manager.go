package auth

import (
	"errors"
	"net/http"
	"time"

	"hospital/internal/config"

	"github.com/gin-gonic/gin"
)

// ErrNoSession means the request carries no usable session cookie.
var ErrNoSession = errors.New("no session")

// Manager ties the session store to the session cookie. The cookie holds a
// signed token naming the session; the session expires after IdleTimeout
// without requests, and the token after MaxAge regardless of activity.
type Manager struct {
	store       SessionStore
	secret      string
	cookieName  string
	cookiePath  string
	idleTimeout time.Duration
	maxAge      time.Duration
}

func NewManager(cfg *config.Config, store SessionStore) *Manager {
	cookiePath := cfg.Server.Subpath
	if cookiePath == "" {
		cookiePath = "/"
	}
	return &Manager{
		store:       store,
		secret:      cfg.Server.JWTSecret,
		cookieName:  cfg.Session.CookieName,
		cookiePath:  cookiePath,
		idleTimeout: cfg.Session.IdleTimeout,
		maxAge:      cfg.Session.MaxAge,
	}
}

func (m *Manager) Store() SessionStore { return m.store }

func (m *Manager) CookieName() string { return m.cookieName }

// Start opens a session for p and sets the session cookie.
func (m *Manager) Start(c *gin.Context, p *Principal) error {
	id, err := m.store.Create(c.Request.Context(), *p, m.idleTimeout)
	if err != nil {
		return err
	}
	token, err := GenerateJWT(m.secret, id, p.Username, m.maxAge)
	if err != nil {
		_ = m.store.Delete(c.Request.Context(), id)
		return err
	}
	p.SessionID = id
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(m.cookieName, token, int(m.maxAge.Seconds()), m.cookiePath, "", c.Request.TLS != nil, true)
	return nil
}

// Resolve returns the principal behind the request's session cookie and
// extends the session's idle deadline.
func (m *Manager) Resolve(c *gin.Context) (*Principal, error) {
	token, err := c.Cookie(m.cookieName)
	if err != nil || token == "" {
		return nil, ErrNoSession
	}
	claims, err := ParseJWT(m.secret, token)
	if err != nil {
		return nil, ErrNoSession
	}
	p, err := m.store.Get(c.Request.Context(), claims.SessionID)
	if errors.Is(err, ErrSessionNotFound) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, err
	}
	if p.Username != claims.Username {
		return nil, ErrNoSession
	}
	if err := m.store.Touch(c.Request.Context(), p.SessionID, m.idleTimeout); err != nil && !errors.Is(err, ErrSessionNotFound) {
		return nil, err
	}
	return p, nil
}

// End deletes the current session, if any, and clears the cookie.
func (m *Manager) End(c *gin.Context) error {
	var err error
	if p := PrincipalFrom(c); p != nil && p.SessionID != "" {
		err = m.store.Delete(c.Request.Context(), p.SessionID)
	} else if token, cerr := c.Cookie(m.cookieName); cerr == nil {
		if claims, perr := ParseJWT(m.secret, token); perr == nil {
			err = m.store.Delete(c.Request.Context(), claims.SessionID)
		}
	}
	c.SetCookie(m.cookieName, "", -1, m.cookiePath, "", c.Request.TLS != nil, true)
	return err
}
