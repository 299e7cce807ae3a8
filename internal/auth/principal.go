package auth

import (
	"hospital/internal/logging"

	"github.com/gin-gonic/gin"
)

const PrincipalKey = "principal"

// Principal is the authenticated identity attached to a session.
type Principal struct {
	SessionID   string   `json:"-"`
	Username    string   `json:"username"`
	Authorities []string `json:"authorities"`
}

func (p *Principal) HasAuthority(authority string) bool {
	for _, a := range p.Authorities {
		if a == authority {
			return true
		}
	}
	return false
}

func (p *Principal) HasAnyAuthority(authorities ...string) bool {
	for _, a := range authorities {
		if p.HasAuthority(a) {
			return true
		}
	}
	return false
}

func setPrincipal(c *gin.Context, p *Principal) {
	c.Set(PrincipalKey, p)
	c.Set(logging.PrincipalKey, p.Username)
}

// PrincipalFrom returns the principal the gate attached to c, or nil.
func PrincipalFrom(c *gin.Context) *Principal {
	v, ok := c.Get(PrincipalKey)
	if !ok {
		return nil
	}
	p, _ := v.(*Principal)
	return p
}
