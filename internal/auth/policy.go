package auth

import (
	"errors"
	"path"
	"strings"

	"hospital/internal/user"
)

var (
	// ErrUnauthenticated means the route needs a principal and there is none.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrForbidden means a principal exists but lacks the route's authority.
	ErrForbidden = errors.New("insufficient authority")
)

// Requirement is what a route demands of the caller.
type Requirement struct {
	public      bool
	authorities []string
}

func PermitAll() Requirement { return Requirement{public: true} }

func Authenticated() Requirement { return Requirement{} }

func HasAuthority(authority string) Requirement {
	return Requirement{authorities: []string{authority}}
}

func HasAnyAuthority(authorities ...string) Requirement {
	return Requirement{authorities: authorities}
}

func (r Requirement) Public() bool { return r.public }

// Check reports whether p satisfies r.
func (r Requirement) Check(p *Principal) error {
	if r.public {
		return nil
	}
	if p == nil {
		return ErrUnauthenticated
	}
	if len(r.authorities) > 0 && !p.HasAnyAuthority(r.authorities...) {
		return ErrForbidden
	}
	return nil
}

type rule struct {
	pattern     string
	requirement Requirement
}

// Policy is an ordered route table; the first matching pattern wins.
// Patterns ending in "/**" match the prefix and everything below it,
// other patterns match the exact path.
type Policy struct {
	rules    []rule
	fallback Requirement
}

func NewPolicy(fallback Requirement) *Policy {
	return &Policy{fallback: fallback}
}

func (p *Policy) Add(req Requirement, patterns ...string) *Policy {
	for _, pat := range patterns {
		p.rules = append(p.rules, rule{pattern: pat, requirement: req})
	}
	return p
}

func matches(pattern, reqPath string) bool {
	if base, ok := strings.CutSuffix(pattern, "/**"); ok {
		return reqPath == base || strings.HasPrefix(reqPath, base+"/")
	}
	return reqPath == pattern
}

func (p *Policy) Match(reqPath string) Requirement {
	for _, r := range p.rules {
		if matches(r.pattern, reqPath) {
			return r.requirement
		}
	}
	return p.fallback
}

// DefaultPolicy is the hospital route table mounted under subpath.
func DefaultPolicy(subpath string) *Policy {
	at := func(parts ...string) []string {
		out := make([]string, len(parts))
		for i, s := range parts {
			out[i] = path.Join("/", subpath, s)
		}
		return out
	}
	admin := string(user.RoleAdmin)
	return NewPolicy(Authenticated()).
		Add(PermitAll(), at("/css/**", "/js/**", "/images/**", "/login", "/health")...).
		Add(HasAuthority(admin), at("/formPatients", "/save", "/delete", "/editPatient", "/users", "/users/**", "/sessions/online")...).
		Add(HasAnyAuthority(string(user.RoleUser), admin), at("/index", "/patients")...)
}
