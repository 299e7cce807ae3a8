package auth

import (
	"errors"
	"testing"
)

func TestDefaultPolicy(t *testing.T) {
	policy := DefaultPolicy("")
	userP := &Principal{Username: "user1", Authorities: []string{"USER"}}
	adminP := &Principal{Username: "admin", Authorities: []string{"ADMIN"}}
	bareP := &Principal{Username: "nobody"}

	tests := []struct {
		path      string
		principal *Principal
		want      error
	}{
		{"/css/site.css", nil, nil},
		{"/js/app.js", nil, nil},
		{"/images/logo.png", nil, nil},
		{"/login", nil, nil},
		{"/health", nil, nil},
		{"/index", nil, ErrUnauthenticated},
		{"/index", userP, nil},
		{"/index", adminP, nil},
		{"/index", bareP, ErrForbidden},
		{"/patients", userP, nil},
		{"/formPatients", userP, ErrForbidden},
		{"/save", userP, ErrForbidden},
		{"/save", nil, ErrUnauthenticated},
		{"/delete", userP, ErrForbidden},
		{"/editPatient", userP, ErrForbidden},
		{"/save", adminP, nil},
		{"/delete", adminP, nil},
		{"/editPatient", adminP, nil},
		{"/formPatients", adminP, nil},
		{"/users", userP, ErrForbidden},
		{"/users/user1/roles", userP, ErrForbidden},
		{"/users/user1/roles", adminP, nil},
		{"/sessions/online", userP, ErrForbidden},
		{"/logout", nil, ErrUnauthenticated},
		{"/logout", bareP, nil},
		{"/", bareP, nil},
		{"/cssx", nil, ErrUnauthenticated},
		{"/login/extra", nil, ErrUnauthenticated},
	}
	for _, tt := range tests {
		err := policy.Match(tt.path).Check(tt.principal)
		if !errors.Is(err, tt.want) || (tt.want == nil && err != nil) {
			name := "anonymous"
			if tt.principal != nil {
				name = tt.principal.Username
			}
			t.Errorf("%s as %s: got %v, want %v", tt.path, name, err, tt.want)
		}
	}
}

func TestDefaultPolicy_Subpath(t *testing.T) {
	policy := DefaultPolicy("/hospital")
	if !policy.Match("/hospital/css/a.css").Public() {
		t.Errorf("static assets under subpath should be public")
	}
	if policy.Match("/css/a.css").Public() {
		t.Errorf("static assets outside subpath should not be public")
	}
	if err := policy.Match("/hospital/save").Check(&Principal{Authorities: []string{"USER"}}); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected forbidden for USER on /hospital/save, got %v", err)
	}
}

func TestPolicy_FirstMatchWins(t *testing.T) {
	policy := NewPolicy(Authenticated()).
		Add(PermitAll(), "/open/**").
		Add(HasAuthority("ADMIN"), "/open/admin")
	if !policy.Match("/open/admin").Public() {
		t.Errorf("earlier rule should win")
	}
}
