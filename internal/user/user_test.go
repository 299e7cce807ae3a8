package user

import (
	"testing"
)

func TestPasswordHashing(t *testing.T) {
	pw := "supersecret"
	hash, err := HashPassword(pw)
	if err != nil {
		t.Fatalf("hash error: %v", err)
	}
	if hash == pw {
		t.Fatalf("password stored in plaintext")
	}
	if err := CheckPassword(hash, pw); err != nil {
		t.Errorf("check should succeed: %v", err)
	}
	if err := CheckPassword(hash, "wrongpw"); err == nil {
		t.Errorf("expected failure for wrong password")
	}
}

func TestPasswordHashing_Salted(t *testing.T) {
	a, _ := HashPassword("same")
	b, _ := HashPassword("same")
	if a == b {
		t.Errorf("two hashes of the same password should differ")
	}
}

func TestAuthorities(t *testing.T) {
	u := AppUser{Roles: []AppRole{{RoleName: RoleUser}, {RoleName: RoleAdmin}}}
	got := u.Authorities()
	if len(got) != 2 || got[0] != "USER" || got[1] != "ADMIN" {
		t.Errorf("unexpected authorities %v", got)
	}
	if !u.HasRole(RoleAdmin) || (&AppUser{}).HasRole(RoleAdmin) {
		t.Errorf("HasRole mismatch")
	}
}
