package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"hospital/internal/auth"
	"hospital/internal/config"
	"hospital/internal/db"
	"hospital/internal/patient"
	"hospital/internal/user"
)

func writeTestConfig(t *testing.T) string {
	t.Helper()
	config.ResetConfigForTest()
	t.Cleanup(config.ResetConfigForTest)
	dir := t.TempDir()
	raw := fmt.Sprintf(`{
		"server": {"jwtSecret": "secret"},
		"database": {"driver": "sqlite", "dsn": %q},
		"session": {"store": "memory"},
		"log": {"level": "warn"}
	}`, filepath.Join(dir, "hospital.db"))
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(raw), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func run(t *testing.T, args ...string) error {
	t.Helper()
	cmd := rootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	return cmd.ExecuteContext(context.Background())
}

func TestSeedAccountsCommand_Idempotent(t *testing.T) {
	path := writeTestConfig(t)
	for i := 0; i < 2; i++ {
		if err := run(t, "--config", path, "seed", "accounts"); err != nil {
			t.Fatalf("seed accounts run %d: %v", i+1, err)
		}
	}
	users, err := user.NewStore(db.DB).ListUsers(context.Background())
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("expected exactly 2 seeded accounts, got %d", len(users))
	}
	var admins int
	for _, u := range users {
		if u.HasRole(user.RoleAdmin) {
			admins++
		}
	}
	if admins != 1 {
		t.Errorf("expected one ADMIN account, got %d", admins)
	}
}

func TestUseraddCommand(t *testing.T) {
	path := writeTestConfig(t)
	if err := run(t, "--config", path, "seed", "accounts"); err != nil {
		t.Fatalf("seed accounts: %v", err)
	}
	if err := run(t, "--config", path, "useradd", "nurse", "--password", "pw", "--role", "USER", "--role", "ADMIN"); err != nil {
		t.Fatalf("useradd: %v", err)
	}
	u, err := user.NewStore(db.DB).FindByUsername(context.Background(), "nurse")
	if err != nil {
		t.Fatalf("FindByUsername: %v", err)
	}
	if !u.HasRole(user.RoleUser) || !u.HasRole(user.RoleAdmin) {
		t.Errorf("expected USER and ADMIN, got %v", u.Authorities())
	}
	if err := user.CheckPassword(u.PasswordHash, "pw"); err != nil {
		t.Errorf("password not stored correctly: %v", err)
	}

	if err := run(t, "--config", path, "useradd", "nurse", "--password", "pw"); err == nil {
		t.Errorf("expected duplicate useradd to fail")
	}
	if err := run(t, "--config", path, "useradd", "orphan"); err == nil {
		t.Errorf("expected useradd without --password to fail")
	}
}

func TestSeedPatientsCommand(t *testing.T) {
	path := writeTestConfig(t)
	if err := run(t, "--config", path, "seed", "patients"); err != nil {
		t.Fatalf("seed patients: %v", err)
	}
	n, err := patient.NewStore(db.DB, patient.DefaultRules()).Count(context.Background())
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 3 {
		t.Errorf("expected 3 demo patients, got %d", n)
	}
}

func TestMigrateCommand_BadConfig(t *testing.T) {
	config.ResetConfigForTest()
	t.Cleanup(config.ResetConfigForTest)
	if err := run(t, "--config", filepath.Join(t.TempDir(), "missing.json"), "migrate"); err == nil {
		t.Errorf("expected error for missing config file")
	}
}

func TestNewSessionStore_Memory(t *testing.T) {
	cfg := config.Default()
	cfg.Session.Store = "memory"
	store, err := newSessionStore(context.Background(), cfg)
	if err != nil {
		t.Fatalf("newSessionStore: %v", err)
	}
	if _, ok := store.(*auth.MemorySessionStore); !ok {
		t.Errorf("expected memory session store, got %T", store)
	}
}
