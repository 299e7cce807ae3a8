package user

import (
	"context"
	"errors"
	"fmt"
)

type SeedAccount struct {
	Username string
	Password string
	Role     Role
}

type SeedOptions struct {
	Accounts []SeedAccount
}

// DefaultSeedOptions returns the two baseline accounts: user1 holding USER
// and admin holding ADMIN.
func DefaultSeedOptions(userPassword, adminPassword string) SeedOptions {
	return SeedOptions{Accounts: []SeedAccount{
		{Username: "user1", Password: userPassword, Role: RoleUser},
		{Username: "admin", Password: adminPassword, Role: RoleAdmin},
	}}
}

// SeedReport lists what a seeding run actually created.
type SeedReport struct {
	RolesCreated []Role
	UsersCreated []string
}

func (r SeedReport) Empty() bool {
	return len(r.RolesCreated) == 0 && len(r.UsersCreated) == 0
}

// Seed creates the USER and ADMIN roles and the seed accounts inside one
// transaction. Every step checks for existing rows first, so re-running
// after a restart or an interrupted run converges to the same state without
// duplicates. Existing passwords are left untouched.
func Seed(ctx context.Context, s *Store, opts SeedOptions) (SeedReport, error) {
	var report SeedReport
	err := s.Transaction(ctx, func(tx *Store) error {
		report = SeedReport{}
		for _, role := range []Role{RoleUser, RoleAdmin} {
			created, err := ensureRole(ctx, tx, role)
			if err != nil {
				return err
			}
			if created {
				report.RolesCreated = append(report.RolesCreated, role)
			}
		}
		for _, acc := range opts.Accounts {
			created, err := ensureUser(ctx, tx, acc.Username, acc.Password)
			if err != nil {
				return err
			}
			if created {
				report.UsersCreated = append(report.UsersCreated, acc.Username)
			}
			if _, err := ensureRole(ctx, tx, acc.Role); err != nil {
				return err
			}
			if err := tx.AssignRole(ctx, acc.Username, acc.Role); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return SeedReport{}, fmt.Errorf("seed accounts: %w", err)
	}
	return report, nil
}

func ensureRole(ctx context.Context, s *Store, role Role) (bool, error) {
	_, err := s.FindRoleByName(ctx, role)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, ErrRoleNotFound) {
		return false, err
	}
	if _, err := s.CreateRole(ctx, role); err != nil {
		return false, err
	}
	return true, nil
}

func ensureUser(ctx context.Context, s *Store, username, password string) (bool, error) {
	_, err := s.FindByUsername(ctx, username)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return false, err
	}
	if _, err := s.AddNewUser(ctx, username, password, password); err != nil {
		return false, err
	}
	return true, nil
}
