package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrRoleNotFound     = errors.New("role not found")
	ErrUserExists       = errors.New("user already exists")
	ErrRoleExists       = errors.New("role already exists")
	ErrPasswordMismatch = errors.New("passwords do not match")
	ErrInvalidInput     = errors.New("username and password required")
)

// Store persists accounts and roles. Users are always loaded with their roles.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Transaction runs fn against a store bound to a single database transaction.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

func (s *Store) FindByUsername(ctx context.Context, username string) (*AppUser, error) {
	var u AppUser
	err := s.db.WithContext(ctx).Preload("Roles").Where("username = ?", username).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user %q: %w", username, err)
	}
	return &u, nil
}

func (s *Store) FindRoleByName(ctx context.Context, roleName Role) (*AppRole, error) {
	var r AppRole
	err := s.db.WithContext(ctx).Where("role_name = ?", roleName).First(&r).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoleNotFound
		}
		return nil, fmt.Errorf("get role %q: %w", roleName, err)
	}
	return &r, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]AppUser, error) {
	users := []AppUser{}
	if err := s.db.WithContext(ctx).Preload("Roles").Order("username").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (s *Store) CreateUser(ctx context.Context, username, passwordHash string) (*AppUser, error) {
	username = strings.TrimSpace(username)
	if username == "" || passwordHash == "" {
		return nil, ErrInvalidInput
	}
	if _, err := s.FindByUsername(ctx, username); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrUserExists, username)
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}
	u := &AppUser{Username: username, PasswordHash: passwordHash, Roles: []AppRole{}}
	if err := s.db.WithContext(ctx).Create(u).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: %s", ErrUserExists, username)
		}
		return nil, fmt.Errorf("create user %q: %w", username, err)
	}
	return u, nil
}

// AddNewUser hashes password after checking it against its confirmation.
func (s *Store) AddNewUser(ctx context.Context, username, password, confirmPassword string) (*AppUser, error) {
	if password == "" {
		return nil, ErrInvalidInput
	}
	if password != confirmPassword {
		return nil, ErrPasswordMismatch
	}
	hash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return s.CreateUser(ctx, username, hash)
}

func (s *Store) CreateRole(ctx context.Context, roleName Role) (*AppRole, error) {
	if strings.TrimSpace(string(roleName)) == "" {
		return nil, ErrInvalidInput
	}
	if _, err := s.FindRoleByName(ctx, roleName); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrRoleExists, roleName)
	} else if !errors.Is(err, ErrRoleNotFound) {
		return nil, err
	}
	r := &AppRole{RoleName: roleName}
	if err := s.db.WithContext(ctx).Create(r).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: %s", ErrRoleExists, roleName)
		}
		return nil, fmt.Errorf("create role %q: %w", roleName, err)
	}
	return r, nil
}

// AssignRole grants roleName to username. Granting a role the user already
// holds is a no-op.
func (s *Store) AssignRole(ctx context.Context, username string, roleName Role) error {
	u, err := s.FindByUsername(ctx, username)
	if err != nil {
		return err
	}
	r, err := s.FindRoleByName(ctx, roleName)
	if err != nil {
		return err
	}
	if u.HasRole(roleName) {
		return nil
	}
	if err := s.db.WithContext(ctx).Model(u).Association("Roles").Append(r); err != nil {
		return fmt.Errorf("assign role %q to %q: %w", roleName, username, err)
	}
	return nil
}
