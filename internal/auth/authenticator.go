package auth

import (
	"context"
	"errors"

	"hospital/internal/user"
)

// ErrInvalidCredentials is returned for both unknown usernames and wrong
// passwords.
var ErrInvalidCredentials = errors.New("invalid username or password")

type AccountLookup interface {
	FindByUsername(ctx context.Context, username string) (*user.AppUser, error)
}

type Authenticator struct {
	accounts  AccountLookup
	dummyHash string
}

func NewAuthenticator(accounts AccountLookup) *Authenticator {
	// Compared against when the username is unknown so both failure paths
	// pay for one bcrypt comparison.
	hash, _ := user.HashPassword("not-a-real-password")
	return &Authenticator{accounts: accounts, dummyHash: hash}
}

func (a *Authenticator) Authenticate(ctx context.Context, username, password string) (*Principal, error) {
	u, err := a.accounts.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			_ = user.CheckPassword(a.dummyHash, password)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := user.CheckPassword(u.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}
	return &Principal{Username: u.Username, Authorities: u.Authorities()}, nil
}
