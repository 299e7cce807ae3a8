package user

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

type AppRole struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	RoleName  Role      `gorm:"uniqueIndex;size:32;not null" json:"roleName"`
	CreatedAt time.Time `json:"createdAt"`
}

type AppUser struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Username     string    `gorm:"uniqueIndex;size:32;not null" json:"username"`
	PasswordHash string    `gorm:"size:128;not null" json:"-"`
	Roles        []AppRole `gorm:"many2many:app_user_roles;" json:"roles"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (r *AppRole) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

func (u *AppUser) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// Authorities returns the role names held by u, one token per role.
func (u *AppUser) Authorities() []string {
	out := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		out = append(out, string(r.RoleName))
	}
	return out
}

func (u *AppUser) HasRole(name Role) bool {
	for _, r := range u.Roles {
		if r.RoleName == name {
			return true
		}
	}
	return false
}
