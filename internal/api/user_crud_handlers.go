package api

import (
	"errors"
	"net/http"

	"hospital/internal/user"

	"github.com/gin-gonic/gin"
)

func accountJSON(u *user.AppUser) gin.H {
	return gin.H{
		"id":          u.ID,
		"username":    u.Username,
		"authorities": u.Authorities(),
		"createdAt":   u.CreatedAt,
	}
}

// GET /users  [admin only]
func ListUsersHandler(accounts *user.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		users, err := accounts.ListUsers(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{"message": "List error"}})
			return
		}
		result := make([]gin.H, 0, len(users))
		for i := range users {
			result = append(result, accountJSON(&users[i]))
		}
		c.JSON(http.StatusOK, result)
	}
}

type createUserRequest struct {
	Username        string      `json:"username"`
	Password        string      `json:"password"`
	ConfirmPassword string      `json:"confirmPassword"`
	Roles           []user.Role `json:"roles"`
}

// POST /users  [admin only]
func CreateUserHandler(accounts *user.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createUserRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": "Invalid request"}})
			return
		}
		var created *user.AppUser
		err := accounts.Transaction(c.Request.Context(), func(tx *user.Store) error {
			u, err := tx.AddNewUser(c.Request.Context(), req.Username, req.Password, req.ConfirmPassword)
			if err != nil {
				return err
			}
			for _, r := range req.Roles {
				if err := tx.AssignRole(c.Request.Context(), u.Username, r); err != nil {
					return err
				}
			}
			created, err = tx.FindByUsername(c.Request.Context(), u.Username)
			return err
		})
		switch {
		case err == nil:
			c.JSON(http.StatusCreated, accountJSON(created))
		case errors.Is(err, user.ErrUserExists):
			c.JSON(http.StatusConflict, gin.H{"error": gin.H{"message": "Username already taken"}})
		case errors.Is(err, user.ErrPasswordMismatch):
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": "Passwords do not match"}})
		case errors.Is(err, user.ErrInvalidInput):
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": "Missing username or password"}})
		case errors.Is(err, user.ErrRoleNotFound):
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": "Unknown role"}})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{"message": "Create error"}})
		}
	}
}

// POST /users/:username/roles  [admin only]
func AssignRoleHandler(accounts *user.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Role user.Role `json:"role"`
		}
		if err := c.ShouldBindJSON(&req); err != nil || req.Role == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": "Missing role"}})
			return
		}
		username := c.Param("username")
		err := accounts.AssignRole(c.Request.Context(), username, req.Role)
		switch {
		case errors.Is(err, user.ErrUserNotFound), errors.Is(err, user.ErrRoleNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": gin.H{"message": err.Error()}})
			return
		case err != nil:
			c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{"message": "Update error"}})
			return
		}
		u, err := accounts.FindByUsername(c.Request.Context(), username)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{"message": "Update error"}})
			return
		}
		c.JSON(http.StatusOK, accountJSON(u))
	}
}
