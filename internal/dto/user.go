package dto

import (
	"time"

	"github.com/projectpulse/tracker/internal/models"
)

// UserDTO represents a user in API responses
type UserDTO struct {
	ID         uint64          `json:"id"`
	Name       string          `json:"name"`
	Email      string          `json:"email"`
	Role       models.UserRole `json:"role"`
	Department string          `json:"department,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:         user.ID,
		Name:       user.Name,
		Email:      user.Email,
		Role:       user.Role,
		Department: user.Department,
		CreatedAt:  user.CreatedAt,
	}
}

// AuthResponse carries a session token together with the user it identifies
type AuthResponse struct {
	Token string  `json:"token"`
	User  UserDTO `json:"user"`
}
