package dto

import (
	"time"

	"vlanman/internal/entity"
)

type LoginRequest struct {
	NIM   string `json:"nim" validate:"required,max=50"`
	Name  string `json:"name" validate:"required,max=100"`
	Email string `json:"email" validate:"required,email"`
}

type LoginResponse struct {
	AccessToken string       `json:"access_token"`
	ExpiresIn   int64        `json:"expires_in"`
	User        UserResponse `json:"user"`
}

type UserResponse struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	NIM        string    `json:"nim"`
	Email      string    `json:"email"`
	Role       string    `json:"role"`
	TotalVlans int64     `json:"total_vlans"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func UserResponseFromEntity(user *entity.User, totalVlans int64) UserResponse {
	return UserResponse{
		ID:         user.ID.String(),
		Name:       user.Name,
		NIM:        user.NIM,
		Email:      user.Email,
		Role:       string(user.Role),
		TotalVlans: totalVlans,
		CreatedAt:  user.CreatedAt,
		UpdatedAt:  user.UpdatedAt,
	}
}
