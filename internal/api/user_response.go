package api

import (
	"time"

	"post-management/internal/model"
)

// swagger:model api.UserResponse
type UserResponse struct {
	ID           int       `json:"id" example:"1"`
	FirstName    string    `json:"first_name" example:"Alice"`
	LastName     *string   `json:"last_name" example:"Smith"`
	Email        string    `json:"email" example:"alice@example.com"`
	PhoneNumber  *string   `json:"phone_number"`
	ProfilePhoto *string   `json:"profile_photo" example:"/uploads/1700000000000-4f1c2a9e-me.png"`
	CreatedAt    time.Time `json:"created_at"`
}

func NewUserResponse(u *model.User) UserResponse {
	return UserResponse{
		ID:           u.ID,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Email:        u.Email,
		PhoneNumber:  u.PhoneNumber,
		ProfilePhoto: u.ProfilePhoto,
		CreatedAt:    u.CreatedAt,
	}
}
