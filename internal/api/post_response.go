package api

import (
	"time"

	"post-management/internal/model"
)

// swagger:model api.PostResponse
type PostResponse struct {
	ID              int       `json:"id" example:"1"`
	Title           string    `json:"title" example:"Hello"`
	TextDescription string    `json:"text_description" example:"First post"`
	Thumbnail       *string   `json:"thumbnail"`
	CreatedBy       int       `json:"created_by" example:"1"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// swagger:model api.PostWithAuthorResponse
type PostWithAuthorResponse struct {
	PostResponse
	FirstName string  `json:"first_name" example:"Alice"`
	LastName  *string `json:"last_name"`
	Email     string  `json:"email" example:"alice@example.com"`
}

func NewPostResponse(p *model.Post) PostResponse {
	return PostResponse{
		ID:              p.ID,
		Title:           p.Title,
		TextDescription: p.TextDescription,
		Thumbnail:       p.Thumbnail,
		CreatedBy:       p.CreatedBy,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

func NewPostWithAuthorResponse(p *model.PostWithAuthor) PostWithAuthorResponse {
	return PostWithAuthorResponse{
		PostResponse: NewPostResponse(&p.Post),
		FirstName:    p.FirstName,
		LastName:     p.LastName,
		Email:        p.Email,
	}
}
