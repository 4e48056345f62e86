package api

// swagger:model api.LoginResponse
type LoginResponse struct {
	Token  string `json:"token" example:"eyJhbGciOiJIUzI1NiIs..."`
	UserID int    `json:"userId" example:"1"`
}
