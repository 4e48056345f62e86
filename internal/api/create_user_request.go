package api

// CreateUserRequest 註冊請求，profile_photo 為 base64 字串，可帶 data URL 前綴
// swagger:model api.CreateUserRequest
type CreateUserRequest struct {
	FirstName        string `json:"firstName" validate:"required" example:"Alice"`
	LastName         string `json:"lastName" example:"Smith"`
	Email            string `json:"email" validate:"required,email" example:"alice@example.com"`
	Password         string `json:"password" validate:"required" example:"Secret123!"`
	Phone            string `json:"phone" example:"+15550100"`
	ProfilePhoto     string `json:"profile_photo"`
	ProfilePhotoName string `json:"profile_photo_name" example:"me.png"`
	ProfilePhotoType string `json:"profile_photo_type" example:"image/png"`
}
