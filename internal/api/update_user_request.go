package api

// UpdateUserRequest multipart 欄位，空字串視為未提供；profile_photo 檔案另行讀取
// swagger:model api.UpdateUserRequest
type UpdateUserRequest struct {
	FirstName   string `form:"first_name" example:"Alice"`
	LastName    string `form:"last_name" example:"Smith"`
	PhoneNumber string `form:"phone_number" example:"+15550100"`
}
