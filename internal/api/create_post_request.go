package api

// CreatePostRequest multipart 欄位，thumbnail 檔案另行讀取
// swagger:model api.CreatePostRequest
type CreatePostRequest struct {
	Title       string `form:"title" validate:"required" example:"Hello"`
	Description string `form:"description" validate:"required" example:"First post"`
}
