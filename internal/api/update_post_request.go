package api

// UpdatePostRequest 內文可用 description 或 text_description 傳入，空字串視為未提供
// swagger:model api.UpdatePostRequest
type UpdatePostRequest struct {
	Title           string `form:"title" example:"Hello again"`
	Description     string `form:"description"`
	TextDescription string `form:"text_description"`
}

// Body 回傳實際要更新的內文，description 優先
func (r UpdatePostRequest) Body() string {
	if r.Description != "" {
		return r.Description
	}
	return r.TextDescription
}
