package api

// swagger:model api.Pagination
type Pagination struct {
	Page       int `json:"page" example:"1"`
	Limit      int `json:"limit" example:"10"`
	Total      int `json:"total" example:"42"`
	TotalPages int `json:"totalPages" example:"5"`
}

// swagger:model api.ListPostsResponse
type ListPostsResponse struct {
	Data       []PostWithAuthorResponse `json:"data"`
	Pagination Pagination               `json:"pagination"`
}
