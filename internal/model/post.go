package model

import (
	"math"
	"time"
)

type Post struct {
	ID              int       `db:"id" json:"id"`
	Title           string    `db:"title" json:"title"`
	TextDescription string    `db:"text_description" json:"text_description"`
	Thumbnail       *string   `db:"thumbnail" json:"thumbnail"`
	CreatedBy       int       `db:"created_by" json:"created_by"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// PostWithAuthor 列表與單筆查詢時附帶作者資訊
type PostWithAuthor struct {
	Post
	FirstName string  `db:"first_name" json:"first_name"`
	LastName  *string `db:"last_name" json:"last_name"`
	Email     string  `db:"email" json:"email"`
}

// PostPatch 僅標題、內文與縮圖可更新，nil 表示保留原值
type PostPatch struct {
	Title       *string
	Description *string
	Thumbnail   *string
}

// PostQuery 列表查詢條件，Page 與 Limit 皆從 1 起算
type PostQuery struct {
	Page   int
	Limit  int
	Search string
}

// Offset 溢位時回傳 math.MaxInt，查詢結果為空頁
func (q PostQuery) Offset() int {
	if q.Page <= 1 || q.Limit <= 0 {
		return 0
	}
	if q.Page-1 > math.MaxInt/q.Limit {
		return math.MaxInt
	}
	return (q.Page - 1) * q.Limit
}

// PostPage 一頁的查詢結果與符合條件的總筆數
type PostPage struct {
	Posts []PostWithAuthor
	Total int
}

// TotalPages 以無條件進位計算總頁數
func (p PostPage) TotalPages(limit int) int {
	if limit <= 0 {
		return 0
	}
	pages := p.Total / limit
	if p.Total%limit != 0 {
		pages++
	}
	return pages
}
