package api

import "strings"

// Optional 去除前後空白後為空字串時回傳 nil，用於部分更新
func Optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
