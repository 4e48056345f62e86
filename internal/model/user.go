package model

import "time"

type User struct {
	ID           int       `db:"id" json:"id"`
	FirstName    string    `db:"first_name" json:"first_name"`
	LastName     *string   `db:"last_name" json:"last_name"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password" json:"-"`
	PhoneNumber  *string   `db:"phone_number" json:"phone_number"`
	ProfilePhoto *string   `db:"profile_photo" json:"profile_photo"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	CreatedBy    *int      `db:"created_by" json:"created_by"`
}

// UserPatch nil 欄位表示保留原值
type UserPatch struct {
	FirstName    *string
	LastName     *string
	PhoneNumber  *string
	ProfilePhoto *string
}
