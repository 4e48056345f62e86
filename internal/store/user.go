package store

import (
	"context"
	"fmt"

	"post-management/internal/database"
	"post-management/internal/model"
)

const userColumns = `id, first_name, last_name, email, password, phone_number, profile_photo, created_at, created_by`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*model.User, error) {
	u := &model.User{}
	if err := row.Scan(
		&u.ID,
		&u.FirstName,
		&u.LastName,
		&u.Email,
		&u.PasswordHash,
		&u.PhoneNumber,
		&u.ProfilePhoto,
		&u.CreatedAt,
		&u.CreatedBy,
	); err != nil {
		return nil, notFound(err)
	}
	return u, nil
}

func GetUserByID(ctx context.Context, db database.DB, userID int) (*model.User, error) {
	u, err := scanUser(db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`,
		userID,
	))
	if err != nil {
		return nil, fmt.Errorf("GetUserByID: %w", err)
	}
	return u, nil
}

// GetUserByEmail email 需先轉為小寫
func GetUserByEmail(ctx context.Context, db database.DB, email string) (*model.User, error) {
	u, err := scanUser(db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`,
		email,
	))
	if err != nil {
		return nil, fmt.Errorf("GetUserByEmail: %w", err)
	}
	return u, nil
}

func EmailExists(ctx context.Context, db database.DB, email string) (bool, error) {
	var exists bool
	if err := db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`,
		email,
	).Scan(&exists); err != nil {
		return false, fmt.Errorf("EmailExists: %w", err)
	}
	return exists, nil
}

// CreateUser 寫入新使用者並回填 id 與 created_at；email 重複時回傳 ErrDuplicateEmail
func CreateUser(ctx context.Context, db database.DB, u *model.User) (*model.User, error) {
	row := db.QueryRow(ctx,
		`INSERT INTO users (first_name, last_name, email, password, phone_number, profile_photo)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at`,
		u.FirstName,
		u.LastName,
		u.Email,
		u.PasswordHash,
		u.PhoneNumber,
		u.ProfilePhoto,
	)
	if err := row.Scan(&u.ID, &u.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("CreateUser: %w", ErrDuplicateEmail)
		}
		return nil, fmt.Errorf("CreateUser: %w", err)
	}
	return u, nil
}

// UpdateUser 僅更新 patch 中非 nil 的欄位
func UpdateUser(ctx context.Context, db database.DB, userID int, p model.UserPatch) (*model.User, error) {
	u, err := scanUser(db.QueryRow(ctx,
		`UPDATE users
		 SET first_name = COALESCE($1, first_name),
		     last_name = COALESCE($2, last_name),
		     phone_number = COALESCE($3, phone_number),
		     profile_photo = COALESCE($4, profile_photo)
		 WHERE id = $5
		 RETURNING `+userColumns,
		p.FirstName,
		p.LastName,
		p.PhoneNumber,
		p.ProfilePhoto,
		userID,
	))
	if err != nil {
		return nil, fmt.Errorf("UpdateUser: %w", err)
	}
	return u, nil
}
