package store

import (
	"context"
	"fmt"
	"strings"

	"post-management/internal/database"
	"post-management/internal/model"
)

const postWithAuthorColumns = `p.id, p.title, p.text_description, p.thumbnail, p.created_by, p.created_at, p.updated_at,
	u.first_name, u.last_name, u.email`

const postColumns = `id, title, text_description, thumbnail, created_by, created_at, updated_at`

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// titleFilter 產生標題不分大小寫的子字串比對條件，search 內的萬用字元視為一般字元
func titleFilter(search string, args []any) (string, []any) {
	if search == "" {
		return "", args
	}
	args = append(args, "%"+likeEscaper.Replace(search)+"%")
	return fmt.Sprintf(" WHERE p.title ILIKE $%d", len(args)), args
}

func scanPostWithAuthor(row rowScanner) (*model.PostWithAuthor, error) {
	p := &model.PostWithAuthor{}
	if err := row.Scan(
		&p.ID,
		&p.Title,
		&p.TextDescription,
		&p.Thumbnail,
		&p.CreatedBy,
		&p.CreatedAt,
		&p.UpdatedAt,
		&p.FirstName,
		&p.LastName,
		&p.Email,
	); err != nil {
		return nil, notFound(err)
	}
	return p, nil
}

func scanPost(row rowScanner) (*model.Post, error) {
	p := &model.Post{}
	if err := row.Scan(
		&p.ID,
		&p.Title,
		&p.TextDescription,
		&p.Thumbnail,
		&p.CreatedBy,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, notFound(err)
	}
	return p, nil
}

// ListPosts 先計算符合條件的總數，再依建立時間新到舊取出一頁
func ListPosts(ctx context.Context, db database.DB, q model.PostQuery) (*model.PostPage, error) {
	where, args := titleFilter(q.Search, nil)

	page := &model.PostPage{Posts: []model.PostWithAuthor{}}
	if err := db.QueryRow(ctx,
		`SELECT COUNT(*) FROM posts p`+where,
		args...,
	).Scan(&page.Total); err != nil {
		return nil, fmt.Errorf("ListPosts: count: %w", err)
	}

	args = append(args, q.Limit, q.Offset())
	rows, err := db.Query(ctx,
		`SELECT `+postWithAuthorColumns+`
		 FROM posts p
		 JOIN users u ON u.id = p.created_by`+where+
			fmt.Sprintf(`
		 ORDER BY p.created_at DESC, p.id DESC
		 LIMIT $%d OFFSET $%d`, len(args)-1, len(args)),
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("ListPosts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		p, err := scanPostWithAuthor(rows)
		if err != nil {
			return nil, fmt.Errorf("ListPosts: scan: %w", err)
		}
		page.Posts = append(page.Posts, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListPosts: %w", err)
	}
	return page, nil
}

func GetPost(ctx context.Context, db database.DB, postID int) (*model.PostWithAuthor, error) {
	p, err := scanPostWithAuthor(db.QueryRow(ctx,
		`SELECT `+postWithAuthorColumns+`
		 FROM posts p
		 JOIN users u ON u.id = p.created_by
		 WHERE p.id = $1`,
		postID,
	))
	if err != nil {
		return nil, fmt.Errorf("GetPost: %w", err)
	}
	return p, nil
}

// GetPostOwner 回傳貼文作者 id，供更新與刪除前檢查權限
func GetPostOwner(ctx context.Context, db database.DB, postID int) (int, error) {
	var owner int
	if err := db.QueryRow(ctx,
		`SELECT created_by FROM posts WHERE id = $1`,
		postID,
	).Scan(&owner); err != nil {
		return 0, fmt.Errorf("GetPostOwner: %w", notFound(err))
	}
	return owner, nil
}

func CreatePost(ctx context.Context, db database.DB, p *model.Post) (*model.Post, error) {
	row := db.QueryRow(ctx,
		`INSERT INTO posts (title, text_description, thumbnail, created_by)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at, updated_at`,
		p.Title,
		p.TextDescription,
		p.Thumbnail,
		p.CreatedBy,
	)
	if err := row.Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, fmt.Errorf("CreatePost: %w", err)
	}
	return p, nil
}

// UpdatePost 只覆寫 patch 中非 nil 的欄位並刷新 updated_at；資料已被刪除時回傳 ErrNotFound
func UpdatePost(ctx context.Context, db database.DB, postID int, patch model.PostPatch) (*model.Post, error) {
	p, err := scanPost(db.QueryRow(ctx,
		`UPDATE posts
		 SET title = COALESCE($1, title),
		     text_description = COALESCE($2, text_description),
		     thumbnail = COALESCE($3, thumbnail),
		     updated_at = now()
		 WHERE id = $4
		 RETURNING `+postColumns,
		patch.Title,
		patch.Description,
		patch.Thumbnail,
		postID,
	))
	if err != nil {
		return nil, fmt.Errorf("UpdatePost: %w", err)
	}
	return p, nil
}

func DeletePost(ctx context.Context, db database.DB, postID int) error {
	tag, err := db.Exec(ctx,
		`DELETE FROM posts WHERE id = $1`,
		postID,
	)
	if err != nil {
		return fmt.Errorf("DeletePost: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("DeletePost: %w", ErrNotFound)
	}
	return nil
}
