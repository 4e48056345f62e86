package posts

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"post-management/internal/api"
	"post-management/internal/apperror"
	"post-management/internal/database"
	"post-management/internal/middleware"
	"post-management/internal/model"
	"post-management/internal/store"

	"github.com/labstack/echo/v4"
)

const (
	defaultPage  = 1
	defaultLimit = 10

	msgNotFound     = "Post not found"
	msgBadPaging    = "page and limit must be greater than 0"
	msgMissingField = "title and description are required"
)

var (
	listPosts    = store.ListPosts
	getPost      = store.GetPost
	getPostOwner = store.GetPostOwner
	createPost   = store.CreatePost
	updatePost   = store.UpdatePost
	deletePost   = store.DeletePost
)

// FileSaver *asset.Service 直接滿足
type FileSaver interface {
	SaveFile(ctx context.Context, fh *multipart.FileHeader) (string, error)
}

func parsePostID(c echo.Context) (int, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return 0, apperror.NewValidation("invalid post ID")
	}
	return id, nil
}

func positiveQuery(c echo.Context, name string, def int) (int, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, apperror.NewValidation(msgBadPaging)
	}
	return n, nil
}

func optionalFile(c echo.Context, field string) (*multipart.FileHeader, error) {
	fh, err := c.FormFile(field)
	switch {
	case err == nil:
		return fh, nil
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		return nil, nil
	default:
		return nil, apperror.NewValidation("invalid " + field)
	}
}

// requireOwner 先確認貼文存在，再確認呼叫者為作者
func requireOwner(ctx context.Context, db database.DB, postID int, who middleware.Identity) error {
	owner, err := getPostOwner(ctx, db, postID)
	if errors.Is(err, store.ErrNotFound) {
		return apperror.NewNotFound(msgNotFound)
	}
	if err != nil {
		return apperror.NewInternal(err)
	}
	if owner != who.ID {
		return apperror.NewForbidden()
	}
	return nil
}

// @Summary     List posts
// @Description 依建立時間新到舊分頁列出貼文，search 以不分大小寫的方式比對標題
// @Tags        posts
// @Produce     json
// @Param       page   query    int    false "頁碼，從 1 開始" default(1)
// @Param       limit  query    int    false "每頁筆數" default(10)
// @Param       search query    string false "標題關鍵字"
// @Success     200    {object} api.ListPostsResponse
// @Failure     400    {object} apperror.ErrorResponse
// @Failure     500    {object} apperror.ErrorResponse
// @Router      /posts [get]
func ListPostsHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		page, err := positiveQuery(c, "page", defaultPage)
		if err != nil {
			return err
		}
		limit, err := positiveQuery(c, "limit", defaultLimit)
		if err != nil {
			return err
		}
		q := model.PostQuery{Page: page, Limit: limit, Search: c.QueryParam("search")}

		result, err := listPosts(c.Request().Context(), db, q)
		if err != nil {
			return apperror.NewInternal(err)
		}

		data := make([]api.PostWithAuthorResponse, 0, len(result.Posts))
		for i := range result.Posts {
			data = append(data, api.NewPostWithAuthorResponse(&result.Posts[i]))
		}
		return c.JSON(http.StatusOK, api.ListPostsResponse{
			Data: data,
			Pagination: api.Pagination{
				Page:       page,
				Limit:      limit,
				Total:      result.Total,
				TotalPages: result.TotalPages(limit),
			},
		})
	}
}

// @Summary     Get a post
// @Description 取得單篇貼文與作者資訊
// @Tags        posts
// @Produce     json
// @Param       id  path     int true "貼文 ID"
// @Success     200 {object} api.PostWithAuthorResponse
// @Failure     400 {object} apperror.ErrorResponse
// @Failure     404 {object} apperror.ErrorResponse
// @Failure     500 {object} apperror.ErrorResponse
// @Router      /posts/{id} [get]
func GetPostHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := parsePostID(c)
		if err != nil {
			return err
		}
		p, err := getPost(c.Request().Context(), db, id)
		if errors.Is(err, store.ErrNotFound) {
			return apperror.NewNotFound(msgNotFound)
		}
		if err != nil {
			return apperror.NewInternal(err)
		}
		return c.JSON(http.StatusOK, api.NewPostWithAuthorResponse(p))
	}
}

// @Summary     Create a post
// @Description 建立貼文，作者為目前登入的使用者；thumbnail 為選填圖片
// @Tags        posts
// @Accept      multipart/form-data
// @Produce     json
// @Param       title       formData string true  "標題"
// @Param       description formData string true  "內文"
// @Param       thumbnail   formData file   false "縮圖 (jpeg, png, gif, webp，5MB 以內)"
// @Success     201 {object} api.PostResponse
// @Failure     400 {object} apperror.ErrorResponse
// @Failure     401 {object} apperror.ErrorResponse
// @Failure     500 {object} apperror.ErrorResponse
// @Security    ApiKeyAuth
// @Router      /posts [post]
func CreatePostHandler(db database.DB, files FileSaver) middleware.AuthedHandler {
	return func(c echo.Context, who middleware.Identity) error {
		var req api.CreatePostRequest
		if err := c.Bind(&req); err != nil {
			return apperror.NewValidation(msgMissingField)
		}
		req.Title = strings.TrimSpace(req.Title)
		req.Description = strings.TrimSpace(req.Description)
		if err := c.Validate(&req); err != nil {
			return apperror.NewValidation(msgMissingField)
		}

		ctx := c.Request().Context()
		post := &model.Post{
			Title:           req.Title,
			TextDescription: req.Description,
			CreatedBy:       who.ID,
		}

		fh, err := optionalFile(c, "thumbnail")
		if err != nil {
			return err
		}
		if fh != nil {
			ref, err := files.SaveFile(ctx, fh)
			if err != nil {
				return apperror.From(err)
			}
			post.Thumbnail = &ref
		}

		created, err := createPost(ctx, db, post)
		if err != nil {
			return apperror.NewInternal(err)
		}
		return c.JSON(http.StatusCreated, api.NewPostResponse(created))
	}
}

// @Summary     Update a post
// @Description 僅作者可更新；未提供的欄位保留原值，內文可用 description 或 text_description
// @Tags        posts
// @Accept      multipart/form-data
// @Produce     json
// @Param       id               path     int    true  "貼文 ID"
// @Param       title            formData string false "標題"
// @Param       description      formData string false "內文"
// @Param       text_description formData string false "內文 (舊欄位名稱)"
// @Param       thumbnail        formData file   false "縮圖"
// @Success     200 {object} api.PostResponse
// @Failure     400 {object} apperror.ErrorResponse
// @Failure     401 {object} apperror.ErrorResponse
// @Failure     403 {object} apperror.ErrorResponse
// @Failure     404 {object} apperror.ErrorResponse
// @Failure     500 {object} apperror.ErrorResponse
// @Security    ApiKeyAuth
// @Router      /posts/{id} [put]
func UpdatePostHandler(db database.DB, files FileSaver) middleware.AuthedHandler {
	return func(c echo.Context, who middleware.Identity) error {
		id, err := parsePostID(c)
		if err != nil {
			return err
		}
		ctx := c.Request().Context()
		if err := requireOwner(ctx, db, id, who); err != nil {
			return err
		}

		var req api.UpdatePostRequest
		if err := c.Bind(&req); err != nil {
			return apperror.NewValidation("invalid form data")
		}
		patch := model.PostPatch{
			Title:       api.Optional(req.Title),
			Description: api.Optional(req.Body()),
		}

		fh, err := optionalFile(c, "thumbnail")
		if err != nil {
			return err
		}
		if fh != nil {
			ref, err := files.SaveFile(ctx, fh)
			if err != nil {
				return apperror.From(err)
			}
			patch.Thumbnail = &ref
		}

		// 檢查權限後貼文仍可能被刪除，此時回 404
		updated, err := updatePost(ctx, db, id, patch)
		if errors.Is(err, store.ErrNotFound) {
			return apperror.NewNotFound(msgNotFound)
		}
		if err != nil {
			return apperror.NewInternal(err)
		}
		return c.JSON(http.StatusOK, api.NewPostResponse(updated))
	}
}

// @Summary     Delete a post
// @Description 僅作者可刪除
// @Tags        posts
// @Produce     json
// @Param       id  path     int true "貼文 ID"
// @Success     200 {object} api.MessageResponse
// @Failure     400 {object} apperror.ErrorResponse
// @Failure     401 {object} apperror.ErrorResponse
// @Failure     403 {object} apperror.ErrorResponse
// @Failure     404 {object} apperror.ErrorResponse
// @Failure     500 {object} apperror.ErrorResponse
// @Security    ApiKeyAuth
// @Router      /posts/{id} [delete]
func DeletePostHandler(db database.DB) middleware.AuthedHandler {
	return func(c echo.Context, who middleware.Identity) error {
		id, err := parsePostID(c)
		if err != nil {
			return err
		}
		ctx := c.Request().Context()
		if err := requireOwner(ctx, db, id, who); err != nil {
			return err
		}
		if err := deletePost(ctx, db, id); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return apperror.NewNotFound(msgNotFound)
			}
			return apperror.NewInternal(err)
		}
		return c.JSON(http.StatusOK, api.MessageResponse{Message: "Post deleted successfully"})
	}
}
