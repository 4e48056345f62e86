package users

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
	"post-management/internal/service"
	"post-management/internal/store"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

var (
	hashPassword    = service.HashPassword
	comparePassword = service.ComparePassword
	emailExists     = store.EmailExists
	createUser      = store.CreateUser
	getUserByID     = store.GetUserByID
	getUserByEmail  = store.GetUserByEmail
	updateUser      = store.UpdateUser
)

// AssetSaver *asset.Service 直接滿足
type AssetSaver interface {
	SaveFile(ctx context.Context, fh *multipart.FileHeader) (string, error)
	SaveBase64(ctx context.Context, name, contentType, encoded string) (string, error)
}

// TokenIssuer *service.TokenManager 直接滿足
type TokenIssuer interface {
	IssueAccessToken(user model.User) (string, error)
}

// failedOn 判斷驗證錯誤是否來自指定欄位的指定規則
func failedOn(err error, field, tag string) bool {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return false
	}
	for _, fe := range verrs {
		if fe.Field() == field && fe.Tag() == tag {
			return true
		}
	}
	return false
}

func parseUserID(c echo.Context) (int, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return 0, apperror.NewValidation("invalid user ID")
	}
	return id, nil
}

// @Summary     Register a new user
// @Description 建立新帳號 (Email 會自動轉小寫)；profile_photo 可傳 base64 圖片
// @Tags        users
// @Accept      json
// @Produce     json
// @Param       body body     api.CreateUserRequest true "註冊資料"
// @Success     201  {object} api.UserResponse
// @Failure     400  {object} apperror.ErrorResponse
// @Failure     429  {object} apperror.ErrorResponse
// @Failure     500  {object} apperror.ErrorResponse
// @Router      /users [post]
func RegisterHandler(db database.DB, assets AssetSaver) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req api.CreateUserRequest
		if err := c.Bind(&req); err != nil {
			return apperror.NewValidation("invalid request body")
		}
		req.FirstName = strings.TrimSpace(req.FirstName)
		req.Email = strings.ToLower(strings.TrimSpace(req.Email))
		if err := c.Validate(&req); err != nil {
			if failedOn(err, "Email", "email") {
				return apperror.NewValidation("invalid email format")
			}
			return apperror.NewValidation("firstName, email, and password are required")
		}

		ctx := c.Request().Context()
		exists, err := emailExists(ctx, db, req.Email)
		if err != nil {
			return apperror.NewInternal(err)
		}
		if exists {
			return apperror.NewConflict("Email already exists")
		}

		hash, err := hashPassword(req.Password)
		if err != nil {
			return apperror.NewInternal(err)
		}

		var photo *string
		if req.ProfilePhoto != "" {
			ref, err := assets.SaveBase64(ctx, req.ProfilePhotoName, req.ProfilePhotoType, req.ProfilePhoto)
			if err != nil {
				return apperror.From(err)
			}
			photo = &ref
		}

		user, err := createUser(ctx, db, &model.User{
			FirstName:    req.FirstName,
			LastName:     api.Optional(req.LastName),
			Email:        req.Email,
			PasswordHash: hash,
			PhoneNumber:  api.Optional(req.Phone),
			ProfilePhoto: photo,
		})
		if errors.Is(err, store.ErrDuplicateEmail) {
			return apperror.NewConflict("Email already exists")
		}
		if err != nil {
			return apperror.NewInternal(err)
		}

		return c.JSON(http.StatusCreated, api.NewUserResponse(user))
	}
}

// @Summary     Log in
// @Description 驗證 email 與密碼，成功回傳 JWT
// @Tags        users
// @Accept      json
// @Produce     json
// @Param       body body     api.LoginRequest true "登入資料"
// @Success     200  {object} api.LoginResponse
// @Failure     400  {object} apperror.ErrorResponse
// @Failure     401  {object} apperror.ErrorResponse
// @Failure     429  {object} apperror.ErrorResponse
// @Failure     500  {object} apperror.ErrorResponse
// @Router      /users/login [post]
func LoginHandler(db database.DB, tokens TokenIssuer) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req api.LoginRequest
		if err := c.Bind(&req); err != nil {
			return apperror.NewValidation("invalid request body")
		}
		req.Email = strings.ToLower(strings.TrimSpace(req.Email))
		if err := c.Validate(&req); err != nil {
			return apperror.NewValidation("email and password are required")
		}

		user, err := getUserByEmail(c.Request().Context(), db, req.Email)
		if errors.Is(err, store.ErrNotFound) {
			return apperror.NewUnauthorized("Invalid credentials")
		}
		if err != nil {
			return apperror.NewInternal(err)
		}
		if err := comparePassword(user.PasswordHash, req.Password); err != nil {
			return apperror.NewUnauthorized("Invalid credentials")
		}

		token, err := tokens.IssueAccessToken(*user)
		if err != nil {
			return apperror.NewInternal(err)
		}
		return c.JSON(http.StatusOK, api.LoginResponse{Token: token, UserID: user.ID})
	}
}

// @Summary     Get a user by ID
// @Description 透過 ID 查詢使用者公開資料
// @Tags        users
// @Produce     json
// @Param       id  path     int true "使用者 ID"
// @Success     200 {object} api.UserResponse
// @Failure     400 {object} apperror.ErrorResponse
// @Failure     404 {object} apperror.ErrorResponse
// @Failure     500 {object} apperror.ErrorResponse
// @Router      /users/{id} [get]
func GetUserHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := parseUserID(c)
		if err != nil {
			return err
		}
		user, err := getUserByID(c.Request().Context(), db, id)
		if errors.Is(err, store.ErrNotFound) {
			return apperror.NewNotFound("User not found")
		}
		if err != nil {
			return apperror.NewInternal(err)
		}
		return c.JSON(http.StatusOK, api.NewUserResponse(user))
	}
}

// @Summary     Update own profile
// @Description 僅能更新自己的資料；未提供的欄位保留原值
// @Tags        users
// @Accept      multipart/form-data
// @Produce     json
// @Param       id            path     int    true  "使用者 ID"
// @Param       first_name    formData string false "名"
// @Param       last_name     formData string false "姓"
// @Param       phone_number  formData string false "電話"
// @Param       profile_photo formData file   false "大頭照 (jpeg, png, gif, webp，5MB 以內)"
// @Success     200 {object} api.UserResponse
// @Failure     400 {object} apperror.ErrorResponse
// @Failure     401 {object} apperror.ErrorResponse
// @Failure     403 {object} apperror.ErrorResponse
// @Failure     404 {object} apperror.ErrorResponse
// @Failure     500 {object} apperror.ErrorResponse
// @Security    ApiKeyAuth
// @Router      /users/{id} [put]
func UpdateUserHandler(db database.DB, assets AssetSaver) middleware.AuthedHandler {
	return func(c echo.Context, who middleware.Identity) error {
		id, err := parseUserID(c)
		if err != nil {
			return err
		}
		if id != who.ID {
			return apperror.NewForbidden()
		}

		var req api.UpdateUserRequest
		if err := c.Bind(&req); err != nil {
			return apperror.NewValidation("invalid form data")
		}

		ctx := c.Request().Context()
		if _, err := getUserByID(ctx, db, id); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return apperror.NewNotFound("User not found")
			}
			return apperror.NewInternal(err)
		}

		patch := model.UserPatch{
			FirstName:   api.Optional(req.FirstName),
			LastName:    api.Optional(req.LastName),
			PhoneNumber: api.Optional(req.PhoneNumber),
		}
		fh, err := optionalFile(c, "profile_photo")
		if err != nil {
			return err
		}
		if fh != nil {
			ref, err := assets.SaveFile(ctx, fh)
			if err != nil {
				return apperror.From(err)
			}
			patch.ProfilePhoto = &ref
		}

		user, err := updateUser(ctx, db, id, patch)
		if errors.Is(err, store.ErrNotFound) {
			return apperror.NewNotFound("User not found")
		}
		if err != nil {
			return apperror.NewInternal(err)
		}
		return c.JSON(http.StatusOK, api.NewUserResponse(user))
	}
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
