package users

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"post-management/internal/apperror"
	"post-management/internal/asset"
	"post-management/internal/database"
	"post-management/internal/middleware"
	"post-management/internal/model"
	"post-management/internal/service"
	"post-management/internal/store"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

type testValidator struct{ v *validator.Validate }

func (tv *testValidator) Validate(i interface{}) error { return tv.v.Struct(i) }

type stubAssets struct {
	fileRef   string
	base64Ref string
	err       error
	calls     int
}

func (s *stubAssets) SaveFile(context.Context, *multipart.FileHeader) (string, error) {
	s.calls++
	return s.fileRef, s.err
}

func (s *stubAssets) SaveBase64(context.Context, string, string, string) (string, error) {
	s.calls++
	return s.base64Ref, s.err
}

type stubTokens struct {
	token string
	err   error
}

func (s stubTokens) IssueAccessToken(model.User) (string, error) { return s.token, s.err }

func restore() {
	hashPassword = service.HashPassword
	comparePassword = service.ComparePassword
	emailExists = store.EmailExists
	createUser = store.CreateUser
	getUserByID = store.GetUserByID
	getUserByEmail = store.GetUserByEmail
	updateUser = store.UpdateUser
}

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = &testValidator{v: validator.New()}
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	e.HTTPErrorHandler = apperror.Handler(logger)
	return e
}

// run 執行 handler，回傳錯誤時交給 HTTPErrorHandler 產生回應
func run(e *echo.Echo, c echo.Context, h echo.HandlerFunc) {
	if err := h(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
}

func newJSONCtx(e *echo.Echo, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodPost, "/api/users", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func newParamCtx(e *echo.Echo, method, id string, body io.Reader, contentType string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, "/api/users/"+id, body)
	if contentType != "" {
		req.Header.Set(echo.HeaderContentType, contentType)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/api/users/:id")
	c.SetParamNames("id")
	c.SetParamValues(id)
	return c, rec
}

func multipartBody(t *testing.T, fields map[string]string, fileField, fileName, fileType string) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if fileField != "" {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, fileField, fileName))
		h.Set("Content-Type", fileType)
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write([]byte("img"))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func sampleUser(now time.Time) *model.User {
	return &model.User{ID: 1, FirstName: "Alice", Email: "alice@example.com", PasswordHash: "h", CreatedAt: now}
}

const registerBody = `{"firstName":"Alice","email":"Alice@Example.com","password":"secret"}`

func TestRegisterHandler(t *testing.T) {
	e := newEcho()

	t.Run("bind error", func(t *testing.T) {
		t.Cleanup(restore)
		ctx, rec := newJSONCtx(e, "{")
		run(e, ctx, RegisterHandler(nil, &stubAssets{}))
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing fields", func(t *testing.T) {
		t.Cleanup(restore)
		ctx, rec := newJSONCtx(e, `{"firstName":"Alice","email":"a@b.com"}`)
		run(e, ctx, RegisterHandler(nil, &stubAssets{}))
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.JSONEq(t, `{"error":"firstName, email, and password are required"}`, rec.Body.String())
	})

	t.Run("bad email", func(t *testing.T) {
		t.Cleanup(restore)
		ctx, rec := newJSONCtx(e, `{"firstName":"Alice","email":"nope","password":"p"}`)
		run(e, ctx, RegisterHandler(nil, &stubAssets{}))
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Contains(t, rec.Body.String(), "invalid email format")
	})

	t.Run("display-name email rejected", func(t *testing.T) {
		t.Cleanup(restore)
		emailExists = func(context.Context, database.DB, string) (bool, error) {
			t.Fatal("store must not be called")
			return false, nil
		}
		createUser = func(context.Context, database.DB, *model.User) (*model.User, error) {
			t.Fatal("user must not be created")
			return nil, nil
		}
		ctx, rec := newJSONCtx(e, `{"firstName":"Bob","email":"Bob <bob@x.com>","password":"p"}`)
		run(e, ctx, RegisterHandler(nil, &stubAssets{}))
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.JSONEq(t, `{"error":"invalid email format"}`, rec.Body.String())
	})

	t.Run("duplicate email", func(t *testing.T) {
		t.Cleanup(restore)
		var checked string
		emailExists = func(_ context.Context, _ database.DB, email string) (bool, error) {
			checked = email
			return true, nil
		}
		ctx, rec := newJSONCtx(e, registerBody)
		run(e, ctx, RegisterHandler(nil, &stubAssets{}))
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.JSONEq(t, `{"error":"Email already exists"}`, rec.Body.String())
		require.Equal(t, "alice@example.com", checked)
	})

	t.Run("duplicate email race", func(t *testing.T) {
		t.Cleanup(restore)
		emailExists = func(context.Context, database.DB, string) (bool, error) { return false, nil }
		hashPassword = func(string) (string, error) { return "h", nil }
		createUser = func(context.Context, database.DB, *model.User) (*model.User, error) {
			return nil, fmt.Errorf("CreateUser: %w", store.ErrDuplicateEmail)
		}
		ctx, rec := newJSONCtx(e, registerBody)
		run(e, ctx, RegisterHandler(nil, &stubAssets{}))
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Contains(t, rec.Body.String(), "Email already exists")
	})

	t.Run("bad profile photo", func(t *testing.T) {
		t.Cleanup(restore)
		emailExists = func(context.Context, database.DB, string) (bool, error) { return false, nil }
		hashPassword = func(string) (string, error) { return "h", nil }
		created := false
		createUser = func(context.Context, database.DB, *model.User) (*model.User, error) {
			created = true
			return nil, nil
		}
		ctx, rec := newJSONCtx(e, `{"firstName":"A","email":"a@b.com","password":"p","profile_photo":"eA==","profile_photo_type":"text/plain"}`)
		run(e, ctx, RegisterHandler(nil, &stubAssets{err: asset.ErrUnsupportedType}))
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Contains(t, rec.Body.String(), "Only image files are allowed")
		require.False(t, created)
	})

	t.Run("store error", func(t *testing.T) {
		t.Cleanup(restore)
		emailExists = func(context.Context, database.DB, string) (bool, error) { return false, errors.New("db down") }
		ctx, rec := newJSONCtx(e, registerBody)
		run(e, ctx, RegisterHandler(nil, &stubAssets{}))
		require.Equal(t, http.StatusInternalServerError, rec.Code)
		require.NotContains(t, rec.Body.String(), "db down")
	})

	t.Run("success", func(t *testing.T) {
		t.Cleanup(restore)
		now := time.Now().UTC()
		emailExists = func(context.Context, database.DB, string) (bool, error) { return false, nil }
		hashPassword = func(p string) (string, error) { require.Equal(t, "secret", p); return "h", nil }
		var got *model.User
		createUser = func(_ context.Context, _ database.DB, u *model.User) (*model.User, error) {
			got = u
			u.ID = 1
			u.CreatedAt = now
			return u, nil
		}
		assets := &stubAssets{base64Ref: "/uploads/1-x-me.png"}
		ctx, rec := newJSONCtx(e, `{"firstName":"Alice","lastName":"Smith","email":"Alice@Example.com","password":"secret","phone":"555","profile_photo":"data:image/png;base64,eA==","profile_photo_name":"me.png"}`)
		run(e, ctx, RegisterHandler(nil, assets))
		require.Equal(t, http.StatusCreated, rec.Code)
		require.Equal(t, "alice@example.com", got.Email)
		require.Equal(t, "h", got.PasswordHash)
		require.Equal(t, "Smith", *got.LastName)
		require.Equal(t, "/uploads/1-x-me.png", *got.ProfilePhoto)
		require.Contains(t, rec.Body.String(), `"id":1`)
		require.Contains(t, rec.Body.String(), `"profile_photo":"/uploads/1-x-me.png"`)
		require.NotContains(t, rec.Body.String(), "password")
	})

	t.Run("success without photo", func(t *testing.T) {
		t.Cleanup(restore)
		emailExists = func(context.Context, database.DB, string) (bool, error) { return false, nil }
		hashPassword = func(string) (string, error) { return "h", nil }
		createUser = func(_ context.Context, _ database.DB, u *model.User) (*model.User, error) {
			u.ID = 2
			return u, nil
		}
		assets := &stubAssets{}
		ctx, rec := newJSONCtx(e, registerBody)
		run(e, ctx, RegisterHandler(nil, assets))
		require.Equal(t, http.StatusCreated, rec.Code)
		require.Zero(t, assets.calls)
		require.Contains(t, rec.Body.String(), `"profile_photo":null`)
	})
}

func TestLoginHandler(t *testing.T) {
	e := newEcho()
	body := `{"email":"ALICE@example.com","password":"secret"}`

	t.Run("missing fields", func(t *testing.T) {
		t.Cleanup(restore)
		ctx, rec := newJSONCtx(e, `{"email":"a@b.com"}`)
		run(e, ctx, LoginHandler(nil, stubTokens{}))
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.JSONEq(t, `{"error":"email and password are required"}`, rec.Body.String())
	})

	t.Run("malformed email", func(t *testing.T) {
		t.Cleanup(restore)
		getUserByEmail = func(context.Context, database.DB, string) (*model.User, error) {
			t.Fatal("store must not be called")
			return nil, nil
		}
		ctx, rec := newJSONCtx(e, `{"email":"Bob <bob@x.com>","password":"p"}`)
		run(e, ctx, LoginHandler(nil, stubTokens{}))
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown email", func(t *testing.T) {
		t.Cleanup(restore)
		getUserByEmail = func(context.Context, database.DB, string) (*model.User, error) {
			return nil, fmt.Errorf("GetUserByEmail: %w", store.ErrNotFound)
		}
		ctx, rec := newJSONCtx(e, body)
		run(e, ctx, LoginHandler(nil, stubTokens{}))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.JSONEq(t, `{"error":"Invalid credentials"}`, rec.Body.String())
	})

	t.Run("wrong password", func(t *testing.T) {
		t.Cleanup(restore)
		getUserByEmail = func(context.Context, database.DB, string) (*model.User, error) { return sampleUser(time.Now()), nil }
		comparePassword = func(string, string) error { return service.ErrInvalidCredentials }
		ctx, rec := newJSONCtx(e, body)
		run(e, ctx, LoginHandler(nil, stubTokens{}))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.JSONEq(t, `{"error":"Invalid credentials"}`, rec.Body.String())
	})

	t.Run("store error", func(t *testing.T) {
		t.Cleanup(restore)
		getUserByEmail = func(context.Context, database.DB, string) (*model.User, error) { return nil, errors.New("db") }
		ctx, rec := newJSONCtx(e, body)
		run(e, ctx, LoginHandler(nil, stubTokens{}))
		require.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("token error", func(t *testing.T) {
		t.Cleanup(restore)
		getUserByEmail = func(context.Context, database.DB, string) (*model.User, error) { return sampleUser(time.Now()), nil }
		comparePassword = func(string, string) error { return nil }
		ctx, rec := newJSONCtx(e, body)
		run(e, ctx, LoginHandler(nil, stubTokens{err: errors.New("sign")}))
		require.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("success", func(t *testing.T) {
		t.Cleanup(restore)
		var gotEmail string
		getUserByEmail = func(_ context.Context, _ database.DB, email string) (*model.User, error) {
			gotEmail = email
			return sampleUser(time.Now()), nil
		}
		comparePassword = func(hash, pwd string) error {
			require.Equal(t, "h", hash)
			require.Equal(t, "secret", pwd)
			return nil
		}
		ctx, rec := newJSONCtx(e, body)
		run(e, ctx, LoginHandler(nil, stubTokens{token: "jwt"}))
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "alice@example.com", gotEmail)
		require.JSONEq(t, `{"token":"jwt","userId":1}`, rec.Body.String())
	})
}

func TestGetUserHandler(t *testing.T) {
	e := newEcho()

	t.Run("bad id", func(t *testing.T) {
		t.Cleanup(restore)
		ctx, rec := newParamCtx(e, http.MethodGet, "x", nil, "")
		run(e, ctx, GetUserHandler(nil))
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("not found", func(t *testing.T) {
		t.Cleanup(restore)
		getUserByID = func(context.Context, database.DB, int) (*model.User, error) {
			return nil, fmt.Errorf("GetUserByID: %w", store.ErrNotFound)
		}
		ctx, rec := newParamCtx(e, http.MethodGet, "1", nil, "")
		run(e, ctx, GetUserHandler(nil))
		require.Equal(t, http.StatusNotFound, rec.Code)
		require.JSONEq(t, `{"error":"User not found"}`, rec.Body.String())
	})

	t.Run("store error", func(t *testing.T) {
		t.Cleanup(restore)
		getUserByID = func(context.Context, database.DB, int) (*model.User, error) { return nil, errors.New("db") }
		ctx, rec := newParamCtx(e, http.MethodGet, "1", nil, "")
		run(e, ctx, GetUserHandler(nil))
		require.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("success", func(t *testing.T) {
		t.Cleanup(restore)
		getUserByID = func(_ context.Context, _ database.DB, id int) (*model.User, error) {
			require.Equal(t, 1, id)
			return sampleUser(time.Now().UTC()), nil
		}
		ctx, rec := newParamCtx(e, http.MethodGet, "1", nil, "")
		run(e, ctx, GetUserHandler(nil))
		require.Equal(t, http.StatusOK, rec.Code)
		require.Contains(t, rec.Body.String(), `"first_name":"Alice"`)
		require.NotContains(t, rec.Body.String(), "password")
	})
}

func TestUpdateUserHandler(t *testing.T) {
	e := newEcho()
	self := middleware.Identity{ID: 1, Email: "alice@example.com"}
	authed := func(assets AssetSaver, who middleware.Identity) echo.HandlerFunc {
		h := UpdateUserHandler(nil, assets)
		return func(c echo.Context) error { return h(c, who) }
	}

	t.Run("forbidden", func(t *testing.T) {
		t.Cleanup(restore)
		ctx, rec := newParamCtx(e, http.MethodPut, "2", nil, "")
		run(e, ctx, authed(&stubAssets{}, self))
		require.Equal(t, http.StatusForbidden, rec.Code)
		require.JSONEq(t, `{"error":"Forbidden"}`, rec.Body.String())
	})

	t.Run("bad id", func(t *testing.T) {
		t.Cleanup(restore)
		ctx, rec := newParamCtx(e, http.MethodPut, "abc", nil, "")
		run(e, ctx, authed(&stubAssets{}, self))
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("user gone", func(t *testing.T) {
		t.Cleanup(restore)
		getUserByID = func(context.Context, database.DB, int) (*model.User, error) { return nil, store.ErrNotFound }
		body, ct := multipartBody(t, map[string]string{"first_name": "Al"}, "", "", "")
		ctx, rec := newParamCtx(e, http.MethodPut, "1", body, ct)
		run(e, ctx, authed(&stubAssets{}, self))
		require.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("bad photo", func(t *testing.T) {
		t.Cleanup(restore)
		getUserByID = func(context.Context, database.DB, int) (*model.User, error) { return sampleUser(time.Now()), nil }
		updated := false
		updateUser = func(context.Context, database.DB, int, model.UserPatch) (*model.User, error) {
			updated = true
			return nil, nil
		}
		body, ct := multipartBody(t, nil, "profile_photo", "big.png", "image/png")
		ctx, rec := newParamCtx(e, http.MethodPut, "1", body, ct)
		run(e, ctx, authed(&stubAssets{err: asset.ErrTooLarge}, self))
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.JSONEq(t, `{"error":"File size must be less than 5MB"}`, rec.Body.String())
		require.False(t, updated)
	})

	t.Run("success", func(t *testing.T) {
		t.Cleanup(restore)
		getUserByID = func(context.Context, database.DB, int) (*model.User, error) { return sampleUser(time.Now()), nil }
		var got model.UserPatch
		updateUser = func(_ context.Context, _ database.DB, id int, p model.UserPatch) (*model.User, error) {
			require.Equal(t, 1, id)
			got = p
			u := sampleUser(time.Now())
			u.FirstName = *p.FirstName
			u.ProfilePhoto = p.ProfilePhoto
			return u, nil
		}
		body, ct := multipartBody(t, map[string]string{"first_name": "Al", "last_name": ""}, "profile_photo", "me.png", "image/png")
		ctx, rec := newParamCtx(e, http.MethodPut, "1", body, ct)
		run(e, ctx, authed(&stubAssets{fileRef: "/uploads/1-x-me.png"}, self))
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "Al", *got.FirstName)
		require.Nil(t, got.LastName)
		require.Nil(t, got.PhoneNumber)
		require.Equal(t, "/uploads/1-x-me.png", *got.ProfilePhoto)
		require.Contains(t, rec.Body.String(), `"first_name":"Al"`)
	})
}
