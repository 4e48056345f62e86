package apperror

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestStatusCode(t *testing.T) {
	cases := []struct {
		err  *Error
		code int
	}{
		{NewValidation("bad"), http.StatusBadRequest},
		{NewConflict("Email already exists"), http.StatusBadRequest},
		{New(UnsupportedMediaType, "type"), http.StatusBadRequest},
		{New(PayloadTooLarge, "size"), http.StatusBadRequest},
		{NewUnauthorized("no"), http.StatusUnauthorized},
		{NewForbidden(), http.StatusForbidden},
		{NewNotFound("Post not found"), http.StatusNotFound},
		{New(TooManyRequests, "slow down"), http.StatusTooManyRequests},
		{NewInternal(errors.New("db")), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		require.Equal(t, tc.code, tc.err.StatusCode(), tc.err.Message)
	}
}

func TestWrapAndIs(t *testing.T) {
	root := errors.New("root")
	err := fmt.Errorf("outer: %w", Wrap(NotFound, "User not found", root))
	require.True(t, Is(err, NotFound))
	require.False(t, Is(err, Forbidden))
	require.ErrorIs(t, err, root)
	require.Contains(t, err.Error(), "User not found: root")
}

func TestFrom(t *testing.T) {
	nf := NewNotFound("x")
	require.Same(t, nf, From(nf))
	require.True(t, Is(From(errors.New("db")), Internal))
}

func runHandler(t *testing.T, method string, err error) (*httptest.ResponseRecorder, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)

	e := echo.New()
	req := httptest.NewRequest(method, "/x", nil)
	rec := httptest.NewRecorder()
	Handler(logger)(err, e.NewContext(req, rec))
	return rec, &buf
}

func TestHandler(t *testing.T) {
	t.Run("app error", func(t *testing.T) {
		rec, logs := runHandler(t, http.MethodGet, NewNotFound("Post not found"))
		require.Equal(t, http.StatusNotFound, rec.Code)
		require.JSONEq(t, `{"error":"Post not found"}`, rec.Body.String())
		require.Empty(t, logs.String())
	})

	t.Run("internal detail hidden", func(t *testing.T) {
		rec, logs := runHandler(t, http.MethodGet, NewInternal(errors.New("pq: connection refused")))
		require.Equal(t, http.StatusInternalServerError, rec.Code)
		require.JSONEq(t, `{"error":"Internal server error"}`, rec.Body.String())
		require.Contains(t, logs.String(), "connection refused")
	})

	t.Run("plain error", func(t *testing.T) {
		rec, _ := runHandler(t, http.MethodGet, errors.New("boom"))
		require.Equal(t, http.StatusInternalServerError, rec.Code)
		require.NotContains(t, rec.Body.String(), "boom")
	})

	t.Run("route not found", func(t *testing.T) {
		rec, _ := runHandler(t, http.MethodGet, echo.ErrNotFound)
		require.Equal(t, http.StatusNotFound, rec.Code)
		require.JSONEq(t, `{"error":"Route not found"}`, rec.Body.String())
	})

	t.Run("echo http error", func(t *testing.T) {
		rec, _ := runHandler(t, http.MethodGet, echo.NewHTTPError(http.StatusUnauthorized, "missing token"))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.JSONEq(t, `{"error":"missing token"}`, rec.Body.String())
	})

	t.Run("head request", func(t *testing.T) {
		rec, _ := runHandler(t, http.MethodHead, NewForbidden())
		require.Equal(t, http.StatusForbidden, rec.Code)
		require.Empty(t, rec.Body.String())
	})
}
