// Package apperror 定義應用層錯誤類型，並統一轉換為 {"error": "..."} 的 HTTP 回應
package apperror

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// Kind 錯誤分類，決定回應的 HTTP 狀態碼
type Kind int

const (
	Internal Kind = iota
	Validation
	Unauthorized
	Forbidden
	NotFound
	Conflict
	UnsupportedMediaType
	PayloadTooLarge
	TooManyRequests
)

const internalMessage = "Internal server error"

// Error 帶有分類與對外訊息的錯誤，Err 保留底層原因供記錄
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// StatusCode 回傳對應的 HTTP 狀態碼
// Conflict 與上傳檔案錯誤依 API 約定回 400
func (e *Error) StatusCode() int {
	switch e.Kind {
	case Validation, Conflict, UnsupportedMediaType, PayloadTooLarge:
		return http.StatusBadRequest
	case Unauthorized:
		return http.StatusUnauthorized
	case Forbidden:
		return http.StatusForbidden
	case NotFound:
		return http.StatusNotFound
	case TooManyRequests:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func NewValidation(message string) *Error { return New(Validation, message) }

func NewUnauthorized(message string) *Error { return New(Unauthorized, message) }

func NewForbidden() *Error { return New(Forbidden, "Forbidden") }

func NewNotFound(message string) *Error { return New(NotFound, message) }

func NewConflict(message string) *Error { return New(Conflict, message) }

// NewInternal 對外只顯示通用訊息，底層錯誤僅寫入日誌
func NewInternal(err error) *Error { return Wrap(Internal, internalMessage, err) }

// From 保留既有的 *Error，其他錯誤一律視為內部錯誤
func From(err error) error {
	var ae *Error
	if errors.As(err, &ae) {
		return err
	}
	return NewInternal(err)
}

// ErrorResponse 錯誤回應格式
// swagger:model ErrorResponse
type ErrorResponse struct {
	Error string `json:"error" example:"Post not found"`
}

// Is 判斷 err 是否為指定分類的 *Error
func Is(err error, kind Kind) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Kind == kind
}

// resolve 將任意錯誤轉為狀態碼與對外訊息，第三個回傳值表示是否需記錄為伺服器錯誤
func resolve(err error) (int, string, bool) {
	var ae *Error
	if errors.As(err, &ae) {
		code := ae.StatusCode()
		if code >= http.StatusInternalServerError {
			return code, internalMessage, true
		}
		return code, ae.Message, false
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		switch he.Code {
		case http.StatusNotFound:
			return he.Code, "Route not found", false
		case http.StatusMethodNotAllowed:
			return he.Code, "Method not allowed", false
		}
		if he.Code >= http.StatusInternalServerError {
			return he.Code, internalMessage, true
		}
		if msg, ok := he.Message.(string); ok {
			return he.Code, msg, false
		}
		return he.Code, http.StatusText(he.Code), false
	}

	return http.StatusInternalServerError, internalMessage, true
}

// Handler 建立 echo.HTTPErrorHandler，5xx 錯誤會記錄完整原因
func Handler(logger logrus.FieldLogger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		code, msg, internal := resolve(err)
		if internal {
			logger.WithFields(logrus.Fields{
				"method":     c.Request().Method,
				"uri":        c.Request().RequestURI,
				"request_id": c.Response().Header().Get(echo.HeaderXRequestID),
			}).WithError(err).Error("request failed")
		}
		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(code)
		} else {
			werr = c.JSON(code, ErrorResponse{Error: msg})
		}
		if werr != nil {
			logger.WithError(werr).Error("write error response")
		}
	}
}
