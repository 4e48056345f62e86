package uploads

import (
	"context"
	"errors"
	"io"
	"net/http"

	"post-management/internal/apperror"
	"post-management/internal/asset"

	"github.com/labstack/echo/v4"
)

// FileOpener *asset.Service 直接滿足
type FileOpener interface {
	Open(ctx context.Context, name string) (io.ReadCloser, string, error)
}

// ServeHandler 依檔名回傳已上傳的圖片，Content-Type 依副檔名決定
func ServeHandler(files FileOpener) echo.HandlerFunc {
	return func(c echo.Context) error {
		rc, contentType, err := files.Open(c.Request().Context(), c.Param("filename"))
		if errors.Is(err, asset.ErrNotFound) {
			return apperror.NewNotFound("File not found")
		}
		if err != nil {
			return apperror.NewInternal(err)
		}
		defer rc.Close()

		c.Response().Header().Set("Cache-Control", "public, max-age=86400")
		return c.Stream(http.StatusOK, contentType, rc)
	}
}
