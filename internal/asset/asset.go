// Package asset 驗證並保存上傳的圖片，回傳可存入資料庫的 /uploads/<name> 參照
package asset

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"post-management/internal/apperror"

	"github.com/google/uuid"
)

const (
	MaxSize   = 5 << 20
	URLPrefix = "/uploads/"
)

var (
	ErrUnsupportedType = apperror.New(apperror.UnsupportedMediaType, "Only image files are allowed (jpeg, png, gif, webp)")
	ErrTooLarge        = apperror.New(apperror.PayloadTooLarge, "File size must be less than 5MB")
	ErrInvalidEncoding = apperror.NewValidation("profile_photo must be base64 encoded")

	// ErrNotFound Store 找不到檔案時回傳
	ErrNotFound = errors.New("asset not found")
)

var allowedTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

var contentTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// Store 實際保存檔案的後端
type Store interface {
	Save(ctx context.Context, name, contentType string, body io.Reader, size int64) error
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}

// Validate 先檢查 MIME 類型再檢查大小
func Validate(contentType string, size int64) error {
	mediaType := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	if !allowedTypes[mediaType] {
		return ErrUnsupportedType
	}
	if size > MaxSize {
		return ErrTooLarge
	}
	return nil
}

// ContentTypeFor 依副檔名回傳 MIME，未知時為 application/octet-stream
func ContentTypeFor(name string) string {
	if ct, ok := contentTypes[strings.ToLower(filepath.Ext(name))]; ok {
		return ct
	}
	return "application/octet-stream"
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// ValidName 判斷 name 是否為單一層級的檔名
func ValidName(name string) bool {
	return name != "" && name != "." && name != ".." &&
		!strings.ContainsAny(name, `/\`) && filepath.Base(name) == name
}

// Service 負責驗證、命名並交給 Store 保存
type Service struct {
	store Store
	now   func() time.Time
	rand  func() string
}

func NewService(store Store) *Service {
	return &Service{
		store: store,
		now:   time.Now,
		rand:  func() string { return strings.ReplaceAll(uuid.NewString(), "-", "")[:12] },
	}
}

// filename 產生 <unix 毫秒>-<隨機字串>-<原檔名>
func (s *Service) filename(original string) string {
	base := unsafeChars.ReplaceAllString(filepath.Base(strings.ReplaceAll(original, `\`, "/")), "_")
	if base == "" || base == "." || base == ".." || base == "_" {
		base = "upload"
	}
	return strconv.FormatInt(s.now().UnixMilli(), 10) + "-" + s.rand() + "-" + base
}

func (s *Service) save(ctx context.Context, original, contentType string, body io.Reader, size int64) (string, error) {
	if err := Validate(contentType, size); err != nil {
		return "", err
	}
	name := s.filename(original)
	if err := s.store.Save(ctx, name, contentType, body, size); err != nil {
		return "", fmt.Errorf("save asset: %w", err)
	}
	return URLPrefix + name, nil
}

// SaveFile 保存 multipart 上傳的檔案
func (s *Service) SaveFile(ctx context.Context, fh *multipart.FileHeader) (string, error) {
	if err := Validate(fh.Header.Get("Content-Type"), fh.Size); err != nil {
		return "", err
	}
	f, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()
	return s.save(ctx, fh.Filename, fh.Header.Get("Content-Type"), f, fh.Size)
}

// SaveBase64 保存 base64 字串，允許 data:image/...;base64, 前綴
func (s *Service) SaveBase64(ctx context.Context, name, contentType, encoded string) (string, error) {
	if i := strings.Index(encoded, ";base64,"); strings.HasPrefix(encoded, "data:") && i >= 0 {
		if contentType == "" {
			contentType = strings.TrimPrefix(encoded[:i], "data:")
		}
		encoded = encoded[i+len(";base64,"):]
	}
	if err := Validate(contentType, 0); err != nil {
		return "", err
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", ErrInvalidEncoding
	}
	if name == "" {
		name = "profile" + extensionFor(contentType)
	}
	return s.save(ctx, name, contentType, bytes.NewReader(data), int64(len(data)))
}

// Open 開啟已保存的檔案並回傳其 MIME
func (s *Service) Open(ctx context.Context, name string) (io.ReadCloser, string, error) {
	if !ValidName(name) {
		return nil, "", ErrNotFound
	}
	rc, err := s.store.Open(ctx, name)
	if err != nil {
		return nil, "", err
	}
	return rc, ContentTypeFor(name), nil
}

var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/jpg":  ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

func extensionFor(contentType string) string {
	return extensions[strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))]
}
