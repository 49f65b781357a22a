// Package handler はimageフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"foodlog_backend/internal/api"
	"foodlog_backend/internal/feature/image/domain/entity"
	"foodlog_backend/internal/feature/image/usecase"
)

// PlaceholderSVG は存在しない画像の代わりに返す画像です。
const PlaceholderSVG = `<svg width="200" height="200" xmlns="http://www.w3.org/2000/svg">
  <rect width="200" height="200" fill="#f1f5f9"/>
  <text x="100" y="90" text-anchor="middle" fill="#64748b" font-family="Arial" font-size="14">Image</text>
  <text x="100" y="110" text-anchor="middle" fill="#64748b" font-family="Arial" font-size="14">Not Available</text>
  <text x="100" y="130" text-anchor="middle" fill="#94a3b8" font-family="Arial" font-size="12">(Legacy Entry)</text>
</svg>
`

const (
	cacheImmutable   = "public, max-age=31536000, immutable"
	cachePlaceholder = "public, max-age=86400"
	// 画像として直接開かれてもスクリプトを実行させない (SVG対策)
	imageCSP = "default-src 'none'; sandbox"
)

// ImageUsecase は画像のアップロードと取得のユースケースです。
type ImageUsecase interface {
	Upload(ctx context.Context, data []byte, declaredType, originalName string) (*entity.StoredImage, error)
	Get(ctx context.Context, filename string) ([]byte, string, error)
	MaxBytes() int64
}

// ImageHandler は画像関連のHTTPリクエストを処理します。
type ImageHandler struct {
	uc                   ImageUsecase
	placeholderOnMissing bool
}

// NewImageHandler は新しいImageHandlerを生成します。
// placeholderOnMissingがfalseの場合、存在しない画像には404を返します。
func NewImageHandler(uc ImageUsecase, placeholderOnMissing bool) *ImageHandler {
	return &ImageHandler{uc: uc, placeholderOnMissing: placeholderOnMissing}
}

// UploadRes は POST /api/upload-image のレスポンスです。
type UploadRes struct {
	Success  bool   `json:"success"`
	Filename string `json:"filename"`
	Path     string `json:"path"`
}

// Upload は画像をアップロードします。
//
// エンドポイント: POST /api/upload-image
// Content-Type: multipart/form-data
// フィールド: image
func (h *ImageHandler) Upload(c *gin.Context) {
	file, err := c.FormFile("image")
	if err != nil {
		slog.Warn("画像ファイルの取得に失敗", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "No file uploaded"})
		return
	}
	if file.Size > h.uc.MaxBytes() {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Image too large"})
		return
	}

	f, err := file.Open()
	if err != nil {
		slog.Error("画像ファイルのオープンに失敗", "error", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to upload image"})
		return
	}
	defer func() {
		if err := f.Close(); err != nil {
			slog.Warn("画像ファイルのクローズに失敗", "error", err)
		}
	}()

	data, err := io.ReadAll(io.LimitReader(f, h.uc.MaxBytes()+1))
	if err != nil {
		slog.Error("画像データの読み取りに失敗", "error", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to upload image"})
		return
	}

	img, err := h.uc.Upload(c.Request.Context(), data, file.Header.Get("Content-Type"), file.Filename)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrInvalidFileType):
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid file type"})
		case errors.Is(err, usecase.ErrEmptyImage):
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "No file uploaded"})
		case errors.Is(err, usecase.ErrImageTooLarge):
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Image too large"})
		default:
			slog.Error("画像の保存に失敗", "error", err, "remote_addr", c.ClientIP())
			c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to upload image"})
		}
		return
	}

	slog.Info("image uploaded", "filename", img.Filename, "size", img.Size, "content_type", img.ContentType)
	c.JSON(http.StatusOK, UploadRes{Success: true, Filename: img.Filename, Path: img.Path})
}

// Serve は保存済み画像を返します。
//
// エンドポイント: GET /api/images/:filename
func (h *ImageHandler) Serve(c *gin.Context) {
	data, contentType, err := h.uc.Get(c.Request.Context(), c.Param("filename"))
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrInvalidFilename):
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid filename"})
		case errors.Is(err, usecase.ErrImageNotFound):
			if h.placeholderOnMissing {
				c.Header("Cache-Control", cachePlaceholder)
				c.Header("Content-Security-Policy", imageCSP)
				c.Data(http.StatusOK, "image/svg+xml", []byte(PlaceholderSVG))
				return
			}
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Image not found"})
		default:
			slog.Error("画像の配信に失敗", "error", err, "remote_addr", c.ClientIP())
			c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to serve image"})
		}
		return
	}

	c.Header("Cache-Control", cacheImmutable)
	c.Header("X-Content-Type-Options", "nosniff")
	c.Header("Content-Security-Policy", imageCSP)
	c.Data(http.StatusOK, contentType, data)
}
