package usecase

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"foodlog_backend/internal/feature/image/domain/entity"
)

// DefaultMaxBytes は画像アップロードの最大サイズ（10MB）です。
const DefaultMaxBytes = 10 * 1024 * 1024

var (
	// validFilename はGET /api/images/:filename で許可するファイル名です。
	validFilename = regexp.MustCompile(`^[a-zA-Z0-9.-]+$`)
	validExt      = regexp.MustCompile(`^[a-z0-9]{1,10}$`)
)

// ImageStorage は画像バイト列を保存し、参照用パスを返します。
// 実装はローカルディスクとS3互換ストレージの2種類です。
type ImageStorage interface {
	Save(ctx context.Context, filename, contentType string, data []byte) (string, error)
}

// ImageReader は保存済み画像を読み出します。存在しない場合はErrImageNotFoundを返します。
type ImageReader interface {
	Read(ctx context.Context, filename string) ([]byte, error)
}

type imageUsecase struct {
	storage  ImageStorage
	reader   ImageReader
	maxBytes int64
	newID    func() string
}

// NewImageUsecase は新しいimageUsecaseを生成します。readerがnilの場合、読み出しは常にErrImageNotFoundです。
func NewImageUsecase(storage ImageStorage, reader ImageReader, maxBytes int64) *imageUsecase {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &imageUsecase{
		storage:  storage,
		reader:   reader,
		maxBytes: maxBytes,
		newID:    func() string { return uuid.NewString() },
	}
}

// MaxBytes returns the upload size limit.
func (u *imageUsecase) MaxBytes() int64 {
	return u.maxBytes
}

// extensionOf は元のファイル名から拡張子を取り出します。使えない場合はjpgです。
func extensionOf(originalName string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(originalName), "."))
	if !validExt.MatchString(ext) {
		return "jpg"
	}
	return ext
}

// Upload は画像を検証して一意なファイル名で保存します。
func (u *imageUsecase) Upload(ctx context.Context, data []byte, declaredType, originalName string) (*entity.StoredImage, error) {
	if !strings.HasPrefix(strings.ToLower(declaredType), "image/") {
		return nil, ErrInvalidFileType
	}
	if len(data) == 0 {
		return nil, ErrEmptyImage
	}
	if int64(len(data)) > u.maxBytes {
		return nil, ErrImageTooLarge
	}

	// 宣言された型より実際の内容を優先する
	contentType := declaredType
	if mt := mimetype.Detect(data); strings.HasPrefix(mt.String(), "image/") {
		contentType = mt.String()
	}

	filename := u.newID() + "." + extensionOf(originalName)
	path, err := u.storage.Save(ctx, filename, contentType, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorageFailure, err)
	}

	return &entity.StoredImage{
		Filename:    filename,
		Path:        path,
		ContentType: contentType,
		Size:        len(data),
	}, nil
}

// ValidFilename reports whether name passes the retrieval allow-list.
func ValidFilename(name string) bool {
	return validFilename.MatchString(name)
}

// ContentTypeFor は拡張子から配信用のContent-Typeを決めます。既定はimage/jpegです。
func ContentTypeFor(filename string) string {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), ".")) {
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	case "svg":
		return "image/svg+xml"
	case "heic":
		return "image/heic"
	case "avif":
		return "image/avif"
	default:
		return "image/jpeg"
	}
}

// Get は保存済み画像とContent-Typeを返します。
func (u *imageUsecase) Get(ctx context.Context, filename string) ([]byte, string, error) {
	if !ValidFilename(filename) {
		return nil, "", ErrInvalidFilename
	}
	if u.reader == nil {
		return nil, "", ErrImageNotFound
	}
	data, err := u.reader.Read(ctx, filename)
	if err != nil {
		return nil, "", err
	}
	return data, ContentTypeFor(filename), nil
}
