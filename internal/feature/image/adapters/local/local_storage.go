// Package local はローカルディスクへの画像保存を提供します。
package local

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"foodlog_backend/internal/feature/image/usecase"
)

// PathPrefix は保存済み画像を配信するAPIパスです。
const PathPrefix = "/api/images/"

// Storage は非公開ディレクトリに画像を保存します。
type Storage struct {
	dir string
}

var (
	_ usecase.ImageStorage = (*Storage)(nil)
	_ usecase.ImageReader  = (*Storage)(nil)
)

// NewStorage はdirを作成（0700）してStorageを返します。
func NewStorage(dir string) (*Storage, error) {
	if dir == "" {
		return nil, errors.New("upload dir is required")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Storage{dir: dir}, nil
}

// Save は一時ファイルへ書き込んでからリネームします。途中状態のファイルは公開されません。
func (s *Storage) Save(ctx context.Context, filename, _ string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !safeName(filename) {
		return "", fmt.Errorf("unsafe filename %q", filename)
	}

	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return "", fmt.Errorf("write image: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return "", fmt.Errorf("sync image: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return "", fmt.Errorf("close image: %w", err)
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		cleanup()
		return "", fmt.Errorf("chmod image: %w", err)
	}
	if err := os.Rename(tmpName, filepath.Join(s.dir, filename)); err != nil {
		cleanup()
		return "", fmt.Errorf("rename image: %w", err)
	}
	return PathPrefix + filename, nil
}

// Read は保存済み画像を返します。存在しない場合はusecase.ErrImageNotFoundです。
func (s *Storage) Read(ctx context.Context, filename string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !safeName(filename) {
		return nil, usecase.ErrImageNotFound
	}
	data, err := os.ReadFile(filepath.Join(s.dir, filename))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, usecase.ErrImageNotFound
		}
		return nil, fmt.Errorf("read image: %w", err)
	}
	return data, nil
}

// safeName はディレクトリ外を指す名前と一時ファイル名を拒否します。
func safeName(name string) bool {
	if name == "" || name == "." || name == ".." || name[0] == '.' {
		return false
	}
	return filepath.Base(name) == name
}
