// Package storage 管理上传图片在本地文件系统的存放。
// 数据库行里只保留文件名和MIME类型，原始字节一律落盘。
package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// Uploads 上传目录管理器
type Uploads struct {
	dir    string
	logger zerolog.Logger
}

// NewUploads 创建上传目录管理器，目录按需创建
func NewUploads(dir string, logger zerolog.Logger) (*Uploads, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		// 只读文件系统上回退到临时目录
		fallback := filepath.Join(os.TempDir(), "miciudadsv-uploads")
		logger.Warn().Err(err).Str("dir", dir).Str("fallback", fallback).
			Msg("uploads directory not writable, using fallback")
		if err := os.MkdirAll(fallback, 0755); err != nil {
			return nil, fmt.Errorf("failed to create uploads directory: %w", err)
		}
		dir = fallback
	}

	return &Uploads{dir: dir, logger: logger}, nil
}

// Dir 返回实际使用的上传目录
func (u *Uploads) Dir() string {
	return u.dir
}

// Save 将图片字节写入上传目录
func (u *Uploads) Save(filename string, data []byte) error {
	// 只取基名，文件名里的路径片段不进入上传目录
	name := filepath.Base(filename)
	path := filepath.Join(u.dir, name)

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write upload %s: %w", name, err)
	}

	u.logger.Info().Str("file", name).Int("bytes", len(data)).Msg("📸 upload stored")
	return nil
}

// Path 返回文件的磁盘路径，文件不存在时返回错误
func (u *Uploads) Path(filename string) (string, error) {
	name := filepath.Base(filename)
	path := filepath.Join(u.dir, name)

	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("upload %s not found: %w", name, err)
	}
	return path, nil
}
