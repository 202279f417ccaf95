package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"weld-inspector/internal/domain/port"
)

// FileImageArchive складывает изображения в локальную директорию
type FileImageArchive struct {
	dir string
}

// NewFileImageArchive создаёт директорию архива
func NewFileImageArchive(dir string) (*FileImageArchive, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create image dir %s: %w", dir, err)
	}
	return &FileImageArchive{dir: dir}, nil
}

// Put записывает файл через временное имя и переименование.
func (a *FileImageArchive) Put(ctx context.Context, name string, data []byte) error {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return fmt.Errorf("invalid image name %q", name)
	}

	dst := filepath.Join(a.dir, name)
	tmp, err := os.CreateTemp(a.dir, "."+name+".*")
	if err != nil {
		return fmt.Errorf("create temp image: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write image: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close image: %w", err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return fmt.Errorf("rename image: %w", err)
	}
	return nil
}

// Проверка реализации интерфейса
var _ port.ImageArchive = (*FileImageArchive)(nil)
