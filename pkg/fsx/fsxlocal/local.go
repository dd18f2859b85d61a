package fsxlocal

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"

	"github.com/orgpost/orgpost/pkg/fsx"
)

// LocalFileSystem implements fsx.FileSystem on local disk. All paths are
// resolved relative to basePath.
type LocalFileSystem struct {
	basePath string
}

// NewLocalFileSystem creates a local file system rooted at basePath,
// creating the directory if needed.
func NewLocalFileSystem(basePath string) (*LocalFileSystem, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	absPath, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path: %w", err)
	}

	return &LocalFileSystem{basePath: absPath}, nil
}

func (fs *LocalFileSystem) ReadFile(_ context.Context, path string) ([]byte, error) {
	data, err := os.ReadFile(fs.fullPath(path))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("file not found: %s", path)
		}
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return data, nil
}

func (fs *LocalFileSystem) ReadFileStream(_ context.Context, path string) (io.ReadCloser, error) {
	f, err := os.Open(fs.fullPath(path))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("file not found: %s", path)
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return f, nil
}

func (fs *LocalFileSystem) List(_ context.Context, path string) ([]fsx.FileInfo, error) {
	entries, err := os.ReadDir(fs.fullPath(path))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("directory not found: %s", path)
		}
		return nil, fmt.Errorf("failed to list directory: %w", err)
	}

	infos := make([]fsx.FileInfo, 0, len(entries))
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			continue
		}
		infos = append(infos, fsx.FileInfo{
			Name:        info.Name(),
			Size:        info.Size(),
			ModTime:     info.ModTime(),
			IsDir:       info.IsDir(),
			ContentType: detectContentType(info.Name()),
		})
	}
	return infos, nil
}

func (fs *LocalFileSystem) Exists(_ context.Context, path string) (bool, error) {
	_, err := os.Stat(fs.fullPath(path))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (fs *LocalFileSystem) WriteFile(_ context.Context, path string, data []byte) error {
	fullPath := fs.fullPath(path)

	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return fmt.Errorf("failed to create directories: %w", err)
	}
	if err := os.WriteFile(fullPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

func (fs *LocalFileSystem) DeleteFile(_ context.Context, path string) error {
	if err := os.Remove(fs.fullPath(path)); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

func (fs *LocalFileSystem) Join(elem ...string) string {
	return filepath.Join(elem...)
}

// GetBasePath returns the resolved storage root.
func (fs *LocalFileSystem) GetBasePath() string {
	return fs.basePath
}

func (fs *LocalFileSystem) fullPath(path string) string {
	return filepath.Join(fs.basePath, path)
}

func detectContentType(name string) string {
	if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
