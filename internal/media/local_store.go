// Package media stores uploaded product images on the local filesystem.
package media

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/venkat-sld/shoplive/internal/model"
)

var (
	// ErrInvalidFilename is returned for names that are empty or escape the upload dir
	ErrInvalidFilename = errors.New("invalid filename")
	// ErrNotImage is returned when the upload does not declare an image/* content type
	ErrNotImage = errors.New("only image files are allowed")
	// ErrTooLarge is returned when the upload exceeds the configured limit
	ErrTooLarge = errors.New("image exceeds the size limit")
)

// StoredImage describes a saved upload
type StoredImage struct {
	Filename string
	Path     string // public path, e.g. /images/<filename>
	Size     int64
}

// LocalStore writes images into a single directory served under /images
type LocalStore struct {
	dir      string
	maxBytes int64
}

// NewLocalStore creates dir if needed
func NewLocalStore(dir string, maxBytes int64) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalStore{dir: dir, maxBytes: maxBytes}, nil
}

// Dir is the directory holding the files
func (s *LocalStore) Dir() string {
	return s.dir
}

// MaxBytes is the upload size limit
func (s *LocalStore) MaxBytes() int64 {
	return s.maxBytes
}

// Save copies r into a freshly named file. originalName only contributes its extension.
func (s *LocalStore) Save(r io.Reader, originalName, contentType string) (*StoredImage, error) {
	if !strings.HasPrefix(strings.ToLower(contentType), "image/") {
		return nil, ErrNotImage
	}

	ext := strings.ToLower(filepath.Ext(originalName))
	filename := fmt.Sprintf("%d-%s%s", time.Now().UnixMilli(), uuid.NewString(), ext)
	path := filepath.Join(s.dir, filename)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create image file: %w", err)
	}

	// read one byte past the limit to detect oversize uploads
	n, copyErr := io.Copy(f, io.LimitReader(r, s.maxBytes+1))
	closeErr := f.Close()
	switch {
	case copyErr != nil:
		os.Remove(path)
		return nil, fmt.Errorf("write image file: %w", copyErr)
	case closeErr != nil:
		os.Remove(path)
		return nil, fmt.Errorf("close image file: %w", closeErr)
	case n > s.maxBytes:
		os.Remove(path)
		return nil, ErrTooLarge
	}

	return &StoredImage{
		Filename: filename,
		Path:     model.ImagePathPrefix + filename,
		Size:     n,
	}, nil
}

// Delete removes a stored file by name
func (s *LocalStore) Delete(filename string) error {
	path, err := s.resolve(filename)
	if err != nil {
		return err
	}
	return os.Remove(path)
}

func (s *LocalStore) resolve(filename string) (string, error) {
	if filename == "" || filename == "." || filename == ".." ||
		filename != filepath.Base(filename) || strings.ContainsAny(filename, `/\`) {
		return "", ErrInvalidFilename
	}
	return filepath.Join(s.dir, filename), nil
}
