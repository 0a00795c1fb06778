package forms

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const (
	MaxRFQFileSize       = 10 << 20
	MaxReviewPhotos      = 5
	MaxReviewPhotoSize   = 5 << 20
	MaxGrievanceFiles    = 5
	MaxGrievanceFileSize = 10 << 20
)

var ErrFileTooLarge = errors.New("file too large")

// Upload is one incoming file. Body is read once.
type Upload struct {
	FileName string
	MimeType string
	Body     io.Reader
}

type FileStore interface {
	Save(u Upload, limit int64) (StoredFile, error)
	Remove(f StoredFile)
}

// DiskStore writes uploads under dir with generated names.
type DiskStore struct {
	dir string
}

func NewDiskStore(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &DiskStore{dir: dir}, nil
}

func (s *DiskStore) Save(u Upload, limit int64) (StoredFile, error) {
	id := uuid.NewString()
	ext := strings.ToLower(filepath.Ext(filepath.Base(u.FileName)))
	path := filepath.Join(s.dir, id+ext)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return StoredFile{}, fmt.Errorf("create upload: %w", err)
	}
	n, err := io.Copy(f, io.LimitReader(u.Body, limit+1))
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	if err == nil && n > limit {
		err = ErrFileTooLarge
	}
	if err != nil {
		_ = os.Remove(path)
		return StoredFile{}, err
	}

	return StoredFile{
		ID:       id,
		FileName: filepath.Base(u.FileName),
		Path:     path,
		MimeType: u.MimeType,
		Size:     n,
	}, nil
}

func (s *DiskStore) Remove(f StoredFile) {
	if f.Path != "" {
		_ = os.Remove(f.Path)
	}
}
