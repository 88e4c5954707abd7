package disk

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/docurail/metrodocs-backend/pkg/config"
	pkgerrors "github.com/docurail/metrodocs-backend/pkg/errors"
	"github.com/google/uuid"
)

// Store persists uploaded files on the local filesystem under a single root
// directory. Object names are relative paths inside that root.
type Store struct {
	root string
}

// NewStore ensures the upload directory exists and returns a store rooted there.
func NewStore(cfg config.UploadsConfig) (*Store, error) {
	root := strings.TrimSpace(cfg.Dir)
	if root == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "upload directory is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create upload directory")
	}
	return &Store{root: root}, nil
}

// Save streams content to the named object and returns the number of bytes written.
func (s *Store) Save(ctx context.Context, name string, content io.Reader) (int64, error) {
	path, err := s.resolve(name)
	if err != nil {
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return 0, pkgerrors.New(pkgerrors.CodeConflict, "file already exists")
		}
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create file")
	}

	written, err := io.Copy(file, content)
	if err != nil {
		file.Close()
		os.Remove(path)
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "write file")
	}
	if err := file.Close(); err != nil {
		os.Remove(path)
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "flush file")
	}
	return written, nil
}

// Open returns a reader over the named object. The caller closes it.
func (s *Store) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	path, err := s.resolve(name)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "file not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "open file")
	}
	return file, nil
}

// Remove deletes the named object. A missing object is not an error.
func (s *Store) Remove(ctx context.Context, name string) error {
	path, err := s.resolve(name)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove file")
	}
	return nil
}

func (s *Store) resolve(name string) (string, error) {
	cleaned := filepath.Clean(strings.TrimSpace(name))
	if cleaned == "" || cleaned == "." || strings.HasPrefix(cleaned, "..") || filepath.IsAbs(cleaned) {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "invalid object name")
	}
	return filepath.Join(s.root, cleaned), nil
}

// ObjectName builds a collision-resistant object name from the original file name.
func ObjectName(now time.Time, original string) string {
	base := filepath.Base(strings.TrimSpace(original))
	sanitized := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if sanitized == "" || sanitized == "." {
		sanitized = "upload"
	}
	nonce := uuid.NewString()[:8]
	return fmt.Sprintf("%d_%s_%s", now.UnixMilli(), nonce, sanitized)
}
