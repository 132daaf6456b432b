package localfs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/kirillkom/decision-noise/internal/core/domain"
	"github.com/kirillkom/decision-noise/internal/core/ports"
)

// Storage is a bucket on the local filesystem, used for development and tests.
// Cache hints are accepted and ignored.
type Storage struct {
	basePath      string
	publicBaseURL string
}

func New(basePath, publicBaseURL string) (*Storage, error) {
	if basePath == "" {
		basePath = "./data/storage"
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &Storage{
		basePath:      basePath,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}, nil
}

func (s *Storage) Put(_ context.Context, key string, data []byte, opts ports.PutOptions) (string, error) {
	path, err := s.resolve(key)
	if err != nil {
		return "", err
	}

	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !opts.Upsert {
		flags = os.O_WRONLY | os.O_CREATE | os.O_EXCL
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return "", domain.WrapError(domain.ErrBlobExists, "create file", fmt.Errorf("key %s", key))
		}
		return "", fmt.Errorf("create file: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("write file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("close file: %w", err)
	}
	return key, nil
}

func (s *Storage) Get(_ context.Context, key string) ([]byte, error) {
	path, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.WrapError(domain.ErrNotFound, "read file", fmt.Errorf("key %s", key))
		}
		return nil, fmt.Errorf("read file: %w", err)
	}
	return data, nil
}

func (s *Storage) List(_ context.Context) ([]domain.BlobObject, error) {
	entries, err := os.ReadDir(s.basePath)
	if err != nil {
		return nil, fmt.Errorf("read storage dir: %w", err)
	}

	objects := make([]domain.BlobObject, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", entry.Name(), err)
		}
		objects = append(objects, domain.BlobObject{
			Name:      entry.Name(),
			Size:      info.Size(),
			UpdatedAt: info.ModTime().UTC(),
		})
	}
	return objects, nil
}

// Delete removes every key or none: missing keys fail the whole call.
func (s *Storage) Delete(_ context.Context, keys []string) error {
	paths := make([]string, 0, len(keys))
	var missing []string
	for _, key := range keys {
		path, err := s.resolve(key)
		if err != nil {
			return err
		}
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				missing = append(missing, key)
				continue
			}
			return fmt.Errorf("stat file: %w", err)
		}
		paths = append(paths, path)
	}
	if len(missing) > 0 {
		return domain.WrapError(domain.ErrNotFound, "delete files", fmt.Errorf("missing keys %s", strings.Join(missing, ",")))
	}

	for _, path := range paths {
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("remove file: %w", err)
		}
	}
	return nil
}

func (s *Storage) PublicURL(key string) string {
	return s.publicBaseURL + "/" + url.PathEscape(key)
}

func (s *Storage) resolve(key string) (string, error) {
	if key == "" || key == "." || key == ".." || strings.ContainsAny(key, `/\`) {
		return "", domain.WrapError(domain.ErrInvalidInput, "resolve key", fmt.Errorf("invalid key %q", key))
	}
	return filepath.Join(s.basePath, key), nil
}
