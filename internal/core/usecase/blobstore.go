package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/kirillkom/decision-noise/internal/core/domain"
	"github.com/kirillkom/decision-noise/internal/core/ports"
)

const blobCacheControl = "3600"

// BlobStore manages noise data files in the bucket. Every failure is logged
// with the operation and path before it is returned.
type BlobStore struct {
	storage ports.ObjectStorage
	logger  *slog.Logger
	newID   func() string
}

func NewBlobStore(storage ports.ObjectStorage, logger *slog.Logger) *BlobStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &BlobStore{
		storage: storage,
		logger:  logger,
		newID:   uuid.NewString,
	}
}

func (s *BlobStore) Upload(ctx context.Context, file domain.UploadFile) (domain.StoredBlob, error) {
	path := s.newID() + "." + fileExtension(file.Filename)

	stored, err := s.storage.Put(ctx, path, file.Data, ports.PutOptions{
		ContentType:  file.ContentType,
		CacheControl: blobCacheControl,
		Upsert:       false,
	})
	if err != nil {
		s.logFailure("upload", path, err)
		return domain.StoredBlob{}, serviceError("upload blob", err)
	}
	return domain.StoredBlob{Path: stored}, nil
}

func (s *BlobStore) Download(ctx context.Context, path string) ([]byte, error) {
	data, err := s.storage.Get(ctx, path)
	if err != nil {
		s.logFailure("download", path, err)
		return nil, serviceError("download blob", err)
	}
	return data, nil
}

func (s *BlobStore) List(ctx context.Context) ([]domain.BlobObject, error) {
	objects, err := s.storage.List(ctx)
	if err != nil {
		s.logFailure("list", "", err)
		return nil, serviceError("list blobs", err)
	}
	for i := range objects {
		objects[i].PublicURL = s.storage.PublicURL(objects[i].Name)
	}
	return objects, nil
}

func (s *BlobStore) Remove(ctx context.Context, paths ...string) error {
	if len(paths) == 0 {
		return domain.WrapError(domain.ErrInvalidInput, "remove blobs", errors.New("no paths given"))
	}
	if err := s.storage.Delete(ctx, paths); err != nil {
		s.logFailure("remove", strings.Join(paths, ","), err)
		return serviceError("remove blobs", err)
	}
	return nil
}

func (s *BlobStore) PublicURL(path string) string {
	return s.storage.PublicURL(path)
}

func (s *BlobStore) logFailure(operation, path string, err error) {
	s.logger.Error("blob_operation_failed",
		"operation", operation,
		"path", path,
		"error", err,
	)
}

func serviceError(operation string, err error) error {
	if domain.IsKind(err, domain.ErrService) {
		return err
	}
	return domain.WrapError(domain.ErrService, operation, err)
}

// fileExtension returns the text after the last dot. Unlike the raw filename
// suffix, characters outside [A-Za-z0-9_-] are replaced with '_' so keys never
// carry separators or query syntax. A name without a dot has an empty extension.
func fileExtension(filename string) string {
	idx := strings.LastIndex(filename, ".")
	if idx < 0 {
		return ""
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, filename[idx+1:])
}
