package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
	ErrTemporary    = errors.New("temporary failure")

	// Ingestion pipeline failure kinds.
	ErrInvalidFile            = errors.New("invalid file")
	ErrUploadFailed           = errors.New("upload failed")
	ErrReadbackFailed         = errors.New("readback failed")
	ErrMalformedContent       = errors.New("malformed content")
	ErrRemoteProcessingFailed = errors.New("remote processing failed")

	// ErrService marks data/blob service failures outside the ingestion flow.
	ErrService    = errors.New("service error")
	ErrBlobExists = errors.New("blob already exists")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
