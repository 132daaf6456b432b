package usecase

import (
	"log/slog"
	"mime"
	"strings"

	"github.com/kirillkom/decision-noise/internal/core/domain"
)

// MaxUploadBytes is the largest accepted noise data file (5 MiB).
const MaxUploadBytes int64 = 5 * 1024 * 1024

var allowedContentTypes = map[string]struct{}{
	"application/json": {},
	"text/plain":       {},
}

// FileValidator gatekeeps uploads by declared content type, then by size.
type FileValidator struct {
	logger   *slog.Logger
	maxBytes int64
}

func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		logger:   logger,
		maxBytes: MaxUploadBytes,
	}
}

func (v *FileValidator) Validate(file domain.UploadFile) bool {
	contentType := normalizeContentType(file.ContentType)
	if _, ok := allowedContentTypes[contentType]; !ok {
		v.logger.Warn("file_rejected",
			"reason", "content_type",
			"value", file.ContentType,
			"filename", file.Filename,
		)
		return false
	}

	size := file.Size
	if n := int64(len(file.Data)); n > size {
		size = n
	}
	if size > v.maxBytes {
		v.logger.Warn("file_rejected",
			"reason", "size",
			"value", size,
			"limit", v.maxBytes,
			"filename", file.Filename,
		)
		return false
	}
	return true
}

func normalizeContentType(raw string) string {
	mediaType, _, err := mime.ParseMediaType(raw)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(raw))
	}
	return mediaType
}
