package ports

import (
	"context"

	"github.com/kirillkom/decision-noise/internal/core/domain"
)

// NoiseDataIngestor is the inbound contract for upload-and-process orchestration.
type NoiseDataIngestor interface {
	UploadAndProcess(ctx context.Context, file domain.UploadFile, industryID string, dataType domain.DataType) (domain.ProcessedResult, error)
}

// NoiseDataStorage manages uploaded noise data blobs in the bucket.
type NoiseDataStorage interface {
	Upload(ctx context.Context, file domain.UploadFile) (domain.StoredBlob, error)
	Download(ctx context.Context, path string) ([]byte, error)
	List(ctx context.Context) ([]domain.BlobObject, error)
	Remove(ctx context.Context, paths ...string) error
	PublicURL(path string) string
}

// DashboardReader is the read model behind the dashboard views.
type DashboardReader interface {
	Industries(ctx context.Context) ([]domain.Industry, error)
	Metrics(ctx context.Context, selection domain.IndustrySelection) ([]domain.AggregatedMetric, error)
	Techniques(ctx context.Context, selection domain.IndustrySelection) ([]domain.Technique, error)
}

// NoiseDataApplier is the inbound contract of the transformation function host.
type NoiseDataApplier interface {
	Apply(ctx context.Context, req domain.ProcessRequest) (domain.ProcessedResult, error)
}
