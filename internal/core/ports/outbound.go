package ports

import (
	"context"
	"encoding/json"

	"github.com/kirillkom/decision-noise/internal/core/domain"
)

// PutOptions carries bucket write hints.
type PutOptions struct {
	ContentType  string
	CacheControl string
	Upsert       bool
}

// ObjectStorage is the remote bucket holding uploaded noise data.
type ObjectStorage interface {
	Put(ctx context.Context, key string, data []byte, opts PutOptions) (string, error)
	Get(ctx context.Context, key string) ([]byte, error)
	List(ctx context.Context) ([]domain.BlobObject, error)
	Delete(ctx context.Context, keys []string) error
	PublicURL(key string) string
}

// NoiseDataProcessor invokes the remote transformation function.
type NoiseDataProcessor interface {
	Process(ctx context.Context, req domain.ProcessRequest) (domain.ProcessedResult, error)
}

// IndustryRepository reads and writes industry content in the structured store.
type IndustryRepository interface {
	ListIndustries(ctx context.Context) ([]domain.Industry, error)
	GetIndustry(ctx context.Context, id string) (*domain.Industry, error)
	UpsertIndustry(ctx context.Context, industry domain.Industry) error
	ReplaceMetrics(ctx context.Context, id string, metrics []json.RawMessage) error
	ReplaceFindings(ctx context.Context, id string, findings []string) error
	ReplaceHygiene(ctx context.Context, id string, hygiene domain.DecisionHygiene) error
}

// TechniqueRepository reads and writes techniques. An empty industryID lists all of them.
type TechniqueRepository interface {
	ListTechniques(ctx context.Context, industryID string) ([]domain.Technique, error)
	UpsertTechniques(ctx context.Context, techniques []domain.Technique) error
}

// AuditSink receives the ingestion audit trail.
type AuditSink interface {
	Record(ctx context.Context, event domain.AuditEvent)
}
