package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/kirillkom/decision-noise/internal/core/domain"
)

type industryRepoFake struct {
	industries []domain.Industry
	err        error

	replacedMetrics  []json.RawMessage
	replacedFindings []string
	replacedHygiene  *domain.DecisionHygiene
}

func (f *industryRepoFake) ListIndustries(context.Context) ([]domain.Industry, error) {
	return f.industries, f.err
}

func (f *industryRepoFake) GetIndustry(_ context.Context, id string) (*domain.Industry, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, industry := range f.industries {
		if industry.ID == id {
			found := industry
			return &found, nil
		}
	}
	return nil, domain.WrapError(domain.ErrNotFound, "get industry", errors.New(id))
}

func (f *industryRepoFake) UpsertIndustry(_ context.Context, industry domain.Industry) error {
	f.industries = append(f.industries, industry)
	return f.err
}

func (f *industryRepoFake) ReplaceMetrics(_ context.Context, id string, metrics []json.RawMessage) error {
	if _, err := f.GetIndustry(context.Background(), id); err != nil {
		return err
	}
	f.replacedMetrics = metrics
	return nil
}

func (f *industryRepoFake) ReplaceFindings(_ context.Context, id string, findings []string) error {
	if _, err := f.GetIndustry(context.Background(), id); err != nil {
		return err
	}
	f.replacedFindings = findings
	return nil
}

func (f *industryRepoFake) ReplaceHygiene(_ context.Context, id string, hygiene domain.DecisionHygiene) error {
	if _, err := f.GetIndustry(context.Background(), id); err != nil {
		return err
	}
	f.replacedHygiene = &hygiene
	return nil
}

type techniqueRepoFake struct {
	filter   string
	listed   []domain.Technique
	upserted []domain.Technique
	err      error
}

func (f *techniqueRepoFake) ListTechniques(_ context.Context, industryID string) ([]domain.Technique, error) {
	f.filter = industryID
	return f.listed, f.err
}

func (f *techniqueRepoFake) UpsertTechniques(_ context.Context, techniques []domain.Technique) error {
	f.upserted = append(f.upserted, techniques...)
	return f.err
}

func TestDashboardMetricsAllIndustries(t *testing.T) {
	repo := &industryRepoFake{industries: []domain.Industry{
		industryWithMetrics("legal", `{"name":"Variance","value":40}`),
		industryWithMetrics("medical", `{"name":"Variance","value":61}`),
	}}
	uc := NewDashboardUseCase(repo, &techniqueRepoFake{})

	metrics, err := uc.Metrics(context.Background(), domain.ParseSelection("all"))
	if err != nil {
		t.Fatalf("Metrics() error = %v", err)
	}
	if len(metrics) != 1 || metrics[0].Value != 51 {
		t.Fatalf("unexpected metrics: %+v", metrics)
	}
}

func TestDashboardMetricsUnknownIndustryIsNotFound(t *testing.T) {
	uc := NewDashboardUseCase(&industryRepoFake{}, &techniqueRepoFake{})

	_, err := uc.Metrics(context.Background(), domain.SingleIndustry{ID: "space"})
	if !domain.IsKind(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDashboardStoreFailureIsServiceError(t *testing.T) {
	uc := NewDashboardUseCase(&industryRepoFake{err: errors.New("connection refused")}, &techniqueRepoFake{})

	_, err := uc.Industries(context.Background())
	if !domain.IsKind(err, domain.ErrService) {
		t.Fatalf("expected ErrService, got %v", err)
	}
}

func TestDashboardTechniquesFilter(t *testing.T) {
	techniques := &techniqueRepoFake{listed: []domain.Technique{{ID: "t-1", Name: "Structured interviews"}}}
	uc := NewDashboardUseCase(&industryRepoFake{}, techniques)

	if _, err := uc.Techniques(context.Background(), domain.AllIndustries{}); err != nil {
		t.Fatalf("Techniques() error = %v", err)
	}
	if techniques.filter != "" {
		t.Fatalf("expected no filter for all industries, got %q", techniques.filter)
	}

	got, err := uc.Techniques(context.Background(), domain.ParseSelection("medical"))
	if err != nil {
		t.Fatalf("Techniques() error = %v", err)
	}
	if techniques.filter != "medical" || len(got) != 1 {
		t.Fatalf("expected medical filter, got %q and %+v", techniques.filter, got)
	}
}
