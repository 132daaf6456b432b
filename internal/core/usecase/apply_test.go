package usecase

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/kirillkom/decision-noise/internal/core/domain"
)

func TestApplyMetricsReplacesIndustryMetrics(t *testing.T) {
	industries := &industryRepoFake{industries: []domain.Industry{{ID: "legal"}}}
	uc := NewApplyNoiseDataUseCase(industries, &techniqueRepoFake{})

	result, err := uc.Apply(context.Background(), domain.ProcessRequest{
		IndustryID: "legal",
		DataType:   domain.DataTypeMetrics,
		Content:    json.RawMessage(`[{"name":"Sentencing variance","value":55},{"name":"broken"}]`),
	})
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if len(industries.replacedMetrics) != 2 {
		t.Fatalf("expected raw entries to be stored as-is, got %d", len(industries.replacedMetrics))
	}

	var decoded struct {
		IndustryID string `json:"industry_id"`
		DataType   string `json:"data_type"`
		Applied    int    `json:"applied"`
	}
	if err := json.Unmarshal(result, &decoded); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if decoded.IndustryID != "legal" || decoded.DataType != "metrics" || decoded.Applied != 2 {
		t.Fatalf("unexpected result: %s", result)
	}
}

func TestApplyFindingsUnknownIndustry(t *testing.T) {
	uc := NewApplyNoiseDataUseCase(&industryRepoFake{}, &techniqueRepoFake{})

	_, err := uc.Apply(context.Background(), domain.ProcessRequest{
		IndustryID: "ghost",
		DataType:   domain.DataTypeFindings,
		Content:    json.RawMessage(`["noise is everywhere"]`),
	})
	if !domain.IsKind(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestApplyTechniquesUnknownIndustry(t *testing.T) {
	techniques := &techniqueRepoFake{}
	uc := NewApplyNoiseDataUseCase(&industryRepoFake{}, techniques)

	result, err := uc.Apply(context.Background(), domain.ProcessRequest{
		IndustryID: "ghost",
		DataType:   domain.DataTypeTechniques,
		Content:    json.RawMessage(`[{"id":"t1","name":"Checklist"}]`),
	})
	if !domain.IsKind(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v (result %s)", err, result)
	}
	if len(techniques.upserted) != 0 {
		t.Fatalf("expected nothing upserted, got %+v", techniques.upserted)
	}
}

func TestApplyRejectsWrongContentShape(t *testing.T) {
	uc := NewApplyNoiseDataUseCase(&industryRepoFake{industries: []domain.Industry{{ID: "hr"}}}, &techniqueRepoFake{})

	_, err := uc.Apply(context.Background(), domain.ProcessRequest{
		IndustryID: "hr",
		DataType:   domain.DataTypeFindings,
		Content:    json.RawMessage(`{"not":"a list"}`),
	})
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestApplyRejectsUnknownDataType(t *testing.T) {
	uc := NewApplyNoiseDataUseCase(&industryRepoFake{}, &techniqueRepoFake{})

	_, err := uc.Apply(context.Background(), domain.ProcessRequest{IndustryID: "hr", DataType: "charts", Content: json.RawMessage(`[]`)})
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestApplyTechniquesDefaultsIndustryAndDropsBadImpactValues(t *testing.T) {
	techniques := &techniqueRepoFake{}
	uc := NewApplyNoiseDataUseCase(&industryRepoFake{industries: []domain.Industry{{ID: "education"}}}, techniques)

	_, err := uc.Apply(context.Background(), domain.ProcessRequest{
		IndustryID: "education",
		DataType:   domain.DataTypeTechniques,
		Content: json.RawMessage(`[{
			"id":"blind-grading",
			"name":"Blind grading",
			"impact_metrics":{"noise_reduction":35,"note":"high"},
			"implementation_steps":["Remove names"]
		}]`),
	})
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if len(techniques.upserted) != 1 {
		t.Fatalf("expected one upserted technique, got %d", len(techniques.upserted))
	}
	got := techniques.upserted[0]
	if len(got.Industries) != 1 || got.Industries[0] != "education" {
		t.Fatalf("expected default industry, got %v", got.Industries)
	}
	if len(got.ImpactMetrics) != 1 || got.ImpactMetrics["noise_reduction"] != 35 {
		t.Fatalf("unexpected impact metrics: %v", got.ImpactMetrics)
	}
}

func TestApplyTechniquesRequiresIDAndName(t *testing.T) {
	uc := NewApplyNoiseDataUseCase(&industryRepoFake{industries: []domain.Industry{{ID: "education"}}}, &techniqueRepoFake{})

	_, err := uc.Apply(context.Background(), domain.ProcessRequest{
		IndustryID: "education",
		DataType:   domain.DataTypeTechniques,
		Content:    json.RawMessage(`[{"name":"nameless"}]`),
	})
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
