package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kirillkom/decision-noise/internal/core/domain"
	"github.com/kirillkom/decision-noise/internal/core/ports"
)

// ApplyNoiseDataUseCase is the transformation function: it writes processed
// noise data into the structured store.
type ApplyNoiseDataUseCase struct {
	industries ports.IndustryRepository
	techniques ports.TechniqueRepository
	now        func() time.Time
}

func NewApplyNoiseDataUseCase(industries ports.IndustryRepository, techniques ports.TechniqueRepository) *ApplyNoiseDataUseCase {
	return &ApplyNoiseDataUseCase{
		industries: industries,
		techniques: techniques,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

type applyResult struct {
	IndustryID  string          `json:"industry_id"`
	DataType    domain.DataType `json:"data_type"`
	Applied     int             `json:"applied"`
	ProcessedAt time.Time       `json:"processed_at"`
}

// techniqueInput decodes impact metrics leniently; non-numeric values are dropped.
type techniqueInput struct {
	ID                  string          `json:"id"`
	Name                string          `json:"name"`
	Description         string          `json:"description"`
	ImpactMetrics       json.RawMessage `json:"impact_metrics"`
	ImplementationSteps []string        `json:"implementation_steps"`
	Industries          []string        `json:"industries"`
}

func (uc *ApplyNoiseDataUseCase) Apply(ctx context.Context, req domain.ProcessRequest) (domain.ProcessedResult, error) {
	industryID := strings.TrimSpace(req.IndustryID)
	if industryID == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "apply noise data", errors.New("industry_id is required"))
	}
	dataType, err := domain.ParseDataType(string(req.DataType))
	if err != nil {
		return nil, err
	}

	var applied int
	switch dataType {
	case domain.DataTypeMetrics:
		applied, err = uc.applyMetrics(ctx, industryID, req.Content)
	case domain.DataTypeFindings:
		applied, err = uc.applyFindings(ctx, industryID, req.Content)
	case domain.DataTypeHygiene:
		applied, err = uc.applyHygiene(ctx, industryID, req.Content)
	case domain.DataTypeTechniques:
		applied, err = uc.applyTechniques(ctx, industryID, req.Content)
	}
	if err != nil {
		return nil, err
	}

	raw, err := json.Marshal(applyResult{
		IndustryID:  industryID,
		DataType:    dataType,
		Applied:     applied,
		ProcessedAt: uc.now(),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal apply result: %w", err)
	}
	return domain.ProcessedResult(raw), nil
}

func (uc *ApplyNoiseDataUseCase) applyMetrics(ctx context.Context, industryID string, content json.RawMessage) (int, error) {
	var entries []json.RawMessage
	if err := json.Unmarshal(content, &entries); err != nil {
		return 0, domain.WrapError(domain.ErrInvalidInput, "decode metrics", err)
	}
	if err := uc.industries.ReplaceMetrics(ctx, industryID, entries); err != nil {
		return 0, fmt.Errorf("replace metrics: %w", err)
	}
	return len(entries), nil
}

func (uc *ApplyNoiseDataUseCase) applyFindings(ctx context.Context, industryID string, content json.RawMessage) (int, error) {
	var findings []string
	if err := json.Unmarshal(content, &findings); err != nil {
		return 0, domain.WrapError(domain.ErrInvalidInput, "decode findings", err)
	}
	if err := uc.industries.ReplaceFindings(ctx, industryID, findings); err != nil {
		return 0, fmt.Errorf("replace findings: %w", err)
	}
	return len(findings), nil
}

func (uc *ApplyNoiseDataUseCase) applyHygiene(ctx context.Context, industryID string, content json.RawMessage) (int, error) {
	var hygiene domain.DecisionHygiene
	if err := json.Unmarshal(content, &hygiene); err != nil {
		return 0, domain.WrapError(domain.ErrInvalidInput, "decode hygiene", err)
	}
	if err := uc.industries.ReplaceHygiene(ctx, industryID, hygiene); err != nil {
		return 0, fmt.Errorf("replace hygiene: %w", err)
	}
	return len(hygiene.Checklists) + len(hygiene.Techniques) + len(hygiene.BestPractices) + len(hygiene.ImpactMetrics), nil
}

func (uc *ApplyNoiseDataUseCase) applyTechniques(ctx context.Context, industryID string, content json.RawMessage) (int, error) {
	// Techniques default to the uploading industry, so it has to exist.
	if _, err := uc.industries.GetIndustry(ctx, industryID); err != nil {
		return 0, err
	}

	var inputs []techniqueInput
	if err := json.Unmarshal(content, &inputs); err != nil {
		return 0, domain.WrapError(domain.ErrInvalidInput, "decode techniques", err)
	}

	techniques := make([]domain.Technique, 0, len(inputs))
	for i, in := range inputs {
		if strings.TrimSpace(in.ID) == "" || strings.TrimSpace(in.Name) == "" {
			return 0, domain.WrapError(domain.ErrInvalidInput, "decode techniques", fmt.Errorf("technique %d: id and name are required", i))
		}
		industries := in.Industries
		if len(industries) == 0 {
			industries = []string{industryID}
		}
		techniques = append(techniques, domain.Technique{
			ID:                  in.ID,
			Name:                in.Name,
			Description:         in.Description,
			ImpactMetrics:       domain.ParseImpactMetrics(in.ImpactMetrics),
			ImplementationSteps: in.ImplementationSteps,
			Industries:          industries,
		})
	}

	if err := uc.techniques.UpsertTechniques(ctx, techniques); err != nil {
		return 0, fmt.Errorf("upsert techniques: %w", err)
	}
	return len(techniques), nil
}
