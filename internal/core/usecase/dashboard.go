package usecase

import (
	"context"
	"fmt"

	"github.com/kirillkom/decision-noise/internal/core/domain"
	"github.com/kirillkom/decision-noise/internal/core/ports"
)

type DashboardUseCase struct {
	industries ports.IndustryRepository
	techniques ports.TechniqueRepository
	aggregator MetricsAggregator
}

func NewDashboardUseCase(industries ports.IndustryRepository, techniques ports.TechniqueRepository) *DashboardUseCase {
	return &DashboardUseCase{
		industries: industries,
		techniques: techniques,
		aggregator: NewMetricsAggregator(),
	}
}

func (uc *DashboardUseCase) Industries(ctx context.Context) ([]domain.Industry, error) {
	industries, err := uc.industries.ListIndustries(ctx)
	if err != nil {
		return nil, dataServiceError("list industries", err)
	}
	return industries, nil
}

func (uc *DashboardUseCase) Metrics(ctx context.Context, selection domain.IndustrySelection) ([]domain.AggregatedMetric, error) {
	switch sel := selection.(type) {
	case domain.AllIndustries:
		industries, err := uc.Industries(ctx)
		if err != nil {
			return nil, err
		}
		return uc.aggregator.Aggregate(industries, sel), nil
	case domain.SingleIndustry:
		industry, err := uc.industries.GetIndustry(ctx, sel.ID)
		if err != nil {
			return nil, dataServiceError("get industry", err)
		}
		return uc.aggregator.Aggregate([]domain.Industry{*industry}, sel), nil
	default:
		return nil, domain.WrapError(domain.ErrInvalidInput, "metrics", fmt.Errorf("unsupported selection %T", selection))
	}
}

func (uc *DashboardUseCase) Techniques(ctx context.Context, selection domain.IndustrySelection) ([]domain.Technique, error) {
	var industryID string
	switch sel := selection.(type) {
	case domain.AllIndustries:
	case domain.SingleIndustry:
		industryID = sel.ID
	default:
		return nil, domain.WrapError(domain.ErrInvalidInput, "techniques", fmt.Errorf("unsupported selection %T", selection))
	}

	techniques, err := uc.techniques.ListTechniques(ctx, industryID)
	if err != nil {
		return nil, dataServiceError("list techniques", err)
	}
	return techniques, nil
}

// dataServiceError tags store failures as service errors, leaving typed kinds intact.
func dataServiceError(operation string, err error) error {
	if domain.IsKind(err, domain.ErrNotFound) || domain.IsKind(err, domain.ErrService) {
		return err
	}
	return domain.WrapError(domain.ErrService, operation, err)
}
