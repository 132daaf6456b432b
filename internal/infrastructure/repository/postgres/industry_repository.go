package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/kirillkom/decision-noise/internal/core/domain"
)

type IndustryRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewIndustryRepository(db *sql.DB) *IndustryRepository {
	return &IndustryRepository{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

const industryColumns = `id, name, description, metrics, findings, decision_hygiene, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *IndustryRepository) ListIndustries(ctx context.Context) ([]domain.Industry, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT `+industryColumns+`
FROM industries
ORDER BY name ASC, id ASC
`)
	if err != nil {
		return nil, fmt.Errorf("list industries: %w", err)
	}
	defer rows.Close()

	industries := make([]domain.Industry, 0)
	for rows.Next() {
		industry, err := scanIndustry(rows)
		if err != nil {
			return nil, err
		}
		industries = append(industries, *industry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate industries: %w", err)
	}
	return industries, nil
}

func (r *IndustryRepository) GetIndustry(ctx context.Context, id string) (*domain.Industry, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+industryColumns+`
FROM industries
WHERE id = $1
`, id)

	industry, err := scanIndustry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domainNotFound("get industry", "industry", id)
		}
		return nil, err
	}
	return industry, nil
}

func (r *IndustryRepository) UpsertIndustry(ctx context.Context, industry domain.Industry) error {
	metricsJSON, err := marshalList(industry.Metrics)
	if err != nil {
		return fmt.Errorf("marshal metrics: %w", err)
	}
	findingsJSON, err := marshalList(industry.Findings)
	if err != nil {
		return fmt.Errorf("marshal findings: %w", err)
	}
	hygieneJSON, err := json.Marshal(industry.Hygiene)
	if err != nil {
		return fmt.Errorf("marshal decision hygiene: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO industries (`+industryColumns+`)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (id) DO UPDATE SET
	name = EXCLUDED.name,
	description = EXCLUDED.description,
	metrics = EXCLUDED.metrics,
	findings = EXCLUDED.findings,
	decision_hygiene = EXCLUDED.decision_hygiene,
	updated_at = EXCLUDED.updated_at
`,
		industry.ID, industry.Name, industry.Description, metricsJSON, findingsJSON, hygieneJSON, r.now(),
	)
	if err != nil {
		return fmt.Errorf("upsert industry: %w", err)
	}
	return nil
}

func (r *IndustryRepository) ReplaceMetrics(ctx context.Context, id string, metrics []json.RawMessage) error {
	metricsJSON, err := marshalList(metrics)
	if err != nil {
		return fmt.Errorf("marshal metrics: %w", err)
	}
	return r.replaceColumn(ctx, "replace metrics", "metrics", id, metricsJSON)
}

func (r *IndustryRepository) ReplaceFindings(ctx context.Context, id string, findings []string) error {
	findingsJSON, err := marshalList(findings)
	if err != nil {
		return fmt.Errorf("marshal findings: %w", err)
	}
	return r.replaceColumn(ctx, "replace findings", "findings", id, findingsJSON)
}

func (r *IndustryRepository) ReplaceHygiene(ctx context.Context, id string, hygiene domain.DecisionHygiene) error {
	hygieneJSON, err := json.Marshal(hygiene)
	if err != nil {
		return fmt.Errorf("marshal decision hygiene: %w", err)
	}
	return r.replaceColumn(ctx, "replace decision hygiene", "decision_hygiene", id, hygieneJSON)
}

// replaceColumn is only called with the fixed column names above.
func (r *IndustryRepository) replaceColumn(ctx context.Context, op, column, id string, value []byte) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE industries
SET `+column+` = $2, updated_at = $3
WHERE id = $1
`, id, value, r.now())
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return requireRow(result, op, id)
}

func scanIndustry(row rowScanner) (*domain.Industry, error) {
	var industry domain.Industry
	var metricsRaw, findingsRaw, hygieneRaw []byte

	if err := row.Scan(
		&industry.ID, &industry.Name, &industry.Description,
		&metricsRaw, &findingsRaw, &hygieneRaw, &industry.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan industry: %w", err)
	}

	// Stored metric entries are not guaranteed well-formed; a non-array column yields none.
	if err := json.Unmarshal(metricsRaw, &industry.Metrics); err != nil {
		industry.Metrics = nil
	}
	if industry.Metrics == nil {
		industry.Metrics = []json.RawMessage{}
	}
	if err := json.Unmarshal(findingsRaw, &industry.Findings); err != nil {
		return nil, fmt.Errorf("unmarshal findings for %s: %w", industry.ID, err)
	}
	if industry.Findings == nil {
		industry.Findings = []string{}
	}
	if len(hygieneRaw) > 0 {
		if err := json.Unmarshal(hygieneRaw, &industry.Hygiene); err != nil {
			return nil, fmt.Errorf("unmarshal decision hygiene for %s: %w", industry.ID, err)
		}
	}
	return &industry, nil
}

func marshalList[T any](items []T) ([]byte, error) {
	if items == nil {
		items = []T{}
	}
	return json.Marshal(items)
}

func domainNotFound(op, entity, id string) error {
	return domain.WrapError(domain.ErrNotFound, op, fmt.Errorf("%s not found: id=%s", entity, id))
}
