package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kirillkom/decision-noise/internal/core/domain"
)

type TechniqueRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewTechniqueRepository(db *sql.DB) *TechniqueRepository {
	return &TechniqueRepository{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// ListTechniques returns techniques whose industries array contains industryID,
// or every technique when industryID is empty.
func (r *TechniqueRepository) ListTechniques(ctx context.Context, industryID string) ([]domain.Technique, error) {
	const base = `
SELECT id, name, description, impact_metrics, implementation_steps, industries
FROM techniques
`
	var (
		rows *sql.Rows
		err  error
	)
	if industryID == "" {
		rows, err = r.db.QueryContext(ctx, base+`ORDER BY name ASC, id ASC`)
	} else {
		filter, marshalErr := json.Marshal([]string{industryID})
		if marshalErr != nil {
			return nil, fmt.Errorf("marshal industry filter: %w", marshalErr)
		}
		rows, err = r.db.QueryContext(ctx, base+`WHERE industries @> $1::jsonb
ORDER BY name ASC, id ASC`, filter)
	}
	if err != nil {
		return nil, fmt.Errorf("list techniques: %w", err)
	}
	defer rows.Close()

	techniques := make([]domain.Technique, 0)
	for rows.Next() {
		var technique domain.Technique
		var impactRaw, stepsRaw, industriesRaw []byte
		if err := rows.Scan(
			&technique.ID, &technique.Name, &technique.Description,
			&impactRaw, &stepsRaw, &industriesRaw,
		); err != nil {
			return nil, fmt.Errorf("scan technique: %w", err)
		}
		technique.ImpactMetrics = domain.ParseImpactMetrics(impactRaw)
		if err := json.Unmarshal(stepsRaw, &technique.ImplementationSteps); err != nil {
			return nil, fmt.Errorf("unmarshal implementation steps for %s: %w", technique.ID, err)
		}
		if err := json.Unmarshal(industriesRaw, &technique.Industries); err != nil {
			return nil, fmt.Errorf("unmarshal industries for %s: %w", technique.ID, err)
		}
		techniques = append(techniques, technique)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate techniques: %w", err)
	}
	return techniques, nil
}

// UpsertTechniques writes all techniques in one transaction.
func (r *TechniqueRepository) UpsertTechniques(ctx context.Context, techniques []domain.Technique) error {
	if len(techniques) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin techniques tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	now := r.now()
	for _, technique := range techniques {
		impactJSON, err := json.Marshal(nonNilMap(technique.ImpactMetrics))
		if err != nil {
			return fmt.Errorf("marshal impact metrics: %w", err)
		}
		stepsJSON, err := marshalList(technique.ImplementationSteps)
		if err != nil {
			return fmt.Errorf("marshal implementation steps: %w", err)
		}
		industriesJSON, err := marshalList(technique.Industries)
		if err != nil {
			return fmt.Errorf("marshal industries: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
INSERT INTO techniques (id, name, description, impact_metrics, implementation_steps, industries, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (id) DO UPDATE SET
	name = EXCLUDED.name,
	description = EXCLUDED.description,
	impact_metrics = EXCLUDED.impact_metrics,
	implementation_steps = EXCLUDED.implementation_steps,
	industries = EXCLUDED.industries,
	updated_at = EXCLUDED.updated_at
`,
			technique.ID, technique.Name, technique.Description, impactJSON, stepsJSON, industriesJSON, now,
		); err != nil {
			return fmt.Errorf("upsert technique %s: %w", technique.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit techniques tx: %w", err)
	}
	return nil
}

func nonNilMap(m map[string]float64) map[string]float64 {
	if m == nil {
		return map[string]float64{}
	}
	return m
}
