package seed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kirillkom/decision-noise/internal/core/domain"
	"github.com/kirillkom/decision-noise/internal/core/ports"
)

// File is the curated content document. Metrics are decoded as generic values
// and re-encoded as raw JSON so malformed entries survive until aggregation drops them.
type File struct {
	Industries []IndustryEntry  `yaml:"industries"`
	Techniques []TechniqueEntry `yaml:"techniques"`
}

type IndustryEntry struct {
	ID          string       `yaml:"id"`
	Name        string       `yaml:"name"`
	Description string       `yaml:"description"`
	Metrics     []any        `yaml:"metrics"`
	Findings    []string     `yaml:"findings"`
	Hygiene     HygieneEntry `yaml:"decision_hygiene"`
}

type HygieneEntry struct {
	Checklists []struct {
		Title       string   `yaml:"title"`
		Description string   `yaml:"description"`
		Items       []string `yaml:"items"`
	} `yaml:"checklists"`
	Techniques map[string]struct {
		Description string   `yaml:"description"`
		Examples    []string `yaml:"examples"`
	} `yaml:"techniques"`
	BestPractices []string `yaml:"best_practices"`
	ImpactMetrics []struct {
		Metric      string `yaml:"metric"`
		Value       string `yaml:"value"`
		Description string `yaml:"description"`
	} `yaml:"impact_metrics"`
}

type TechniqueEntry struct {
	ID                  string         `yaml:"id"`
	Name                string         `yaml:"name"`
	Description         string         `yaml:"description"`
	ImpactMetrics       map[string]any `yaml:"impact_metrics"`
	ImplementationSteps []string       `yaml:"implementation_steps"`
	Industries          []string       `yaml:"industries"`
}

func LoadFile(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

func Decode(r io.Reader) (*File, error) {
	var file File
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return &file, nil
		}
		return nil, domain.WrapError(domain.ErrInvalidInput, "decode seed file", err)
	}
	for i, industry := range file.Industries {
		if industry.ID == "" || industry.Name == "" {
			return nil, domain.WrapError(domain.ErrInvalidInput, "decode seed file", fmt.Errorf("industry %d: id and name are required", i))
		}
	}
	for i, technique := range file.Techniques {
		if technique.ID == "" || technique.Name == "" {
			return nil, domain.WrapError(domain.ErrInvalidInput, "decode seed file", fmt.Errorf("technique %d: id and name are required", i))
		}
	}
	return &file, nil
}

func (e IndustryEntry) toDomain() (domain.Industry, error) {
	metrics := make([]json.RawMessage, 0, len(e.Metrics))
	for i, metric := range e.Metrics {
		raw, err := json.Marshal(metric)
		if err != nil {
			return domain.Industry{}, fmt.Errorf("industry %s metric %d: %w", e.ID, i, err)
		}
		metrics = append(metrics, raw)
	}

	hygiene := domain.DecisionHygiene{
		Techniques:    make(map[string]domain.HygieneTechnique, len(e.Hygiene.Techniques)),
		BestPractices: e.Hygiene.BestPractices,
	}
	for _, c := range e.Hygiene.Checklists {
		hygiene.Checklists = append(hygiene.Checklists, domain.Checklist{Title: c.Title, Description: c.Description, Items: c.Items})
	}
	for name, t := range e.Hygiene.Techniques {
		hygiene.Techniques[name] = domain.HygieneTechnique{Description: t.Description, Examples: t.Examples}
	}
	for _, m := range e.Hygiene.ImpactMetrics {
		hygiene.ImpactMetrics = append(hygiene.ImpactMetrics, domain.ImpactMetric{Metric: m.Metric, Value: m.Value, Description: m.Description})
	}

	return domain.Industry{
		ID:          e.ID,
		Name:        e.Name,
		Description: e.Description,
		Metrics:     metrics,
		Findings:    e.Findings,
		Hygiene:     hygiene,
	}, nil
}

func (e TechniqueEntry) toDomain() (domain.Technique, error) {
	impact, err := json.Marshal(e.ImpactMetrics)
	if err != nil {
		return domain.Technique{}, fmt.Errorf("technique %s impact metrics: %w", e.ID, err)
	}
	return domain.Technique{
		ID:                  e.ID,
		Name:                e.Name,
		Description:         e.Description,
		ImpactMetrics:       domain.ParseImpactMetrics(impact),
		ImplementationSteps: e.ImplementationSteps,
		Industries:          e.Industries,
	}, nil
}

// Apply upserts the file's content. Running it twice yields the same store state.
func Apply(ctx context.Context, file *File, industries ports.IndustryRepository, techniques ports.TechniqueRepository, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	for _, entry := range file.Industries {
		industry, err := entry.toDomain()
		if err != nil {
			return err
		}
		if err := industries.UpsertIndustry(ctx, industry); err != nil {
			return fmt.Errorf("seed industry %s: %w", industry.ID, err)
		}
	}

	list := make([]domain.Technique, 0, len(file.Techniques))
	for _, entry := range file.Techniques {
		technique, err := entry.toDomain()
		if err != nil {
			return err
		}
		list = append(list, technique)
	}
	if err := techniques.UpsertTechniques(ctx, list); err != nil {
		return fmt.Errorf("seed techniques: %w", err)
	}

	logger.Info("seed_applied", "industries", len(file.Industries), "techniques", len(list))
	return nil
}
