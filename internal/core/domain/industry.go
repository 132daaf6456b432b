package domain

import (
	"encoding/json"
	"time"
)

// Industry is a domain vertical with its curated noise research content.
// Metrics are kept as raw JSON entries: the store does not guarantee their shape.
type Industry struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Metrics     []json.RawMessage `json:"metrics"`
	Findings    []string          `json:"findings"`
	Hygiene     DecisionHygiene   `json:"decision_hygiene"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

type Metric struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// AggregatedMetric is derived on every aggregation call and never persisted.
type AggregatedMetric struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

type DecisionHygiene struct {
	Checklists    []Checklist                 `json:"checklists"`
	Techniques    map[string]HygieneTechnique `json:"techniques"`
	BestPractices []string                    `json:"best_practices"`
	ImpactMetrics []ImpactMetric              `json:"impact_metrics"`
}

type Checklist struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Items       []string `json:"items"`
}

type HygieneTechnique struct {
	Description string   `json:"description"`
	Examples    []string `json:"examples"`
}

type ImpactMetric struct {
	Metric      string `json:"metric"`
	Value       string `json:"value"`
	Description string `json:"description"`
}

// Technique is a standardized noise-reduction technique applicable to one or more industries.
type Technique struct {
	ID                  string             `json:"id"`
	Name                string             `json:"name"`
	Description         string             `json:"description"`
	ImpactMetrics       map[string]float64 `json:"impact_metrics"`
	ImplementationSteps []string           `json:"implementation_steps"`
	Industries          []string           `json:"industries"`
}
