package usecase

import (
	"encoding/json"
	"math"

	"github.com/kirillkom/decision-noise/internal/core/domain"
)

// MetricsAggregator builds the metric view for an industry selection. It is
// pure: no I/O, and the same input order always yields the same output.
type MetricsAggregator struct{}

func NewMetricsAggregator() MetricsAggregator {
	return MetricsAggregator{}
}

func (MetricsAggregator) Aggregate(industries []domain.Industry, selection domain.IndustrySelection) []domain.AggregatedMetric {
	switch sel := selection.(type) {
	case domain.SingleIndustry:
		return singleIndustryMetrics(industries, sel.ID)
	case domain.AllIndustries:
		return crossIndustryMetrics(industries)
	default:
		return []domain.AggregatedMetric{}
	}
}

func singleIndustryMetrics(industries []domain.Industry, id string) []domain.AggregatedMetric {
	out := []domain.AggregatedMetric{}
	for _, industry := range industries {
		if industry.ID != id {
			continue
		}
		for _, metric := range validMetrics(industry.Metrics) {
			out = append(out, domain.AggregatedMetric{Name: metric.Name, Value: metric.Value})
		}
		return out
	}
	return out
}

// crossIndustryMetrics averages same-named metrics across industries. Names
// are compared exactly and emitted in order of first occurrence.
func crossIndustryMetrics(industries []domain.Industry) []domain.AggregatedMetric {
	type accumulator struct {
		sum   float64
		count int
	}

	order := make([]string, 0)
	groups := make(map[string]*accumulator)
	for _, industry := range industries {
		for _, metric := range validMetrics(industry.Metrics) {
			acc, ok := groups[metric.Name]
			if !ok {
				acc = &accumulator{}
				groups[metric.Name] = acc
				order = append(order, metric.Name)
			}
			acc.sum += metric.Value
			acc.count++
		}
	}

	out := make([]domain.AggregatedMetric, 0, len(order))
	for _, name := range order {
		acc := groups[name]
		out = append(out, domain.AggregatedMetric{
			Name:  name,
			Value: math.Round(acc.sum / float64(acc.count)),
		})
	}
	return out
}

func validMetrics(entries []json.RawMessage) []domain.Metric {
	out := make([]domain.Metric, 0, len(entries))
	for _, raw := range entries {
		if metric, ok := domain.ParseMetric(raw); ok {
			out = append(out, metric)
		}
	}
	return out
}
