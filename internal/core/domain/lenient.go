package domain

import (
	"bytes"
	"encoding/json"
)

// ParseMetric accepts a raw entry only when it is an object with a string name
// and a number value. Anything else is reported as not ok.
func ParseMetric(raw json.RawMessage) (Metric, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return Metric{}, false
	}

	nameRaw := bytes.TrimSpace(fields["name"])
	if len(nameRaw) == 0 || nameRaw[0] != '"' {
		return Metric{}, false
	}
	var metric Metric
	if err := json.Unmarshal(nameRaw, &metric.Name); err != nil {
		return Metric{}, false
	}

	value, ok := parseNumber(fields["value"])
	if !ok {
		return Metric{}, false
	}
	metric.Value = value
	return metric, true
}

// ParseImpactMetrics keeps the numeric entries of a technique's impact map.
func ParseImpactMetrics(raw json.RawMessage) map[string]float64 {
	out := map[string]float64{}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return out
	}
	for key, value := range fields {
		if n, ok := parseNumber(value); ok {
			out[key] = n
		}
	}
	return out
}

func parseNumber(raw json.RawMessage) (float64, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0, false
	}
	if c := raw[0]; c != '-' && (c < '0' || c > '9') {
		return 0, false
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, false
	}
	return n, true
}
