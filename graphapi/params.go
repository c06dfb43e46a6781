package graphapi

import (
	"log/slog"
	"strconv"
)

// LoraSelection pairs a LoRA model file with its strength.
type LoraSelection struct {
	Name     string
	Strength float64
}

// NamedParameters are the user-supplied values to inject into a workflow.
// Every value is validated and clamped to a safe range immediately before it
// is written; invalid values fall back to documented defaults instead of
// failing the submission.
type NamedParameters struct {
	PositivePrompt string
	NegativePrompt string

	Width     int
	Height    int
	BatchSize int

	Seed        int64
	Steps       int
	CFG         float64
	SamplerName string
	Scheduler   string
	Denoise     float64

	Loras      []LoraSelection
	Checkpoint string
	VAE        string
}

const (
	DefaultBatchSize = 1
	DefaultSteps     = 20
	DefaultCFG       = 7.0
	DefaultDimension = 1024
	DefaultDenoise   = 1.0
	DefaultSeed      = -1
	DefaultSampler   = "euler"
	DefaultScheduler = "normal"
)

// clampInt coerces v to an int and clamps it into [min, max]. Values that
// cannot be coerced are replaced by the fallback and logged; clamping itself
// never fails.
func clampInt(v interface{}, min, max, fallback int, what string) int {
	i, ok := coerceInt(v)
	if !ok {
		slog.Warn("parameter failed coercion, using fallback", "parameter", what, "value", v, "fallback", fallback)
		return fallback
	}
	if i < min {
		return min
	}
	if i > max {
		return max
	}
	return i
}

func clampFloat(v interface{}, min, max, fallback float64, what string) float64 {
	f, ok := coerceFloat(v)
	if !ok {
		slog.Warn("parameter failed coercion, using fallback", "parameter", what, "value", v, "fallback", fallback)
		return fallback
	}
	if f < min {
		return min
	}
	if f > max {
		return max
	}
	return f
}

// clampSeed passes any integer through; -1 means "random" on the server side.
func clampSeed(v interface{}) int64 {
	switch value := v.(type) {
	case int64:
		return value
	case int:
		return int64(value)
	case float64:
		return int64(value)
	case string:
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			return i
		}
	}
	slog.Warn("seed failed coercion, using random", "value", v)
	return DefaultSeed
}

func stringOrDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func coerceInt(v interface{}) (int, bool) {
	switch value := v.(type) {
	case int:
		return value, true
	case int64:
		return int(value), true
	case float64:
		return int(value), true
	case float32:
		return int(value), true
	case bool:
		if value {
			return 1, true
		}
		return 0, true
	case string:
		if i, err := strconv.Atoi(value); err == nil {
			return i, true
		}
	}
	return 0, false
}

func coerceFloat(v interface{}) (float64, bool) {
	switch value := v.(type) {
	case float64:
		return value, true
	case float32:
		return float64(value), true
	case int:
		return float64(value), true
	case int64:
		return float64(value), true
	case string:
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f, true
		}
	}
	return 0, false
}

// sanitized applies the full clamping table to a parameter set. The result is
// what actually gets written into the graph.
func (p NamedParameters) sanitized() NamedParameters {
	retv := p
	retv.BatchSize = clampInt(p.BatchSize, 1, 8, DefaultBatchSize, "batch_size")
	retv.Steps = clampInt(p.Steps, 1, 150, DefaultSteps, "steps")
	retv.CFG = clampFloat(p.CFG, 0.1, 30.0, DefaultCFG, "cfg")
	retv.Width = clampInt(p.Width, 64, 8192, DefaultDimension, "width")
	retv.Height = clampInt(p.Height, 64, 8192, DefaultDimension, "height")
	retv.Denoise = clampFloat(p.Denoise, 0.0, 1.0, DefaultDenoise, "denoise")
	retv.Seed = clampSeed(p.Seed)
	retv.SamplerName = stringOrDefault(p.SamplerName, DefaultSampler)
	retv.Scheduler = stringOrDefault(p.Scheduler, DefaultScheduler)
	return retv
}
