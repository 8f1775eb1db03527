package render

import (
	"fmt"
	"math"
	"sort"

	"slidereel/internal/services"
)

// Sequence is an ordered list of frame image paths. Order defines playback.
type Sequence []string

// DurationMap assigns display seconds to 0-based sequence positions. Missing
// positions take the renderer's default duration.
type DurationMap map[int]float64

// Resolve produces one duration per frame for a sequence of n frames, filling
// gaps with def. Keys outside [0,n) and non-positive values are rejected.
func (d DurationMap) Resolve(n int, def float64) ([]float64, error) {
	if def <= 0 || math.IsNaN(def) || math.IsInf(def, 0) {
		return nil, services.Wrap(services.ErrValidation, "render", "durations", fmt.Sprintf("default duration must be positive, got %v", def), nil)
	}
	keys := make([]int, 0, len(d))
	for index := range d {
		keys = append(keys, index)
	}
	sort.Ints(keys)
	for _, index := range keys {
		if index < 0 || index >= n {
			return nil, services.Wrap(services.ErrValidation, "render", "durations",
				fmt.Sprintf("duration override for frame %d but sequence has %d frames", index, n), nil)
		}
		value := d[index]
		if value <= 0 || math.IsNaN(value) || math.IsInf(value, 0) {
			return nil, services.Wrap(services.ErrValidation, "render", "durations",
				fmt.Sprintf("duration for frame %d must be positive, got %v", index, value), nil)
		}
	}
	resolved := make([]float64, n)
	for i := range resolved {
		if value, ok := d[i]; ok {
			resolved[i] = value
		} else {
			resolved[i] = def
		}
	}
	return resolved, nil
}

// Uniform returns a DurationMap giving every one of n frames the same duration.
func Uniform(n int, seconds float64) DurationMap {
	out := make(DurationMap, n)
	for i := 0; i < n; i++ {
		out[i] = seconds
	}
	return out
}

// TotalSeconds sums resolved durations.
func TotalSeconds(durations []float64) float64 {
	total := 0.0
	for _, d := range durations {
		total += d
	}
	return total
}
