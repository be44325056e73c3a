package stats

import (
	"math"
	"slices"
	"sync"
)

// Stat is the summary of one recorded series.
type Stat struct {
	Mean     float64 `json:"mean"`
	Median   float64 `json:"median"`
	Min      int64   `json:"min"`
	Max      int64   `json:"max"`
	Count    int     `json:"count"`
	Sum      int64   `json:"sum"`
	Variance float64 `json:"variance"`
}

// ICollector records named series of values.
type ICollector interface {
	// Incr adds value to the series named stat.
	Incr(stat string, value int64)
	// Timing records a duration in nanoseconds in the series named stat.
	Timing(stat string, value int64)
	// Summary returns the summary of every series.
	Summary() map[string]*Stat
}

// HistogramCollector keeps every recorded value and summarizes them on demand.
type HistogramCollector struct {
	mu     sync.RWMutex
	series map[string][]int64
}

// NewHistogramCollector creates an empty histogram collector.
func NewHistogramCollector() *HistogramCollector {
	return &HistogramCollector{
		series: make(map[string][]int64),
	}
}

// Incr adds value to the series named stat.
func (c *HistogramCollector) Incr(stat string, value int64) {
	c.record(stat, value)
}

// Timing records a duration in the series named stat.
func (c *HistogramCollector) Timing(stat string, value int64) {
	c.record(stat, value)
}

func (c *HistogramCollector) record(stat string, value int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.series[stat] = append(c.series[stat], value)
}

// Summary returns mean, median, min, max, count, sum and variance of every series.
func (c *HistogramCollector) Summary() map[string]*Stat {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]*Stat, len(c.series))

	for name, recorded := range c.series {
		if len(recorded) == 0 {
			continue
		}

		values := slices.Clone(recorded)
		slices.Sort(values)

		var sum int64
		for _, v := range values {
			sum += v
		}

		mean := float64(sum) / float64(len(values))

		out[name] = &Stat{
			Mean:     mean,
			Median:   median(values),
			Min:      values[0],
			Max:      values[len(values)-1],
			Count:    len(values),
			Sum:      sum,
			Variance: variance(values, mean),
		}
	}

	return out
}

// median expects sorted values.
func median(values []int64) float64 {
	mid := len(values) / 2
	if len(values)%2 == 0 {
		return float64(values[mid-1]+values[mid]) / 2
	}

	return float64(values[mid])
}

func variance(values []int64, mean float64) float64 {
	var acc float64
	for _, value := range values {
		acc += math.Pow(float64(value)-mean, 2)
	}

	return acc / float64(len(values))
}
