package analysis

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"salescope/internal/dataset"
	"salescope/internal/stats"
)

// UnivariateView is the distribution chart for a single numeric column.
// Columns with fewer than DiscreteThreshold distinct values render as discrete
// frequency bars over the raw values; everything else renders as a histogram
// with a kernel density curve, the familiar histplot+KDE pairing.
type UnivariateView struct {
	Availability
	Column      string          `json:"column,omitempty"`
	Discrete    bool            `json:"discrete,omitempty"`
	Frequencies []ValueCount    `json:"frequencies,omitempty"`
	Bins        []HistogramBin  `json:"bins,omitempty"`
	Density     []DensityPoint  `json:"density,omitempty"`
	Summary     *NumericSummary `json:"summary,omitempty"`
}

// HistogramBin is one histogram bar over [Start, End).
type HistogramBin struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Count int     `json:"count"`
}

// DensityPoint is one sample of the KDE curve.
type DensityPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NumericSummary mirrors a single-column describe.
type NumericSummary struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
	Min    float64 `json:"min"`
	Q25    float64 `json:"q25"`
	Median float64 `json:"median"`
	Q75    float64 `json:"q75"`
	Max    float64 `json:"max"`
}

// BuildUnivariate renders the distribution view for the chosen numeric column.
func BuildUnivariate(t *dataset.Table, column string) UnivariateView {
	if column == "" {
		return UnivariateView{Availability: Unavailable("no numeric columns found")}
	}
	idx := t.ColumnIndex(column)
	if idx < 0 {
		return UnivariateView{Availability: Unavailable(fmt.Sprintf("column %q does not exist", column))}
	}
	if t.Columns[idx].Kind != dataset.KindNumeric {
		return UnivariateView{Availability: Unavailable(fmt.Sprintf("column %q is not numeric", column))}
	}

	values := t.NumericValues(column)
	if len(values) == 0 {
		return UnivariateView{Availability: Unavailable(fmt.Sprintf("column %q has no values", column))}
	}

	view := UnivariateView{
		Availability: Rendered(),
		Column:       column,
		Summary:      summarize(values),
	}

	distinct := distinctCount(values)
	if distinct < DiscreteThreshold {
		view.Discrete = true
		view.Frequencies = discreteFrequencies(values)
		return view
	}

	view.Bins = histogram(values)
	view.Density = kde(values)
	return view
}

func summarize(values []float64) *NumericSummary {
	min, max := stats.MinMax(values)
	return &NumericSummary{
		Count:  len(values),
		Mean:   stats.Mean(values),
		Std:    stats.Std(values),
		Min:    min,
		Q25:    stats.Quantile(values, 0.25),
		Median: stats.Median(values),
		Q75:    stats.Quantile(values, 0.75),
		Max:    max,
	}
}

func distinctCount(values []float64) int {
	seen := make(map[float64]bool, len(values))
	for _, v := range values {
		seen[v] = true
	}
	return len(seen)
}

// discreteFrequencies counts raw values, bars ordered by ascending value.
func discreteFrequencies(values []float64) []ValueCount {
	counts := make(map[float64]int)
	for _, v := range values {
		counts[v]++
	}
	keys := make([]float64, 0, len(counts))
	for v := range counts {
		keys = append(keys, v)
	}
	sort.Float64s(keys)

	out := make([]ValueCount, 0, len(keys))
	for _, v := range keys {
		out = append(out, ValueCount{
			Value: strconv.FormatFloat(v, 'f', -1, 64),
			Count: counts[v],
		})
	}
	return out
}

// histogram bins values with Sturges' rule over [min, max]; the top edge is
// inclusive so the maximum lands in the last bin.
func histogram(values []float64) []HistogramBin {
	min, max := stats.MinMax(values)
	if min == max {
		return []HistogramBin{{Start: min, End: max, Count: len(values)}}
	}

	binCount := int(math.Ceil(math.Log2(float64(len(values))))) + 1
	if binCount < 1 {
		binCount = 1
	}
	width := (max - min) / float64(binCount)

	bins := make([]HistogramBin, binCount)
	for i := range bins {
		bins[i] = HistogramBin{Start: min + float64(i)*width, End: min + float64(i+1)*width}
	}
	for _, v := range values {
		i := int((v - min) / width)
		if i >= binCount {
			i = binCount - 1
		}
		bins[i].Count++
	}
	return bins
}

// kde evaluates a Gaussian kernel density estimate with Silverman's bandwidth
// at 100 evenly spaced points across the data range.
func kde(values []float64) []DensityPoint {
	const points = 100

	n := float64(len(values))
	std := stats.Std(values)
	iqr := stats.Quantile(values, 0.75) - stats.Quantile(values, 0.25)

	spread := std
	if iqr > 0 && iqr/1.34 < spread {
		spread = iqr / 1.34
	}
	if spread == 0 {
		return nil
	}
	bandwidth := 0.9 * spread * math.Pow(n, -0.2)

	min, max := stats.MinMax(values)
	step := (max - min) / float64(points-1)

	out := make([]DensityPoint, points)
	norm := 1 / (n * bandwidth * math.Sqrt(2*math.Pi))
	for i := 0; i < points; i++ {
		x := min + float64(i)*step
		sum := 0.0
		for _, v := range values {
			z := (x - v) / bandwidth
			sum += math.Exp(-0.5 * z * z)
		}
		out[i] = DensityPoint{X: x, Y: norm * sum}
	}
	return out
}
