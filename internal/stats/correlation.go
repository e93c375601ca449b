package stats

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// CorrelationMethod selects the pairwise correlation measure.
type CorrelationMethod string

const (
	Pearson  CorrelationMethod = "pearson"
	Spearman CorrelationMethod = "spearman"
	Kendall  CorrelationMethod = "kendall"
)

// ParseCorrelationMethod maps user input to a supported method.
func ParseCorrelationMethod(s string) (CorrelationMethod, error) {
	switch CorrelationMethod(strings.ToLower(strings.TrimSpace(s))) {
	case Pearson, "":
		return Pearson, nil
	case Spearman:
		return Spearman, nil
	case Kendall:
		return Kendall, nil
	default:
		return "", fmt.Errorf("unsupported correlation method %q", s)
	}
}

// Correlate computes the correlation between two equal-length series using the
// given method. Fewer than two points, or a constant series under pearson or
// spearman, yields NaN — matching how statistical packages report an undefined
// coefficient.
func Correlate(x, y []float64, method CorrelationMethod) float64 {
	if len(x) != len(y) || len(x) < 2 {
		return math.NaN()
	}
	switch method {
	case Spearman:
		return pearson(rank(x), rank(y))
	case Kendall:
		return kendallTauB(x, y)
	default:
		return pearson(x, y)
	}
}

func pearson(x, y []float64) float64 {
	meanX, meanY := Mean(x), Mean(y)

	var cov, varX, varY float64
	for i := range x {
		dx := x[i] - meanX
		dy := y[i] - meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}
	if varX == 0 || varY == 0 {
		return math.NaN()
	}
	return cov / math.Sqrt(varX*varY)
}

// rank assigns average ranks (1-based), splitting ties evenly.
func rank(x []float64) []float64 {
	n := len(x)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return x[idx[a]] < x[idx[b]] })

	ranks := make([]float64, n)
	for i := 0; i < n; {
		j := i
		for j+1 < n && x[idx[j+1]] == x[idx[i]] {
			j++
		}
		// Positions i..j hold tied values; each gets the average rank.
		avg := float64(i+j)/2 + 1
		for k := i; k <= j; k++ {
			ranks[idx[k]] = avg
		}
		i = j + 1
	}
	return ranks
}

// kendallTauB computes Kendall's tau-b, the tie-corrected variant.
func kendallTauB(x, y []float64) float64 {
	n := len(x)
	var concordant, discordant float64
	var tiesX, tiesY float64

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			dx := x[i] - x[j]
			dy := y[i] - y[j]
			switch {
			case dx == 0 && dy == 0:
				// Tied in both; contributes to neither denominator term.
			case dx == 0:
				tiesX++
			case dy == 0:
				tiesY++
			case dx*dy > 0:
				concordant++
			default:
				discordant++
			}
		}
	}

	denom := math.Sqrt((concordant + discordant + tiesX) * (concordant + discordant + tiesY))
	if denom == 0 {
		return math.NaN()
	}
	return (concordant - discordant) / denom
}
