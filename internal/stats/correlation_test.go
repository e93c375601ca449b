package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCorrelationMethod(t *testing.T) {
	tests := []struct {
		input   string
		want    CorrelationMethod
		wantErr bool
	}{
		{input: "pearson", want: Pearson},
		{input: "Spearman", want: Spearman},
		{input: "KENDALL", want: Kendall},
		{input: "", want: Pearson},
		{input: "cosine", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseCorrelationMethod(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCorrelate_Pearson(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5}

	assert.InDelta(t, 1.0, Correlate(x, []float64{2, 4, 6, 8, 10}, Pearson), 1e-9)
	assert.InDelta(t, -1.0, Correlate(x, []float64{10, 8, 6, 4, 2}, Pearson), 1e-9)
}

func TestCorrelate_SpearmanMonotonic(t *testing.T) {
	// Nonlinear but strictly monotonic: rank correlation is exactly 1,
	// pearson is not.
	x := []float64{1, 2, 3, 4, 5}
	y := []float64{1, 8, 27, 64, 125}

	assert.InDelta(t, 1.0, Correlate(x, y, Spearman), 1e-9)
	assert.Less(t, Correlate(x, y, Pearson), 1.0)
}

func TestCorrelate_SpearmanTies(t *testing.T) {
	// Average ranks keep the coefficient within [-1, 1] under ties.
	x := []float64{1, 2, 2, 3}
	y := []float64{1, 2, 2, 3}
	assert.InDelta(t, 1.0, Correlate(x, y, Spearman), 1e-9)
}

func TestCorrelate_Kendall(t *testing.T) {
	x := []float64{1, 2, 3, 4}

	assert.InDelta(t, 1.0, Correlate(x, []float64{10, 20, 30, 40}, Kendall), 1e-9)
	assert.InDelta(t, -1.0, Correlate(x, []float64{40, 30, 20, 10}, Kendall), 1e-9)
}

func TestCorrelate_Undefined(t *testing.T) {
	// Constant series or too few points: the coefficient is undefined.
	assert.True(t, math.IsNaN(Correlate([]float64{1, 1, 1}, []float64{1, 2, 3}, Pearson)))
	assert.True(t, math.IsNaN(Correlate([]float64{1}, []float64{2}, Pearson)))
	assert.True(t, math.IsNaN(Correlate([]float64{1, 2}, []float64{1, 2, 3}, Pearson)))
}

func TestRank_AverageTies(t *testing.T) {
	ranks := rank([]float64{10, 20, 20, 30})
	assert.Equal(t, []float64{1, 2.5, 2.5, 4}, ranks)
}
