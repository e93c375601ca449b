package analysis

import (
	"encoding/json"
	"math"

	"salescope/internal/dataset"
	"salescope/internal/stats"
)

// CorrelationView is the annotated pairwise correlation matrix over all
// numeric columns.
type CorrelationView struct {
	Availability
	Method  stats.CorrelationMethod `json:"method,omitempty"`
	Columns []string                `json:"columns,omitempty"`
	Matrix  Matrix                  `json:"matrix,omitempty"`
}

// Matrix is a square correlation matrix. It marshals NaN entries (undefined
// coefficients, e.g. against a constant column) as JSON null instead of
// breaking encoding.
type Matrix [][]float64

// MarshalJSON implements json.Marshaler with NaN-as-null semantics.
func (m Matrix) MarshalJSON() ([]byte, error) {
	out := make([][]*float64, len(m))
	for i, row := range m {
		out[i] = make([]*float64, len(row))
		for j := range row {
			if !math.IsNaN(row[j]) {
				v := row[j]
				out[i][j] = &v
			}
		}
	}
	return json.Marshal(out)
}

// BuildCorrelation renders the correlation matrix under the chosen method.
// Each pair correlates over the rows where both values are present. The
// diagonal is exactly 1 for every numeric column. Degrades with a warning when
// no numeric columns exist.
func BuildCorrelation(t *dataset.Table, method stats.CorrelationMethod) CorrelationView {
	numeric, _, _ := t.Buckets()
	if len(numeric) == 0 {
		return CorrelationView{Availability: Unavailable("no numeric columns found")}
	}

	indexes := make([]int, len(numeric))
	for i, name := range numeric {
		indexes[i] = t.ColumnIndex(name)
	}

	n := len(numeric)
	matrix := make(Matrix, n)
	for i := range matrix {
		matrix[i] = make([]float64, n)
		matrix[i][i] = 1
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			x, y := pairwiseComplete(t, indexes[i], indexes[j])
			r := stats.Correlate(x, y, method)
			matrix[i][j] = r
			matrix[j][i] = r
		}
	}

	return CorrelationView{
		Availability: Rendered(),
		Method:       method,
		Columns:      numeric,
		Matrix:       matrix,
	}
}

// pairwiseComplete extracts the paired values of two columns from rows where
// neither is missing.
func pairwiseComplete(t *dataset.Table, a, b int) ([]float64, []float64) {
	x := make([]float64, 0, len(t.Rows))
	y := make([]float64, 0, len(t.Rows))
	for _, row := range t.Rows {
		if row[a].Missing || row[b].Missing {
			continue
		}
		x = append(x, row[a].Num)
		y = append(y, row[b].Num)
	}
	return x, y
}
