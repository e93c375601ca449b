package analysis

import (
	"salescope/internal/dataset"
	"salescope/internal/stats"
)

// BivariateView is the price-by-category box-plot distribution.
type BivariateView struct {
	Availability
	Category string     `json:"category,omitempty"`
	Price    string     `json:"price,omitempty"`
	Boxes    []BoxStats `json:"boxes,omitempty"`
}

// BoxStats carries standard box-plot statistics for one category group:
// quartiles plus whiskers at 1.5×IQR clamped to the observed extremes, with
// points beyond the whiskers listed as outliers.
type BoxStats struct {
	Category string    `json:"category"`
	Count    int       `json:"count"`
	Low      float64   `json:"low"`
	Q1       float64   `json:"q1"`
	Median   float64   `json:"median"`
	Q3       float64   `json:"q3"`
	High     float64   `json:"high"`
	Outliers []float64 `json:"outliers,omitempty"`
}

// BuildBivariate renders the box-plot view. It degrades with a warning when
// either the category or the price binding is absent.
func BuildBivariate(t *dataset.Table, b dataset.Bindings) BivariateView {
	if b.Category == "" || b.Price == "" {
		return BivariateView{Availability: Unavailable("category or price column not selected")}
	}
	catIdx, priceIdx := t.ColumnIndex(b.Category), t.ColumnIndex(b.Price)
	if catIdx < 0 || priceIdx < 0 {
		return BivariateView{Availability: Unavailable("category or price column not selected")}
	}

	groups := make(map[string][]float64)
	order := make([]string, 0)
	for _, row := range t.Rows {
		cat, price := row[catIdx], row[priceIdx]
		if cat.Missing || price.Missing {
			continue
		}
		if _, ok := groups[cat.Str]; !ok {
			order = append(order, cat.Str)
		}
		groups[cat.Str] = append(groups[cat.Str], price.Num)
	}

	if len(order) == 0 {
		return BivariateView{Availability: Unavailable("no rows with both category and price present")}
	}

	boxes := make([]BoxStats, 0, len(order))
	for _, cat := range order {
		boxes = append(boxes, boxStats(cat, groups[cat]))
	}

	return BivariateView{
		Availability: Rendered(),
		Category:     b.Category,
		Price:        b.Price,
		Boxes:        boxes,
	}
}

func boxStats(category string, values []float64) BoxStats {
	q1 := stats.Quantile(values, 0.25)
	q3 := stats.Quantile(values, 0.75)
	iqr := q3 - q1
	min, max := stats.MinMax(values)

	low, high := q1-1.5*iqr, q3+1.5*iqr
	if low < min {
		low = min
	}
	if high > max {
		high = max
	}

	box := BoxStats{
		Category: category,
		Count:    len(values),
		Low:      low,
		Q1:       q1,
		Median:   stats.Median(values),
		Q3:       q3,
		High:     high,
	}
	for _, v := range values {
		if v < low || v > high {
			box.Outliers = append(box.Outliers, v)
		}
	}
	return box
}
