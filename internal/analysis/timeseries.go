package analysis

import (
	"sort"
	"time"

	"salescope/internal/dataset"
)

// TimeSeriesView is the daily OHLC candlestick series over the bound price
// column, bucketed by the calendar date of the bound date column.
type TimeSeriesView struct {
	Availability
	Date    string   `json:"date_column,omitempty"`
	Price   string   `json:"price_column,omitempty"`
	Candles []Candle `json:"candles,omitempty"`
}

// Candle is one day's open-high-low-close summary. Open and Close follow
// original row order within the day; High and Low are the extremes.
type Candle struct {
	Date  string  `json:"date"`
	Open  float64 `json:"open"`
	High  float64 `json:"high"`
	Low   float64 `json:"low"`
	Close float64 `json:"close"`
}

// BuildTimeSeries renders the OHLC view. Rows with a missing date or price do
// not participate in any bucket. Degrades with a warning when either binding
// is absent.
func BuildTimeSeries(t *dataset.Table, b dataset.Bindings) TimeSeriesView {
	if b.Date == "" || b.Price == "" {
		return TimeSeriesView{Availability: Unavailable("date or price column not selected")}
	}
	dateIdx, priceIdx := t.ColumnIndex(b.Date), t.ColumnIndex(b.Price)
	if dateIdx < 0 || priceIdx < 0 {
		return TimeSeriesView{Availability: Unavailable("date or price column not selected")}
	}

	type bucket struct {
		day    time.Time
		candle Candle
	}
	buckets := make(map[string]*bucket)

	for _, row := range t.Rows {
		date, price := row[dateIdx], row[priceIdx]
		if date.Missing || price.Missing {
			continue
		}
		day := date.Time.Truncate(24 * time.Hour)
		key := day.Format("2006-01-02")

		bk, ok := buckets[key]
		if !ok {
			buckets[key] = &bucket{
				day: day,
				candle: Candle{
					Date:  key,
					Open:  price.Num,
					High:  price.Num,
					Low:   price.Num,
					Close: price.Num,
				},
			}
			continue
		}
		if price.Num > bk.candle.High {
			bk.candle.High = price.Num
		}
		if price.Num < bk.candle.Low {
			bk.candle.Low = price.Num
		}
		bk.candle.Close = price.Num
	}

	if len(buckets) == 0 {
		return TimeSeriesView{Availability: Unavailable("no rows with both date and price present")}
	}

	candles := make([]Candle, 0, len(buckets))
	for _, bk := range buckets {
		candles = append(candles, bk.candle)
	}
	sort.Slice(candles, func(i, j int) bool { return candles[i].Date < candles[j].Date })

	return TimeSeriesView{
		Availability: Rendered(),
		Date:         b.Date,
		Price:        b.Price,
		Candles:      candles,
	}
}
