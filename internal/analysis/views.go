// Package analysis builds the chart payloads the dashboard renders: univariate
// distribution, categorical counts, price-by-category box stats, daily OHLC
// candles, and the correlation matrix. Every builder is a pure function over
// the cleaned table; none mutate anything.
//
// A view either renders or degrades: each result embeds Availability so the
// caller can check explicitly instead of guessing from nil fields. One view
// being unavailable never affects another.
package analysis

const (
	// DiscreteThreshold is the distinct-value count below which a univariate
	// chart switches from histogram to discrete frequency bars.
	DiscreteThreshold = 10

	// DefaultTopN caps the categorical count chart when no override is given.
	DefaultTopN = 15
)

// Availability is the explicit rendered-or-degraded state of a view.
type Availability struct {
	Available bool   `json:"available"`
	Reason    string `json:"reason,omitempty"`
}

// Rendered marks a view as successfully built.
func Rendered() Availability { return Availability{Available: true} }

// Unavailable marks a view as degraded with a human-readable reason.
func Unavailable(reason string) Availability { return Availability{Reason: reason} }

// ValueCount is one bar of a frequency chart.
type ValueCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}
