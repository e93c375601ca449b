package dataset

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// customerColumn is the literal column name the unique-customer KPI keys on.
const customerColumn = "customer_id"

// Bindings maps the four semantic roles to actual columns. Price and quantity
// are required for KPIs and invalid-row filtering; category and date are
// optional and their absence only degrades the views that need them.
type Bindings struct {
	Price    string `json:"price"`
	Quantity string `json:"quantity"`
	Category string `json:"category,omitempty"`
	Date     string `json:"date,omitempty"`
}

// HasPriceQuantity reports whether both required roles are bound.
func (b Bindings) HasPriceQuantity() bool {
	return b.Price != "" && b.Quantity != ""
}

// Validate checks every bound role against the table's buckets. Unbound
// optional roles pass; a role bound to a column of the wrong kind fails.
func (b Bindings) Validate(t *Table) error {
	if err := requireKind(t, b.Price, "price", KindNumeric); err != nil {
		return err
	}
	if err := requireKind(t, b.Quantity, "quantity", KindNumeric); err != nil {
		return err
	}
	if b.Category != "" {
		if err := requireKind(t, b.Category, "category", KindCategorical); err != nil {
			return err
		}
	}
	if b.Date != "" {
		if err := requireKind(t, b.Date, "date", KindDatetime); err != nil {
			return err
		}
	}
	return nil
}

func requireKind(t *Table, column, role string, kind ColumnKind) error {
	if column == "" {
		return fmt.Errorf("%s binding is required", role)
	}
	idx := t.ColumnIndex(column)
	if idx < 0 {
		return fmt.Errorf("%s binding: column %q does not exist", role, column)
	}
	if t.Columns[idx].Kind != kind {
		return fmt.Errorf("%s binding: column %q is %s, need %s",
			role, column, t.Columns[idx].Kind, kind)
	}
	return nil
}

// KPISnapshot holds the three headline dashboard metrics.
type KPISnapshot struct {
	Orders             int    `json:"orders"`
	TotalRevenue       string `json:"total_revenue"`
	UniqueCustomers    int    `json:"unique_customers"`
	CustomersAvailable bool   `json:"customers_available"`
}

// ComputeKPIs derives the headline metrics from the current table. Revenue is
// Σ price×quantity over all rows where both are present, summed in decimal
// arithmetic so large uploads don't accumulate float error. Unique customers
// requires a column literally named "customer_id"; otherwise the KPI reports
// unavailable.
func ComputeKPIs(t *Table, b Bindings) KPISnapshot {
	snap := KPISnapshot{Orders: t.NumRows(), TotalRevenue: "0"}

	priceIdx, qtyIdx := t.ColumnIndex(b.Price), t.ColumnIndex(b.Quantity)
	if priceIdx >= 0 && qtyIdx >= 0 {
		revenue := decimal.Zero
		for _, row := range t.Rows {
			if row[priceIdx].Missing || row[qtyIdx].Missing {
				continue
			}
			price := decimal.NewFromFloat(row[priceIdx].Num)
			qty := decimal.NewFromFloat(row[qtyIdx].Num)
			revenue = revenue.Add(price.Mul(qty))
		}
		snap.TotalRevenue = revenue.StringFixed(2)
	}

	custIdx := t.ColumnIndex(customerColumn)
	if custIdx >= 0 {
		snap.CustomersAvailable = true
		seen := make(map[string]bool)
		for _, row := range t.Rows {
			if row[custIdx].Missing {
				continue
			}
			seen[FormatCell(row[custIdx], t.Columns[custIdx].Kind)] = true
		}
		snap.UniqueCustomers = len(seen)
	}

	return snap
}
