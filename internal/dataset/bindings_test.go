package dataset

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, csv string) *Table {
	t.Helper()
	table, err := ParseCSV(strings.NewReader(csv), nil)
	require.NoError(t, err)
	return table
}

func TestBindings_Validate(t *testing.T) {
	table := mustParse(t, strings.Join([]string{
		"order_date,price,quantity,category",
		"2024-01-05,10,2,A",
	}, "\n"))

	tests := []struct {
		name     string
		bindings Bindings
		wantErr  string
	}{
		{
			name:     "valid full bindings",
			bindings: Bindings{Price: "price", Quantity: "quantity", Category: "category", Date: "order_date"},
		},
		{
			name:     "optional roles unbound",
			bindings: Bindings{Price: "price", Quantity: "quantity"},
		},
		{
			name:     "price missing",
			bindings: Bindings{Quantity: "quantity"},
			wantErr:  "price binding is required",
		},
		{
			name:     "price bound to categorical",
			bindings: Bindings{Price: "category", Quantity: "quantity"},
			wantErr:  "is categorical, need numeric",
		},
		{
			name:     "unknown column",
			bindings: Bindings{Price: "price", Quantity: "qty"},
			wantErr:  "does not exist",
		},
		{
			name:     "category bound to numeric",
			bindings: Bindings{Price: "price", Quantity: "quantity", Category: "price"},
			wantErr:  "is numeric, need categorical",
		},
		{
			name:     "date bound to categorical",
			bindings: Bindings{Price: "price", Quantity: "quantity", Date: "category"},
			wantErr:  "is categorical, need datetime",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.bindings.Validate(table)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestComputeKPIs_Revenue(t *testing.T) {
	table := mustParse(t, strings.Join([]string{
		"price,quantity",
		"10.50,2",
		"8.25,1",
		"3.00,4",
	}, "\n"))

	snap := ComputeKPIs(table, Bindings{Price: "price", Quantity: "quantity"})
	assert.Equal(t, 3, snap.Orders)
	assert.Equal(t, "41.25", snap.TotalRevenue)
	assert.False(t, snap.CustomersAvailable)
}

func TestComputeKPIs_RevenueSkipsMissing(t *testing.T) {
	table := mustParse(t, strings.Join([]string{
		"price,quantity",
		"10,2",
		"NA,5",
		"4,NA",
	}, "\n"))

	snap := ComputeKPIs(table, Bindings{Price: "price", Quantity: "quantity"})
	assert.Equal(t, "20.00", snap.TotalRevenue)
}

func TestComputeKPIs_UniqueCustomers(t *testing.T) {
	table := mustParse(t, strings.Join([]string{
		"price,quantity,customer_id",
		"10,1,1",
		"11,1,1",
		"12,1,2",
		"13,1,3",
	}, "\n"))

	snap := ComputeKPIs(table, Bindings{Price: "price", Quantity: "quantity"})
	assert.True(t, snap.CustomersAvailable)
	assert.Equal(t, 3, snap.UniqueCustomers)
}

func TestComputeKPIs_NoCustomerColumn(t *testing.T) {
	table := mustParse(t, "price,quantity\n10,1\n")
	snap := ComputeKPIs(table, Bindings{Price: "price", Quantity: "quantity"})
	assert.False(t, snap.CustomersAvailable)
	assert.Zero(t, snap.UniqueCustomers)
}
