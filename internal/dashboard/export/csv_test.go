package export

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/odyssey-pos/odyssey-pos/internal/dashboard"
)

func TestWriteDashboardCSV(t *testing.T) {
	d := dashboard.Dashboard{
		Counts:             dashboard.Counts{Products: 3, Transactions: 2},
		SalesLast7Days:     dashboard.Series{Labels: []string{"Mar 09", "Mar 10"}, Data: []float64{0, 212.5}},
		TopSellingProducts: dashboard.Series{Labels: []string{"Kopi, Susu"}, Data: []float64{4}},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteDashboardCSV(&buf, d))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Equal(t, []string{"Section", "Label", "Value"}, records[0])
	require.Equal(t, []string{"Counts", "Products", "3"}, records[1])
	require.Len(t, records, 1+7+2+1)
	require.Equal(t, []string{"Sales last 7 days", "Mar 10", "212.50"}, records[9])
	require.Equal(t, []string{"Top selling products", "Kopi, Susu", "4"}, records[10])
}
