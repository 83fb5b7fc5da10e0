package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/odyssey-pos/odyssey-pos/internal/dashboard"
)

// WriteDashboardCSV serialises the counts and every series as one CSV
// document with Section, Label and Value columns.
func WriteDashboardCSV(w io.Writer, d dashboard.Dashboard) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"Section", "Label", "Value"}); err != nil {
		return err
	}
	counts := [][]string{
		{"Counts", "Products", strconv.FormatInt(d.Products, 10)},
		{"Counts", "Categories", strconv.FormatInt(d.Categories, 10)},
		{"Counts", "Brands", strconv.FormatInt(d.Brands, 10)},
		{"Counts", "Suppliers", strconv.FormatInt(d.Suppliers, 10)},
		{"Counts", "Users", strconv.FormatInt(d.Users, 10)},
		{"Counts", "Transactions", strconv.FormatInt(d.Transactions, 10)},
		{"Counts", "Discounts", strconv.FormatInt(d.Discounts, 10)},
	}
	if err := writer.WriteAll(counts); err != nil {
		return err
	}
	sections := []struct {
		name   string
		series dashboard.Series
		money  bool
	}{
		{"Sales last 7 days", d.SalesLast7Days, true},
		{"Top selling products", d.TopSellingProducts, false},
		{"Transactions by payment method", d.TransactionsByPaymentMethod, false},
		{"Products by category", d.ProductsByCategory, false},
		{"Products by brand", d.ProductsByBrand, false},
	}
	for _, s := range sections {
		if err := writeSeries(writer, s.name, s.series, s.money); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func writeSeries(writer *csv.Writer, section string, s dashboard.Series, money bool) error {
	for i, label := range s.Labels {
		value := strconv.FormatFloat(s.Data[i], 'f', -1, 64)
		if money {
			value = strconv.FormatFloat(s.Data[i], 'f', 2, 64)
		}
		if err := writer.Write([]string{section, label, value}); err != nil {
			return err
		}
	}
	return nil
}
