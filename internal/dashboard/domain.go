package dashboard

import "time"

// Series is a chart-ready sequence; Labels and Data always have equal length.
type Series struct {
	Labels []string  `json:"labels"`
	Data   []float64 `json:"data"`
}

// Len returns the number of points.
func (s Series) Len() int { return len(s.Labels) }

// Empty reports whether the series has no points.
func (s Series) Empty() bool { return len(s.Labels) == 0 }

func emptySeries() Series {
	return Series{Labels: []string{}, Data: []float64{}}
}

// Counts are the headline totals of non-deleted records.
type Counts struct {
	Products     int64 `json:"totalProducts"`
	Categories   int64 `json:"totalCategories"`
	Brands       int64 `json:"totalBrands"`
	Suppliers    int64 `json:"totalSuppliers"`
	Users        int64 `json:"totalUsers"`
	Transactions int64 `json:"totalTransactions"`
	Discounts    int64 `json:"totalDiscounts"`
}

// Dashboard is the complete payload served by the dashboard endpoints.
type Dashboard struct {
	Counts
	SalesLast7Days              Series    `json:"salesLast7Days"`
	TopSellingProducts          Series    `json:"topSellingProducts"`
	TransactionsByPaymentMethod Series    `json:"transactionsByPaymentMethod"`
	ProductsByCategory          Series    `json:"productsByCategory"`
	ProductsByBrand             Series    `json:"productsByBrand"`
	GeneratedAt                 time.Time `json:"generatedAt"`
}

// DailyTotal is the summed sales of one calendar day.
type DailyTotal struct {
	Day   time.Time
	Total float64
}

// NamedCount is one row of a grouped count, e.g. products per brand.
type NamedCount struct {
	ID    int64
	Name  string
	Count int64
}

// ProductQuantity is the quantity sold of one product.
type ProductQuantity struct {
	ProductID int64
	Name      string
	Quantity  int64
}
