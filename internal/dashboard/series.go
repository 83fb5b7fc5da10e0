package dashboard

import (
	"sort"
	"time"
)

// SalesWindowDays is the length of the sales series.
const SalesWindowDays = 7

const dayLabelLayout = "Jan 02"

// salesWindow returns the half-open range [from, to) covering today and the
// six days before it in loc.
func salesWindow(now time.Time, loc *time.Location) (time.Time, time.Time) {
	local := now.In(loc)
	today := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return today.AddDate(0, 0, -(SalesWindowDays - 1)), today.AddDate(0, 0, 1)
}

// SalesSeries lays totals out over the seven-day window ending today in loc;
// days without sales are reported as zero.
func SalesSeries(now time.Time, loc *time.Location, totals []DailyTotal) Series {
	byDay := make(map[string]float64, len(totals))
	for _, t := range totals {
		byDay[t.Day.Format("2006-01-02")] += t.Total
	}
	from, _ := salesWindow(now, loc)
	s := Series{
		Labels: make([]string, SalesWindowDays),
		Data:   make([]float64, SalesWindowDays),
	}
	for i := 0; i < SalesWindowDays; i++ {
		day := from.AddDate(0, 0, i)
		s.Labels[i] = day.Format(dayLabelLayout)
		s.Data[i] = byDay[day.Format("2006-01-02")]
	}
	return s
}

// TopSellingSeries orders products by quantity sold, ties by id, keeping at
// most n non-zero entries.
func TopSellingSeries(rows []ProductQuantity, n int) Series {
	sorted := make([]ProductQuantity, 0, len(rows))
	for _, r := range rows {
		if r.Quantity > 0 {
			sorted = append(sorted, r)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Quantity != sorted[j].Quantity {
			return sorted[i].Quantity > sorted[j].Quantity
		}
		return sorted[i].ProductID < sorted[j].ProductID
	})
	if n >= 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	s := emptySeries()
	for _, r := range sorted {
		s.Labels = append(s.Labels, r.Name)
		s.Data = append(s.Data, float64(r.Quantity))
	}
	return s
}

// CountSeries orders grouped counts by name, ties by id, keeping zero counts.
func CountSeries(rows []NamedCount) Series {
	sorted := append([]NamedCount(nil), rows...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Name != sorted[j].Name {
			return sorted[i].Name < sorted[j].Name
		}
		return sorted[i].ID < sorted[j].ID
	})
	s := emptySeries()
	for _, r := range sorted {
		s.Labels = append(s.Labels, r.Name)
		s.Data = append(s.Data, float64(r.Count))
	}
	return s
}
