package dto

import "time"

// Window is a half-open time interval [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
}

func (w Window) Duration() time.Duration {
	return w.End.Sub(w.Start)
}

// Previous returns the immediately preceding window of equal duration.
func (w Window) Previous() Window {
	d := w.Duration()
	return Window{Start: w.Start.Add(-d), End: w.Start}
}

type RevenuePeriod struct {
	Start             time.Time `json:"start"`
	End               time.Time `json:"end"`
	TotalRevenue      float64   `json:"totalRevenue"`
	OrderCount        int       `json:"orderCount"`
	AverageOrderValue float64   `json:"averageOrderValue"`
}

type GrowthResult struct {
	Current       RevenuePeriod `json:"current"`
	Previous      RevenuePeriod `json:"previous"`
	GrowthPercent float64       `json:"growthPercent"`
}

type TopItem struct {
	MenuItemID uint64  `json:"menuItemId"`
	Name       string  `json:"name"`
	Quantity   int     `json:"quantity"`
	Revenue    float64 `json:"revenue"`
}

type SeriesBucket struct {
	Bucket     time.Time `json:"bucket"`
	Revenue    float64   `json:"revenue"`
	OrderCount int       `json:"orderCount"`
}

type TableRank struct {
	TableID    uint64  `json:"tableId"`
	TableName  string  `json:"tableName"`
	OrderCount int     `json:"orderCount"`
	Revenue    float64 `json:"revenue"`
}

type HourBucket struct {
	Hour       int     `json:"hour"`
	Revenue    float64 `json:"revenue"`
	OrderCount int     `json:"orderCount"`
}

type CategoryStat struct {
	Category string  `json:"category"`
	Quantity int     `json:"quantity"`
	Revenue  float64 `json:"revenue"`
}

type RepeatCustomerStats struct {
	TotalCustomers  int     `json:"totalCustomers"`
	RepeatCustomers int     `json:"repeatCustomers"`
	RepeatRate      float64 `json:"repeatRate"`
}

type Dashboard struct {
	Totals            RevenuePeriod       `json:"totals"`
	Growth            GrowthResult        `json:"growth"`
	TopItems          []TopItem           `json:"topItems"`
	DailySeries       []SeriesBucket      `json:"dailySeries"`
	TableRanking      []TableRank         `json:"tableRanking"`
	PeakHours         []HourBucket        `json:"peakHours"`
	CategoryBreakdown []CategoryStat      `json:"categoryBreakdown"`
	RepeatCustomers   RepeatCustomerStats `json:"repeatCustomers"`
}

type SalesRow struct {
	OrderNumber string    `json:"orderNumber"`
	Date        time.Time `json:"date"`
	TableName   string    `json:"table"`
	Total       float64   `json:"total"`
	Status      string    `json:"status"`
}
