package service

import (
	"sort"
	"time"

	"comanda/internal/domain"
	"comanda/internal/dto"
)

// Granularity selects the bucket size of a revenue series.
type Granularity string

const (
	GranularityHour  Granularity = "hour"
	GranularityDay   Granularity = "day"
	GranularityWeek  Granularity = "week"
	GranularityMonth Granularity = "month"
)

func ParseGranularity(raw string) (Granularity, bool) {
	switch Granularity(raw) {
	case GranularityHour, GranularityDay, GranularityWeek, GranularityMonth:
		return Granularity(raw), true
	case "":
		return GranularityDay, true
	}
	return "", false
}

// The aggregates below are plain folds over the completed-order set, so
// results over a window always equal the combination of results over any
// partition of that window.

func Totals(window dto.Window, orders []domain.Order) dto.RevenuePeriod {
	period := dto.RevenuePeriod{Start: window.Start, End: window.End}
	for _, o := range orders {
		period.TotalRevenue += o.TotalAmount
		period.OrderCount++
	}
	if period.OrderCount > 0 {
		period.AverageOrderValue = period.TotalRevenue / float64(period.OrderCount)
	}
	return period
}

// GrowthPercent guards the zero-revenue prior period: growth against
// nothing is reported as 0, not an error or NaN.
func GrowthPercent(current, previous dto.RevenuePeriod) float64 {
	if previous.TotalRevenue == 0 {
		return 0
	}
	return (current.TotalRevenue - previous.TotalRevenue) / previous.TotalRevenue * 100
}

func TopItems(orders []domain.Order, limit int) []dto.TopItem {
	index := make(map[uint64]int)
	items := []dto.TopItem{}

	for _, o := range orders {
		for _, line := range o.Lines {
			i, ok := index[line.MenuItemID]
			if !ok {
				i = len(items)
				index[line.MenuItemID] = i
				items = append(items, dto.TopItem{MenuItemID: line.MenuItemID, Name: line.NameSnapshot})
			}
			items[i].Quantity += line.Quantity
			items[i].Revenue += line.Subtotal
		}
	}

	// Stable sort keeps grouping order on quantity ties.
	sort.SliceStable(items, func(i, j int) bool { return items[i].Quantity > items[j].Quantity })

	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}

func Series(orders []domain.Order, granularity Granularity) []dto.SeriesBucket {
	buckets := make(map[time.Time]*dto.SeriesBucket)
	for _, o := range orders {
		key := truncate(orderTime(o), granularity)
		bucket, ok := buckets[key]
		if !ok {
			bucket = &dto.SeriesBucket{Bucket: key}
			buckets[key] = bucket
		}
		bucket.Revenue += o.TotalAmount
		bucket.OrderCount++
	}

	result := make([]dto.SeriesBucket, 0, len(buckets))
	for _, b := range buckets {
		result = append(result, *b)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Bucket.Before(result[j].Bucket) })
	return result
}

func TableRanking(orders []domain.Order, limit int) []dto.TableRank {
	index := make(map[uint64]int)
	ranks := []dto.TableRank{}

	for _, o := range orders {
		i, ok := index[o.TableID]
		if !ok {
			i = len(ranks)
			index[o.TableID] = i
			ranks = append(ranks, dto.TableRank{TableID: o.TableID, TableName: o.TableName})
		}
		ranks[i].OrderCount++
		ranks[i].Revenue += o.TotalAmount
	}

	sort.SliceStable(ranks, func(i, j int) bool { return ranks[i].Revenue > ranks[j].Revenue })

	if limit > 0 && len(ranks) > limit {
		ranks = ranks[:limit]
	}
	return ranks
}

// PeakHours buckets by hour of order creation, since demand shape is about
// when customers sat down, not when they paid.
func PeakHours(orders []domain.Order) []dto.HourBucket {
	buckets := make(map[int]*dto.HourBucket)
	for _, o := range orders {
		hour := o.CreatedAt.Hour()
		bucket, ok := buckets[hour]
		if !ok {
			bucket = &dto.HourBucket{Hour: hour}
			buckets[hour] = bucket
		}
		bucket.Revenue += o.TotalAmount
		bucket.OrderCount++
	}

	result := make([]dto.HourBucket, 0, len(buckets))
	for _, b := range buckets {
		result = append(result, *b)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Hour < result[j].Hour })
	return result
}

// CategoryBreakdown attributes line revenue to the current menu category,
// not a snapshot: a recategorized item shifts its historical attribution.
// Items no longer on the menu fall into "uncategorized".
func CategoryBreakdown(orders []domain.Order, categories map[uint64]string) []dto.CategoryStat {
	index := make(map[string]int)
	stats := []dto.CategoryStat{}

	for _, o := range orders {
		for _, line := range o.Lines {
			category, ok := categories[line.MenuItemID]
			if !ok || category == "" {
				category = "uncategorized"
			}
			i, ok := index[category]
			if !ok {
				i = len(stats)
				index[category] = i
				stats = append(stats, dto.CategoryStat{Category: category})
			}
			stats[i].Quantity += line.Quantity
			stats[i].Revenue += line.Subtotal
		}
	}

	sort.SliceStable(stats, func(i, j int) bool { return stats[i].Revenue > stats[j].Revenue })
	return stats
}

func RepeatCustomerRate(orders []domain.Order) dto.RepeatCustomerStats {
	counts := make(map[string]int)
	for _, o := range orders {
		if o.CustomerPhone == nil || *o.CustomerPhone == "" {
			continue
		}
		counts[*o.CustomerPhone]++
	}

	stats := dto.RepeatCustomerStats{TotalCustomers: len(counts)}
	for _, n := range counts {
		if n > 1 {
			stats.RepeatCustomers++
		}
	}
	if stats.TotalCustomers > 0 {
		stats.RepeatRate = float64(stats.RepeatCustomers) / float64(stats.TotalCustomers) * 100
	}
	return stats
}

func orderTime(o domain.Order) time.Time {
	if o.CompletedAt != nil {
		return *o.CompletedAt
	}
	return o.CreatedAt
}

func truncate(t time.Time, granularity Granularity) time.Time {
	switch granularity {
	case GranularityHour:
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, t.Location())
	case GranularityWeek:
		day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
		// Weeks start on Monday.
		offset := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -offset)
	case GranularityMonth:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	default:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	}
}
