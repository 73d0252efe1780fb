package domain

import "time"

const (
	OrderStatusPending   = "pending"
	OrderStatusConfirmed = "confirmed"
	OrderStatusPreparing = "preparing"
	OrderStatusReady     = "ready"
	OrderStatusServed    = "served"
	OrderStatusCompleted = "completed"
	OrderStatusCancelled = "cancelled"
)

// statusRank orders the kitchen states. Terminal states are not ranked;
// they are unreachable through SetStatus and reject everything.
var statusRank = map[string]int{
	OrderStatusPending:   0,
	OrderStatusConfirmed: 1,
	OrderStatusPreparing: 2,
	OrderStatusReady:     3,
	OrderStatusServed:    4,
}

func ValidStatus(status string) bool {
	if _, ok := statusRank[status]; ok {
		return true
	}
	return status == OrderStatusCompleted || status == OrderStatusCancelled
}

func IsTerminalStatus(status string) bool {
	return status == OrderStatusCompleted || status == OrderStatusCancelled
}

// CanModifyItems reports whether line items may still be added to an order
// in the given status.
func CanModifyItems(status string) bool {
	return status == OrderStatusPending || status == OrderStatusConfirmed
}

// CanTransition reports whether SetStatus may move an order from one status
// to another. Any forward jump between kitchen states is legal (skipping
// intermediate states is allowed); cancellation is legal from any
// non-terminal state. Completion is not reachable here, only via checkout.
func CanTransition(from, to string) bool {
	if IsTerminalStatus(from) {
		return false
	}
	if to == OrderStatusCancelled {
		return true
	}
	fromRank, ok := statusRank[from]
	if !ok {
		return false
	}
	toRank, ok := statusRank[to]
	if !ok {
		return false
	}
	return toRank > fromRank
}

type OrderLine struct {
	MenuItemID        uint64
	NameSnapshot      string
	UnitPriceSnapshot float64
	CategorySnapshot  string
	Quantity          int
	Subtotal          float64
}

type Order struct {
	ID             uint64
	OrderNumber    string
	RestaurantID   uint64
	TableID        uint64
	TableName      string
	CustomerName   *string
	CustomerPhone  *string
	Status         string
	Notes          string
	Lines          []OrderLine
	TotalAmount    float64
	TotalItemCount int
	CreatedAt      time.Time
	CompletedAt    *time.Time
}

// RecomputeTotals derives TotalAmount and TotalItemCount from the lines.
// Totals are never stored independently of the lines that justify them.
func (o *Order) RecomputeTotals() {
	total := 0.0
	count := 0
	for _, line := range o.Lines {
		total += line.Subtotal
		count += line.Quantity
	}
	o.TotalAmount = total
	o.TotalItemCount = count
}

// MergeLine upserts a line by menu item id: an existing line accumulates
// quantity, otherwise the line is appended. Totals are recomputed.
func (o *Order) MergeLine(line OrderLine) {
	for i := range o.Lines {
		if o.Lines[i].MenuItemID == line.MenuItemID {
			o.Lines[i].Quantity += line.Quantity
			o.Lines[i].Subtotal = o.Lines[i].UnitPriceSnapshot * float64(o.Lines[i].Quantity)
			o.RecomputeTotals()
			return
		}
	}
	line.Subtotal = line.UnitPriceSnapshot * float64(line.Quantity)
	o.Lines = append(o.Lines, line)
	o.RecomputeTotals()
}
