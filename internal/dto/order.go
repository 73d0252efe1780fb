package dto

import "time"

type CreateOrderRequest struct {
	TableID       uint64  `json:"tableId"`
	Notes         string  `json:"notes"`
	CustomerName  *string `json:"customerName,omitempty"`
	CustomerPhone *string `json:"customerPhone,omitempty"`
}

type AddItemRequest struct {
	MenuItemID uint64 `json:"menuItemId"`
	Quantity   int    `json:"quantity"`
}

type SetStatusRequest struct {
	Status string `json:"status"`
}

type CheckoutRequest struct {
	ReceiptAddress string `json:"receiptAddress,omitempty"`
}

type OrderLineResponse struct {
	MenuItemID uint64  `json:"menuItemId"`
	Name       string  `json:"name"`
	UnitPrice  float64 `json:"unitPrice"`
	Quantity   int     `json:"quantity"`
	Subtotal   float64 `json:"subtotal"`
}

type OrderResponse struct {
	ID             uint64              `json:"id"`
	OrderNumber    string              `json:"orderNumber"`
	RestaurantID   uint64              `json:"restaurantId"`
	TableID        uint64              `json:"tableId"`
	TableName      string              `json:"tableName,omitempty"`
	CustomerName   *string             `json:"customerName,omitempty"`
	CustomerPhone  *string             `json:"customerPhone,omitempty"`
	Status         string              `json:"status"`
	Notes          string              `json:"notes,omitempty"`
	Items          []OrderLineResponse `json:"items"`
	TotalAmount    float64             `json:"totalAmount"`
	TotalItemCount int                 `json:"totalItemCount"`
	CreatedAt      time.Time           `json:"createdAt"`
	CompletedAt    *time.Time          `json:"completedAt,omitempty"`
}

// CheckoutResponse carries the completed order plus a non-blocking warning
// when receipt delivery failed after the checkout itself succeeded.
type CheckoutResponse struct {
	Order   OrderResponse `json:"order"`
	Warning string        `json:"warning,omitempty"`
}

type OrderListFilter struct {
	Status string
	Date   *time.Time
}

type TableResponse struct {
	ID       uint64 `json:"id"`
	Name     string `json:"name"`
	Capacity int    `json:"capacity"`
	Occupied bool   `json:"occupied"`
	Active   bool   `json:"active"`
}
