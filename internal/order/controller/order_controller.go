package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"comanda/internal/domain"
	"comanda/internal/dto"
	apperrors "comanda/internal/errors"
)

type OrderLifecycle interface {
	CreateOrder(ctx context.Context, restaurantID uint64, req dto.CreateOrderRequest) (*domain.Order, error)
	AddItem(ctx context.Context, orderID, menuItemID uint64, quantity int) (*domain.Order, error)
	SetStatus(ctx context.Context, orderID uint64, status string) (*domain.Order, error)
	Checkout(ctx context.Context, orderID uint64, receiptAddress string) (*domain.Order, string, error)
	ListOrders(ctx context.Context, restaurantID uint64, filter dto.OrderListFilter) ([]domain.Order, error)
}

type TableLister interface {
	ListByRestaurant(ctx context.Context, restaurantID uint64) ([]domain.Table, error)
}

type OrderController struct {
	lifecycle OrderLifecycle
	tables    TableLister
	logger    *zap.Logger
}

func NewOrderController(lifecycle OrderLifecycle, tables TableLister, logger *zap.Logger) *OrderController {
	return &OrderController{
		lifecycle: lifecycle,
		tables:    tables,
		logger:    logger,
	}
}

func (c *OrderController) CreateOrder(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	restaurantID, ok := c.pathID(w, r, "restaurantID")
	if !ok {
		return
	}

	var req dto.CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid JSON body", zap.Error(err))
		c.writeValidationError(w, "invalid JSON body", apperrors.ValidationDetail{
			Field:   "body",
			Message: "request body must be valid JSON",
		})
		return
	}

	if req.TableID == 0 {
		c.writeValidationError(w, "validation failed", apperrors.ValidationDetail{
			Field:   "tableId",
			Message: "tableId is required",
		})
		return
	}

	order, err := c.lifecycle.CreateOrder(r.Context(), restaurantID, req)
	if err != nil {
		c.handleServiceError(w, err, logger)
		return
	}

	c.writeJSON(w, http.StatusCreated, toOrderResponse(order))
}

func (c *OrderController) AddItem(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	orderID, ok := c.pathID(w, r, "orderID")
	if !ok {
		return
	}

	var req dto.AddItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid JSON body", zap.Error(err))
		c.writeValidationError(w, "invalid JSON body", apperrors.ValidationDetail{
			Field:   "body",
			Message: "request body must be valid JSON",
		})
		return
	}

	if req.MenuItemID == 0 {
		c.writeValidationError(w, "validation failed", apperrors.ValidationDetail{
			Field:   "menuItemId",
			Message: "menuItemId is required",
		})
		return
	}

	order, err := c.lifecycle.AddItem(r.Context(), orderID, req.MenuItemID, req.Quantity)
	if err != nil {
		c.handleServiceError(w, err, logger)
		return
	}

	c.writeJSON(w, http.StatusOK, toOrderResponse(order))
}

func (c *OrderController) SetStatus(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	orderID, ok := c.pathID(w, r, "orderID")
	if !ok {
		return
	}

	var req dto.SetStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid JSON body", zap.Error(err))
		c.writeValidationError(w, "invalid JSON body", apperrors.ValidationDetail{
			Field:   "body",
			Message: "request body must be valid JSON",
		})
		return
	}

	order, err := c.lifecycle.SetStatus(r.Context(), orderID, req.Status)
	if err != nil {
		c.handleServiceError(w, err, logger)
		return
	}

	c.writeJSON(w, http.StatusOK, toOrderResponse(order))
}

func (c *OrderController) Checkout(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	orderID, ok := c.pathID(w, r, "orderID")
	if !ok {
		return
	}

	var req dto.CheckoutRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Warn("invalid JSON body", zap.Error(err))
			c.writeValidationError(w, "invalid JSON body", apperrors.ValidationDetail{
				Field:   "body",
				Message: "request body must be valid JSON",
			})
			return
		}
	}

	order, warning, err := c.lifecycle.Checkout(r.Context(), orderID, req.ReceiptAddress)
	if err != nil {
		c.handleServiceError(w, err, logger)
		return
	}

	c.writeJSON(w, http.StatusOK, dto.CheckoutResponse{
		Order:   toOrderResponse(order),
		Warning: warning,
	})
}

func (c *OrderController) ListOrders(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	restaurantID, ok := c.pathID(w, r, "restaurantID")
	if !ok {
		return
	}

	filter := dto.OrderListFilter{Status: r.URL.Query().Get("status")}
	if dateStr := r.URL.Query().Get("date"); dateStr != "" {
		date, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			c.writeValidationError(w, "validation failed", apperrors.ValidationDetail{
				Field:   "date",
				Message: "date must be in YYYY-MM-DD format",
			})
			return
		}
		filter.Date = &date
	}

	orders, err := c.lifecycle.ListOrders(r.Context(), restaurantID, filter)
	if err != nil {
		c.handleServiceError(w, err, logger)
		return
	}

	responses := make([]dto.OrderResponse, len(orders))
	for i := range orders {
		responses[i] = toOrderResponse(&orders[i])
	}
	c.writeJSON(w, http.StatusOK, responses)
}

func (c *OrderController) ListTables(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	restaurantID, ok := c.pathID(w, r, "restaurantID")
	if !ok {
		return
	}

	tables, err := c.tables.ListByRestaurant(r.Context(), restaurantID)
	if err != nil {
		c.handleServiceError(w, err, logger)
		return
	}

	responses := make([]dto.TableResponse, len(tables))
	for i, t := range tables {
		responses[i] = dto.TableResponse{
			ID:       t.ID,
			Name:     t.Name,
			Capacity: t.Capacity,
			Occupied: t.Occupied,
			Active:   t.Active,
		}
	}
	c.writeJSON(w, http.StatusOK, responses)
}

func (c *OrderController) pathID(w http.ResponseWriter, r *http.Request, param string) (uint64, bool) {
	raw := chi.URLParam(r, param)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		c.writeValidationError(w, "validation failed", apperrors.ValidationDetail{
			Field:   param,
			Message: param + " must be a positive integer",
		})
		return 0, false
	}
	return id, true
}

func (c *OrderController) handleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if ve, ok := apperrors.IsValidationError(err); ok {
		c.writeValidationError(w, ve.Message, ve.Details...)
		return
	}
	if _, ok := apperrors.IsNotFoundError(err); ok {
		c.writeErrorResponse(w, http.StatusNotFound, "NOT_FOUND", err.Error(), "")
		return
	}
	if ce, ok := apperrors.IsConflictError(err); ok {
		c.writeErrorResponse(w, http.StatusConflict, "CONFLICT", err.Error(), ce.ConflictingID)
		return
	}
	if _, ok := apperrors.IsInvalidStateError(err); ok {
		c.writeErrorResponse(w, http.StatusUnprocessableEntity, "INVALID_STATE", err.Error(), "")
		return
	}

	logger.Error("unexpected error", zap.Error(err))
	c.writeErrorResponse(w, http.StatusInternalServerError, "INTERNAL_ERROR", "an unexpected error occurred", "")
}

type errorResponse struct {
	Error         string    `json:"error"`
	Message       string    `json:"message"`
	ConflictingID string    `json:"conflictingId,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

func (c *OrderController) writeErrorResponse(w http.ResponseWriter, status int, code, message, conflictingID string) {
	c.writeJSON(w, status, errorResponse{
		Error:         code,
		Message:       message,
		ConflictingID: conflictingID,
		Timestamp:     time.Now().UTC(),
	})
}

type validationErrorResponse struct {
	Error   string                       `json:"error"`
	Message string                       `json:"message"`
	Details []apperrors.ValidationDetail `json:"details"`
}

func (c *OrderController) writeValidationError(w http.ResponseWriter, message string, details ...apperrors.ValidationDetail) {
	c.writeJSON(w, http.StatusBadRequest, validationErrorResponse{
		Error:   "VALIDATION_ERROR",
		Message: message,
		Details: details,
	})
}

func (c *OrderController) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		c.logger.Error("failed to encode response", zap.Error(err))
	}
}

func toOrderResponse(order *domain.Order) dto.OrderResponse {
	items := make([]dto.OrderLineResponse, len(order.Lines))
	for i, line := range order.Lines {
		items[i] = dto.OrderLineResponse{
			MenuItemID: line.MenuItemID,
			Name:       line.NameSnapshot,
			UnitPrice:  line.UnitPriceSnapshot,
			Quantity:   line.Quantity,
			Subtotal:   line.Subtotal,
		}
	}

	return dto.OrderResponse{
		ID:             order.ID,
		OrderNumber:    order.OrderNumber,
		RestaurantID:   order.RestaurantID,
		TableID:        order.TableID,
		TableName:      order.TableName,
		CustomerName:   order.CustomerName,
		CustomerPhone:  order.CustomerPhone,
		Status:         order.Status,
		Notes:          order.Notes,
		Items:          items,
		TotalAmount:    order.TotalAmount,
		TotalItemCount: order.TotalItemCount,
		CreatedAt:      order.CreatedAt,
		CompletedAt:    order.CompletedAt,
	}
}
