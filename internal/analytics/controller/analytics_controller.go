package controller

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"comanda/internal/analytics/service"
	"comanda/internal/dto"
	apperrors "comanda/internal/errors"
	"comanda/internal/infrastructure/redis"
)

type Aggregator interface {
	Dashboard(ctx context.Context, restaurantID uint64, window dto.Window, granularity service.Granularity) (*dto.Dashboard, error)
	Export(ctx context.Context, restaurantID uint64, start, end time.Time) ([]dto.SalesRow, error)
}

// AnalyticsController serves the dashboard and the sales export. cache may
// be nil; every cache failure degrades to computing fresh.
type AnalyticsController struct {
	aggregator Aggregator
	cache      redis.Cache
	cacheTTL   time.Duration
	logger     *zap.Logger
}

func NewAnalyticsController(aggregator Aggregator, cache redis.Cache, cacheTTL time.Duration, logger *zap.Logger) *AnalyticsController {
	return &AnalyticsController{
		aggregator: aggregator,
		cache:      cache,
		cacheTTL:   cacheTTL,
		logger:     logger,
	}
}

func (c *AnalyticsController) Dashboard(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	restaurantID, ok := c.pathID(w, r, "restaurantID")
	if !ok {
		return
	}

	window, ok := c.resolveWindow(w, r)
	if !ok {
		return
	}

	granularity, ok := service.ParseGranularity(r.URL.Query().Get("granularity"))
	if !ok {
		c.writeValidationError(w, "validation failed", apperrors.ValidationDetail{
			Field:   "granularity",
			Message: "granularity must be one of hour, day, week, month",
		})
		return
	}

	cacheKey := ""
	if c.cache != nil {
		cacheKey = c.cache.GenerateKey("dashboard", fmt.Sprintf("%d:%d:%d:%s",
			restaurantID, window.Start.Unix(), window.End.Unix(), granularity))
		if cached, err := c.cache.Get(r.Context(), cacheKey); err != nil {
			logger.Warn("dashboard cache read failed", zap.Error(err))
		} else if cached != "" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(cached))
			return
		}
	}

	dashboard, err := c.aggregator.Dashboard(r.Context(), restaurantID, window, granularity)
	if err != nil {
		c.handleServiceError(w, err, logger)
		return
	}

	body, err := json.Marshal(dashboard)
	if err != nil {
		logger.Error("failed to encode dashboard", zap.Error(err))
		c.writeErrorResponse(w, http.StatusInternalServerError, "INTERNAL_ERROR", "an unexpected error occurred")
		return
	}

	if c.cache != nil {
		if err := c.cache.Set(r.Context(), cacheKey, string(body), c.cacheTTL); err != nil {
			logger.Warn("dashboard cache write failed", zap.Error(err))
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

func (c *AnalyticsController) ExportSales(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	restaurantID, ok := c.pathID(w, r, "restaurantID")
	if !ok {
		return
	}

	start, end, ok := c.parseRange(w, r)
	if !ok {
		return
	}

	rows, err := c.aggregator.Export(r.Context(), restaurantID, start, end)
	if err != nil {
		c.handleServiceError(w, err, logger)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="sales.csv"`)
	w.WriteHeader(http.StatusOK)

	writer := csv.NewWriter(w)
	writer.Write([]string{"orderNumber", "date", "table", "total", "status"})
	for _, row := range rows {
		writer.Write([]string{
			row.OrderNumber,
			row.Date.Format(time.RFC3339),
			row.TableName,
			strconv.FormatFloat(row.Total, 'f', 2, 64),
			row.Status,
		})
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		logger.Error("failed to write csv export", zap.Error(err))
	}
}

// resolveWindow turns ?period= or ?start=&end= into a half-open window.
// Named periods roll back from today's midnight boundary; custom ranges
// treat the end date as inclusive.
func (c *AnalyticsController) resolveWindow(w http.ResponseWriter, r *http.Request) (dto.Window, bool) {
	startStr := r.URL.Query().Get("start")
	endStr := r.URL.Query().Get("end")

	if startStr != "" || endStr != "" {
		start, err1 := time.Parse("2006-01-02", startStr)
		end, err2 := time.Parse("2006-01-02", endStr)
		if err1 != nil || err2 != nil || !end.After(start.AddDate(0, 0, -1)) {
			c.writeValidationError(w, "validation failed", apperrors.ValidationDetail{
				Field:   "start",
				Message: "start and end must be YYYY-MM-DD dates with start <= end",
			})
			return dto.Window{}, false
		}
		return dto.Window{Start: start, End: end.AddDate(0, 0, 1)}, true
	}

	now := time.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	tomorrow := today.AddDate(0, 0, 1)

	switch r.URL.Query().Get("period") {
	case "", "today":
		return dto.Window{Start: today, End: tomorrow}, true
	case "week":
		return dto.Window{Start: tomorrow.AddDate(0, 0, -7), End: tomorrow}, true
	case "month":
		return dto.Window{Start: tomorrow.AddDate(0, -1, 0), End: tomorrow}, true
	case "year":
		return dto.Window{Start: tomorrow.AddDate(-1, 0, 0), End: tomorrow}, true
	}

	c.writeValidationError(w, "validation failed", apperrors.ValidationDetail{
		Field:   "period",
		Message: "period must be one of today, week, month, year",
	})
	return dto.Window{}, false
}

func (c *AnalyticsController) parseRange(w http.ResponseWriter, r *http.Request) (time.Time, time.Time, bool) {
	start, err1 := time.Parse("2006-01-02", r.URL.Query().Get("start"))
	end, err2 := time.Parse("2006-01-02", r.URL.Query().Get("end"))
	if err1 != nil || err2 != nil || end.Before(start) {
		c.writeValidationError(w, "validation failed", apperrors.ValidationDetail{
			Field:   "start",
			Message: "start and end must be YYYY-MM-DD dates with start <= end",
		})
		return time.Time{}, time.Time{}, false
	}
	return start, end.AddDate(0, 0, 1), true
}

func (c *AnalyticsController) pathID(w http.ResponseWriter, r *http.Request, param string) (uint64, bool) {
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

func (c *AnalyticsController) handleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if ve, ok := apperrors.IsValidationError(err); ok {
		c.writeValidationError(w, ve.Message, ve.Details...)
		return
	}
	if _, ok := apperrors.IsNotFoundError(err); ok {
		c.writeErrorResponse(w, http.StatusNotFound, "NOT_FOUND", err.Error())
		return
	}

	logger.Error("unexpected error", zap.Error(err))
	c.writeErrorResponse(w, http.StatusInternalServerError, "INTERNAL_ERROR", "an unexpected error occurred")
}

type errorResponse struct {
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

func (c *AnalyticsController) writeErrorResponse(w http.ResponseWriter, status int, code, message string) {
	c.writeJSON(w, status, errorResponse{
		Error:     code,
		Message:   message,
		Timestamp: time.Now().UTC(),
	})
}

type validationErrorResponse struct {
	Error   string                       `json:"error"`
	Message string                       `json:"message"`
	Details []apperrors.ValidationDetail `json:"details"`
}

func (c *AnalyticsController) writeValidationError(w http.ResponseWriter, message string, details ...apperrors.ValidationDetail) {
	c.writeJSON(w, http.StatusBadRequest, validationErrorResponse{
		Error:   "VALIDATION_ERROR",
		Message: message,
		Details: details,
	})
}

func (c *AnalyticsController) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		c.logger.Error("failed to encode response", zap.Error(err))
	}
}
