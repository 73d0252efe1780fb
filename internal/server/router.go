package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	analyticsctrl "comanda/internal/analytics/controller"
	orderctrl "comanda/internal/order/controller"
)

func NewRouter(orders *orderctrl.OrderController, analytics *analyticsctrl.AnalyticsController, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Route("/api/restaurants/{restaurantID}", func(r chi.Router) {
		r.Post("/orders", orders.CreateOrder)
		r.Get("/orders", orders.ListOrders)
		r.Get("/tables", orders.ListTables)

		r.Get("/analytics/dashboard", analytics.Dashboard)
		r.Get("/analytics/sales/export", analytics.ExportSales)
	})

	r.Route("/api/orders/{orderID}", func(r chi.Router) {
		r.Post("/items", orders.AddItem)
		r.Patch("/status", orders.SetStatus)
		r.Post("/checkout", orders.Checkout)
	})

	return r
}
