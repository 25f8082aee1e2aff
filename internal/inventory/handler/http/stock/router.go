package stock

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	app "github.com/myosher1/sales-delivery/internal/inventory/app/stock"
)

func RegisterRoutes(r chi.Router, s app.StockService, l *zap.Logger) {
	handler := NewStockHandler(s, l.With(zap.String("component", "StockHTTPHandler")))

	r.Post("/check-availability", handler.CheckAvailability)
}
