package deliveries

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	app "github.com/myosher1/sales-delivery/internal/delivery/app/deliveries"
)

func RegisterRoutes(r chi.Router, s app.DeliveryService, l *zap.Logger) {
	handler := NewDeliveryHandler(s, l.With(zap.String("component", "DeliveryHTTPHandler")))

	r.Route("/deliveries", func(r chi.Router) {
		r.Get("/", handler.GetAllDeliveries)
		r.Get("/{deliveryID}", handler.GetDelivery)
		r.Patch("/{deliveryID}/status", handler.UpdateDeliveryStatus)
	})
}
