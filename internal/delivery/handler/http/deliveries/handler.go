package deliveries

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	app "github.com/myosher1/sales-delivery/internal/delivery/app/deliveries"
)

type DeliveryHandler struct {
	service app.DeliveryService
	logger  *zap.Logger
}

func NewDeliveryHandler(s app.DeliveryService, l *zap.Logger) *DeliveryHandler {
	return &DeliveryHandler{service: s, logger: l}
}

func (h *DeliveryHandler) GetDelivery(w http.ResponseWriter, r *http.Request) {
	deliveryID := chi.URLParam(r, "deliveryID")
	if deliveryID == "" {
		h.logger.Warn("Delivery ID is missing in GetDelivery request")
		http.Error(w, "Delivery ID is required", http.StatusBadRequest)
		return
	}

	res, err := h.service.GetDelivery(r.Context(), deliveryID)
	if err != nil {
		if errors.Is(err, app.ErrDeliveryNotFound) {
			h.logger.Info("Delivery not found", zap.String("delivery_id", deliveryID))
			http.Error(w, "Delivery not found", http.StatusNotFound)
			return
		}
		h.logger.Error("Error getting delivery", zap.String("delivery_id", deliveryID), zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(res)
}

func (h *DeliveryHandler) GetAllDeliveries(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.GetAllDeliveries(r.Context())
	if err != nil {
		h.logger.Error("Error getting all deliveries", zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(res)
}

func (h *DeliveryHandler) UpdateDeliveryStatus(w http.ResponseWriter, r *http.Request) {
	deliveryID := chi.URLParam(r, "deliveryID")
	if deliveryID == "" {
		h.logger.Warn("Delivery ID is missing in UpdateDeliveryStatus request")
		http.Error(w, "Delivery ID is required", http.StatusBadRequest)
		return
	}

	var req app.UpdateDeliveryStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid request body for UpdateDeliveryStatus", zap.Error(err))
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	res, err := h.service.UpdateDeliveryStatus(r.Context(), deliveryID, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrDeliveryNotFound):
			http.Error(w, "Delivery not found", http.StatusNotFound)
		case errors.Is(err, app.ErrUnknownDeliveryStatus), errors.Is(err, app.ErrInvalidStatusTransition):
			h.logger.Warn("Rejected delivery status update", zap.String("delivery_id", deliveryID), zap.Error(err))
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			h.logger.Error("Error updating delivery status", zap.String("delivery_id", deliveryID), zap.Error(err))
			http.Error(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(res)
}
