package stock

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	app "github.com/myosher1/sales-delivery/internal/inventory/app/stock"
)

type StockHandler struct {
	service app.StockService
	logger  *zap.Logger
}

func NewStockHandler(s app.StockService, l *zap.Logger) *StockHandler {
	return &StockHandler{service: s, logger: l}
}

func (h *StockHandler) CheckAvailability(w http.ResponseWriter, r *http.Request) {
	var req app.CheckAvailabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid request body for CheckAvailability", zap.Error(err))
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	results, err := h.service.CheckAvailability(r.Context(), req.Items)
	if err != nil {
		if errors.Is(err, app.ErrNoItems) {
			h.logger.Warn("Bad request for CheckAvailability", zap.Error(err))
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.logger.Error("Error checking availability", zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(app.CheckAvailabilityResponse{Items: results})
}
