package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gset/fibertrack/backend/src/models"
	"github.com/gset/fibertrack/backend/src/services"
	"github.com/gset/fibertrack/backend/src/utils"
	"github.com/shopspring/decimal"
)

type PriceHandler struct {
	priceService services.PriceGridService
}

func NewPriceHandler(priceService services.PriceGridService) *PriceHandler {
	return &PriceHandler{priceService: priceService}
}

func (h *PriceHandler) HandleGetPriceGrid(w http.ResponseWriter, r *http.Request) {
	entries, err := h.priceService.Entries(r.Context())
	if err != nil {
		sendServiceError(w, err, "loading the price grid")
		return
	}
	if entries == nil {
		entries = []models.PriceGridEntry{}
	}
	writeJSONWithETag(w, r, entries)
}

type priceOverrideRequest struct {
	GsetPrice decimal.Decimal `json:"gset_price"`
	TechPrice decimal.Decimal `json:"tech_price"`
}

// HandlePutPrice stores an override for the code in the path.
func (h *PriceHandler) HandlePutPrice(w http.ResponseWriter, r *http.Request) {
	var req priceOverrideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "INVALID_REQUEST", "invalid JSON body", http.StatusBadRequest)
		return
	}
	entry, err := h.priceService.SetOverride(r.Context(), models.PriceGridEntry{
		Code:      r.PathValue("code"),
		GsetPrice: req.GsetPrice,
		TechPrice: req.TechPrice,
	})
	if err != nil {
		sendServiceError(w, err, "saving the price")
		return
	}
	utils.SendJSON(w, entry, http.StatusOK)
}

func (h *PriceHandler) HandleDeletePrice(w http.ResponseWriter, r *http.Request) {
	if err := h.priceService.DeleteOverride(r.Context(), r.PathValue("code")); err != nil {
		sendServiceError(w, err, "deleting the price override")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
