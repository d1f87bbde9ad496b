package catalog_api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"ms-boxoffice/internal/catalog"
	"ms-boxoffice/internal/logger"
	"ms-boxoffice/internal/models"
	"ms-boxoffice/internal/utils"
)

type Handler struct {
	Catalog *catalog.Service
	Logger  *logger.Logger
}

// GetEventDetails serves GET /api/boxoffice/events/details?id=.
func (h *Handler) GetEventDetails(w http.ResponseWriter, r *http.Request) {
	eventID := strings.TrimSpace(r.URL.Query().Get("id"))
	if eventID == "" {
		utils.WriteError(w, http.StatusBadRequest, "Missing id")
		return
	}

	details, err := h.Catalog.GetPublicEvent(eventID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			utils.WriteError(w, http.StatusNotFound, "Not found")
			return
		}
		h.Logger.Error("CATALOG", fmt.Sprintf("GetEventDetails: %v", err))
		utils.WriteError(w, http.StatusInternalServerError, "Internal error")
		return
	}

	utils.WriteJSON(w, http.StatusOK, details)
}

// ListEvents serves GET /api/boxoffice/events?q=.
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.Catalog.ListPublicEvents(r.URL.Query().Get("q"))
	if err != nil {
		h.Logger.Error("CATALOG", fmt.Sprintf("ListEvents: %v", err))
		utils.WriteError(w, http.StatusInternalServerError, "Internal error")
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string][]models.Event{"events": events})
}
