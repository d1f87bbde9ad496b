package order_api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ms-boxoffice/internal/logger"
	"ms-boxoffice/internal/orders"
	"ms-boxoffice/internal/qr"
	"ms-boxoffice/internal/utils"
)

type Handler struct {
	Orders *orders.Service
	Logger *logger.Logger
}

type orderRequest struct {
	SessionID string `json:"sessionId"`
}

// GetOrder reports fulfillment status for a checkout session so the
// success page can poll until the codes show up.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	var req orderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SessionID == "" {
		utils.WriteError(w, http.StatusBadRequest, "Missing sessionId")
		return
	}

	status, err := h.Orders.GetOrderStatus(req.SessionID)
	if err != nil {
		h.Logger.Error("ORDERS", fmt.Sprintf("Order lookup failed for %s: %v", req.SessionID, err))
		utils.WriteError(w, http.StatusInternalServerError, "Failed to load order")
		return
	}
	utils.WriteJSON(w, http.StatusOK, status)
}

type checkInRequest struct {
	QRCode string `json:"qrCode"`
}

// CheckIn admits a ticket holder by code. Staff auth is enforced by
// middleware on the route.
func (h *Handler) CheckIn(w http.ResponseWriter, r *http.Request) {
	var req checkInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.QRCode == "" {
		utils.WriteError(w, http.StatusBadRequest, "Missing qrCode")
		return
	}

	result, err := h.Orders.CheckIn(req.QRCode)
	if err != nil {
		switch {
		case errors.Is(err, orders.ErrNotFound):
			utils.WriteError(w, http.StatusNotFound, "Ticket not found")
		case errors.Is(err, orders.ErrAlreadyCheckedIn):
			utils.WriteError(w, http.StatusConflict, "Ticket already checked in")
		default:
			h.Logger.Error("ORDERS", fmt.Sprintf("Check-in failed for %s: %v", req.QRCode, err))
			utils.WriteError(w, http.StatusInternalServerError, "Check-in failed")
		}
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]any{"ok": true, "sale": result})
}

// TicketImage serves the QR PNG for an issued code.
func (h *Handler) TicketImage(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if code == "" {
		utils.WriteError(w, http.StatusBadRequest, "Missing code")
		return
	}

	png, err := h.Orders.TicketImage(code, qr.ImagePNG)
	if err != nil {
		if errors.Is(err, orders.ErrNotFound) {
			utils.WriteError(w, http.StatusNotFound, "Ticket not found")
			return
		}
		h.Logger.Error("ORDERS", fmt.Sprintf("QR render failed for %s: %v", code, err))
		utils.WriteError(w, http.StatusInternalServerError, "Failed to render code")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}
