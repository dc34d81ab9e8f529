package ops

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"foodline-bot/internal/logger"
	"foodline-bot/internal/metrics"
	"foodline-bot/internal/middleware"
	"foodline-bot/internal/notify"
	"foodline-bot/internal/order"
	"foodline-bot/internal/session"
)

// Handler is the operator-facing fulfillment API. Everything except
// login sits behind the JWT middleware.
type Handler struct {
	auth     *Auth
	orders   order.Service
	notifier notify.Notifier
	registry *metrics.Registry
	sessions *session.Store
	secret   []byte
}

func NewHandler(
	auth *Auth,
	orders order.Service,
	notifier notify.Notifier,
	registry *metrics.Registry,
	sessions *session.Store,
	secret []byte,
) *Handler {
	return &Handler{
		auth:     auth,
		orders:   orders,
		notifier: notifier,
		registry: registry,
		sessions: sessions,
		secret:   secret,
	}
}

func (h *Handler) Register(mux *http.ServeMux) {
	protect := middleware.OperatorAuth(h.secret)

	mux.HandleFunc("POST /ops/login", h.login)
	mux.Handle("GET /ops/orders", protect(http.HandlerFunc(h.listOrders)))
	mux.Handle("POST /ops/orders/{id}/status", protect(http.HandlerFunc(h.updateStatus)))
	mux.Handle("GET /ops/status", protect(http.HandlerFunc(h.status)))
}

type loginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	token, err := h.auth.Login(r.Context(), req.Login, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ActiveOrders(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list orders")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"orders": orders})
}

type statusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	orderID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	d, err := h.orders.UpdateStatus(r.Context(), orderID, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, order.ErrInvalidStatus):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, order.ErrOrderNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "failed to update status")
		}
		return
	}

	// The buyer learns about the move; a delivery failure only costs a
	// log line.
	text := fmt.Sprintf("Order #%d is now %s.", d.ID, d.Status)
	if err := h.notifier.SendToUser(r.Context(), d.UserID, text); err != nil {
		h.registry.NotifyFailures.Inc()
		logger.FromCtx(r.Context()).Warn("status notification failed", zap.Error(err))
	}

	writeJSON(w, http.StatusOK, d)
}

func (h *Handler) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"counters":      h.registry.Snapshot(),
		"active_drafts": h.sessions.Len(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
