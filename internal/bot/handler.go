package bot

import (
	"encoding/json"
	"net/http"
)

// Handler receives webhook deliveries from the chat transport. The
// transport expects a 200 with the reply body; transport-level retries
// are driven by non-2xx codes only.
type Handler struct {
	dispatcher *Dispatcher
}

func NewHandler(dispatcher *Dispatcher) *Handler {
	return &Handler{dispatcher: dispatcher}
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /webhook", h.webhook)
}

func (h *Handler) webhook(w http.ResponseWriter, r *http.Request) {
	var ev Event
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if ev.UserID == 0 {
		http.Error(w, "user_id is required", http.StatusBadRequest)
		return
	}

	reply := h.dispatcher.HandleEvent(r.Context(), ev)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(reply)
}
