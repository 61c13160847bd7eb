package handlers

import (
	"net/http"
	"time"
)

type HealthHandler struct {
	started time.Time
}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{started: time.Now()}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"uptimeSec": int(time.Since(h.started).Seconds()),
	})
}
