package handler

import "net/http"

// Health handles GET /health. It reports process liveness only; no
// downstream checks happen here so the probe stays cheap.
func Health(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
