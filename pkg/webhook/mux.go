package webhook

import "net/http"

// NewMux routes the LINE callback and a health check.
func NewMux(d *Dispatcher) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("POST /callback", d)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return mux
}
