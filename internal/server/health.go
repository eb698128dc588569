package server

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// debugRouter builds the ambient health/debug HTTP surface. It never
// touches the protocol port or the consistency logic; it is a read-only
// window onto this server's local state.
func (s *Server) debugRouter() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/debug/articles", s.handleDebugArticles).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":      "ok",
		"mode":        s.cfg.Consistency,
		"coordinator": s.cfg.Coordinator,
		"addr":        s.cfg.Addr(),
	})
}

func (s *Server) handleDebugArticles(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.store.List())
}
