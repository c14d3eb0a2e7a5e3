package server

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"
)

// handleSync invokes sync_all synchronously. On a phase/cycle-level abort
// it still returns the partial SyncStats, paired with an error payload, so
// the native client can surface the error while keeping cached data
// visible.
func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	stats, err := s.reconciler.SyncAll(r.Context())
	if err != nil {
		logrus.WithError(err).Warn("manual sync cycle aborted")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"stats": stats,
			"error": err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
