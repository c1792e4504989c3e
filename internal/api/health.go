package api

import "net/http"

// handleHealth reports service liveness plus registry totals. A failed
// count means the database is unreachable, which is worth a 500 so load
// balancers stop routing here.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	userCount, err := s.users.Count(r.Context())
	if err != nil {
		s.logger.Error("health check failed", "error", err)
		writeInternalError(w, "database unavailable")
		return
	}
	deviceCount, err := s.devices.Count(r.Context())
	if err != nil {
		s.logger.Error("health check failed", "error", err)
		writeInternalError(w, "database unavailable")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
		"users":   userCount,
		"devices": deviceCount,
	})
}
