package web

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/vitos/breakout_monitor/internal/domain"
	"go.uber.org/zap"
)

func (s *Server) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Failed to encode response", zap.Error(err))
	}
}

func (s *Server) handleWatchlistJSON(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, s.watchlist.Watchlist())
}

func (s *Server) handleAlertsJSON(w http.ResponseWriter, r *http.Request) {
	if s.journal == nil {
		http.Error(w, "Alert journal disabled", http.StatusNotFound)
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = min(n, 500)
	}

	alerts, err := s.journal.ListAlerts(r.Context(), limit)
	if err != nil {
		s.logger.Error("Failed to list alerts", zap.Error(err))
		http.Error(w, "Failed to list alerts", http.StatusInternalServerError)
		return
	}
	if alerts == nil {
		alerts = []*domain.Alert{}
	}
	s.writeJSON(w, alerts)
}
