package reports

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/reports", func(rr chi.Router) {
		rr.Get("/stats", statsHandler(svc))
	})
}

func statsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		f := Filter{
			Farm:   normalizeFilter(q.Get("filterFarm")),
			Client: normalizeFilter(q.Get("filterClient")),
		}

		var err error
		if f.Start, err = parseDay(q.Get("startDate")); err != nil {
			http.Error(w, "startDate inválido, use YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		if f.End, err = parseDay(q.Get("endDate")); err != nil {
			http.Error(w, "endDate inválido, use YYYY-MM-DD", http.StatusBadRequest)
			return
		}

		stats, err := svc.Stats(r.Context(), f)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, stats)
	}
}

func parseDay(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation("2006-01-02", s, time.Local)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func normalizeFilter(s string) string {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "all") {
		return ""
	}
	return s
}

// writeJSON está duplicado a propósito en los handlers de cada módulo.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
