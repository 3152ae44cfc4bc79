package audit

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Get("/audit", recentHandler(svc))
}

type logResponse struct {
	ID        string    `json:"id"`
	Action    string    `json:"action"`
	Entity    string    `json:"entity"`
	EntityID  string    `json:"entityId"`
	UserID    *string   `json:"userId"`
	Details   string    `json:"details"`
	CreatedAt time.Time `json:"createdAt"`
}

func recentHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

		entries, err := svc.Recent(r.Context(), limit)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]logResponse, 0, len(entries))
		for _, e := range entries {
			out = append(out, logResponse{
				ID:        e.ID,
				Action:    e.Action,
				Entity:    e.Entity,
				EntityID:  e.EntityID,
				UserID:    e.UserID,
				Details:   e.Details,
				CreatedAt: e.CreatedAt,
			})
		}

		writeJSON(w, http.StatusOK, out)
	}
}

// writeJSON está duplicado a propósito en los handlers de cada módulo.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
