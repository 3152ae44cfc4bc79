package animals

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"cattle-dental-health/internal/middleware"
	"cattle-dental-health/internal/ports/auth"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, reconciler *Reconciler, sync *SyncService) {
	r.Route("/animal", func(ar chi.Router) {
		// Rutas de integración: públicas, el provider externo no manda JWT
		ar.Post("/integration/webhook", webhookHandler(reconciler))
		ar.Get("/integration/sync", syncHandler(sync))

		ar.Post("/", createAnimalHandler(svc))
		ar.Get("/", listAnimalsHandler(svc))

		ar.Get("/filters/farms", farmsHandler(svc))
		ar.Get("/filters/clients", clientsHandler(svc))

		ar.Get("/{animalID}", getAnimalHandler(svc))
		ar.Patch("/{animalID}", updateAnimalHandler(svc))
		ar.Delete("/{animalID}", deleteAnimalHandler(svc))
	})
}

type createAnimalRequest struct {
	TagCode        string  `json:"tagCode"`
	Chip           string  `json:"chip"`
	SisbovNumber   string  `json:"sisbovNumber"`
	Breed          string  `json:"breed"`
	Farm           string  `json:"farm"`
	Lot            string  `json:"lot"`
	Client         string  `json:"client"`
	Location       string  `json:"location"`
	Category       string  `json:"category"`
	CoatColor      string  `json:"coatColor"`
	Status         string  `json:"status"`
	Age            *int    `json:"age"`
	CurrentWeight  float64 `json:"currentWeight"`
	BodyScore      float64 `json:"bodyScore"`
	BirthDate      string  `json:"birthDate"`      // YYYY-MM-DD opcional
	CollectionDate string  `json:"collectionDate"` // YYYY-MM-DD opcional
}

type updateAnimalRequest struct {
	// Punteros para PATCH real: nil = no tocar.
	TagCode       *string  `json:"tagCode"`
	Chip          *string  `json:"chip"`
	SisbovNumber  *string  `json:"sisbovNumber"`
	Breed         *string  `json:"breed"`
	Farm          *string  `json:"farm"`
	Lot           *string  `json:"lot"`
	Client        *string  `json:"client"`
	Location      *string  `json:"location"`
	Category      *string  `json:"category"`
	CoatColor     *string  `json:"coatColor"`
	Status        *string  `json:"status"`
	Age           *int     `json:"age"`
	CurrentWeight *float64 `json:"currentWeight"`
	BodyScore     *float64 `json:"bodyScore"`
	BirthDate     *string  `json:"birthDate"`
}

type mediaResponse struct {
	S3URLPath        string   `json:"s3UrlPath"`
	OriginalDriveURL string   `json:"originalDriveUrl"`
	Latitude         *float64 `json:"latitude"`
	Longitude        *float64 `json:"longitude"`
}

type animalResponse struct {
	ID            string     `json:"id"`
	Code          string     `json:"code"`
	TagCode       string     `json:"tagCode"`
	Chip          string     `json:"chip,omitempty"`
	SisbovNumber  string     `json:"sisbovNumber,omitempty"`
	Breed         string     `json:"breed,omitempty"`
	Farm          string     `json:"farm,omitempty"`
	Lot           string     `json:"lot,omitempty"`
	Client        string     `json:"client,omitempty"`
	Location      string     `json:"location,omitempty"`
	Category      string     `json:"category,omitempty"`
	CoatColor     string     `json:"coatColor,omitempty"`
	Status        string     `json:"status,omitempty"`
	Age           *int       `json:"age,omitempty"`
	CurrentWeight float64    `json:"currentWeight"`
	BodyScore     float64    `json:"bodyScore"`
	BirthDate     *time.Time `json:"birthDate,omitempty"`
	EntryDate     *time.Time `json:"entryDate,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`

	Coordinates *Coordinates    `json:"coordinates,omitempty"`
	Media       []mediaResponse `json:"media"`
}

func webhookHandler(rc *Reconciler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var raw map[string]any
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		result, err := rc.Process(r.Context(), raw)
		if err != nil {
			// siempre opaco hacia afuera; la causa real quedó en el log
			http.Error(w, ErrProcessing.Error(), http.StatusBadRequest)
			return
		}

		writeJSON(w, http.StatusOK, result)
	}
}

func syncHandler(sync *SyncService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := sync.Run(r.Context(), r.URL.Query().Get("start"), r.URL.Query().Get("end"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

func createAnimalHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := requireUser(w, r); !ok {
			return
		}

		var req createAnimalRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		bd, ok := parseOptionalDate(w, req.BirthDate, "birthDate")
		if !ok {
			return
		}
		cd, ok := parseOptionalDate(w, req.CollectionDate, "collectionDate")
		if !ok {
			return
		}

		a, err := svc.Create(r.Context(), CreateInput{
			TagCode:        req.TagCode,
			Chip:           req.Chip,
			SisbovNumber:   req.SisbovNumber,
			Breed:          req.Breed,
			Farm:           req.Farm,
			Lot:            req.Lot,
			Client:         req.Client,
			Location:       req.Location,
			Category:       req.Category,
			CoatColor:      req.CoatColor,
			Status:         req.Status,
			Age:            req.Age,
			CurrentWeight:  req.CurrentWeight,
			BodyScore:      req.BodyScore,
			BirthDate:      bd,
			CollectionDate: cd,
		})
		if err != nil {
			if errors.Is(err, ErrInvalidInput) {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusCreated, toAnimalResponse(a, nil, nil))
	}
}

func listAnimalsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.List(r.Context())
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]animalResponse, 0, len(items))
		for _, a := range items {
			out = append(out, toAnimalResponse(a, nil, nil))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func getAnimalHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseID(chi.URLParam(r, "animalID"))
		if err != nil {
			http.Error(w, "invalid animal id", http.StatusBadRequest)
			return
		}

		d, err := svc.GetDetail(r.Context(), id)
		if err != nil {
			http.Error(w, "animal não encontrado", http.StatusNotFound)
			return
		}

		writeJSON(w, http.StatusOK, toAnimalResponse(d.Animal, d.Media, d.Coordinates))
	}
}

func updateAnimalHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := requireUser(w, r)
		if !ok {
			return
		}

		id, err := parseID(chi.URLParam(r, "animalID"))
		if err != nil {
			http.Error(w, "invalid animal id", http.StatusBadRequest)
			return
		}

		var req updateAnimalRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		var bd *time.Time
		if req.BirthDate != nil {
			parsed, ok := parseOptionalDate(w, *req.BirthDate, "birthDate")
			if !ok {
				return
			}
			bd = parsed
		}

		d, err := svc.Update(r.Context(), id, UpdateInput{
			TagCode:       req.TagCode,
			Chip:          req.Chip,
			SisbovNumber:  req.SisbovNumber,
			Breed:         req.Breed,
			Farm:          req.Farm,
			Lot:           req.Lot,
			Client:        req.Client,
			Location:      req.Location,
			Category:      req.Category,
			CoatColor:     req.CoatColor,
			Status:        req.Status,
			Age:           req.Age,
			CurrentWeight: req.CurrentWeight,
			BodyScore:     req.BodyScore,
			BirthDate:     bd,
		}, claims.UserID, displayName(claims.Email, claims.UserID))
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				http.Error(w, "animal não encontrado", http.StatusNotFound)
				return
			}
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, toAnimalResponse(d.Animal, d.Media, d.Coordinates))
	}
}

func deleteAnimalHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := requireUser(w, r)
		if !ok {
			return
		}

		id, err := parseID(chi.URLParam(r, "animalID"))
		if err != nil {
			http.Error(w, "invalid animal id", http.StatusBadRequest)
			return
		}

		a, err := svc.Delete(r.Context(), id, claims.UserID, displayName(claims.Email, claims.UserID))
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				http.Error(w, "animal não encontrado", http.StatusNotFound)
				return
			}
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, toAnimalResponse(a, nil, nil))
	}
}

func farmsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		farms, err := svc.FarmOptions(r.Context())
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, farms)
	}
}

func clientsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clients, err := svc.ClientOptions(r.Context())
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, clients)
	}
}

func toAnimalResponse(a Animal, media []Media, coords *Coordinates) animalResponse {
	ms := make([]mediaResponse, 0, len(media))
	for _, m := range media {
		ms = append(ms, mediaResponse{
			S3URLPath:        m.StoragePath,
			OriginalDriveURL: m.OriginalLink,
			Latitude:         m.Latitude,
			Longitude:        m.Longitude,
		})
	}

	return animalResponse{
		ID:            strconv.FormatInt(a.ID, 10),
		Code:          a.TagCode,
		TagCode:       a.TagCode,
		Chip:          a.Chip,
		SisbovNumber:  a.SisbovNumber,
		Breed:         a.Breed,
		Farm:          a.Farm,
		Lot:           a.Lot,
		Client:        a.Client,
		Location:      a.Location,
		Category:      a.Category,
		CoatColor:     a.CoatColor,
		Status:        a.Status,
		Age:           a.Age,
		CurrentWeight: a.CurrentWeight,
		BodyScore:     a.BodyScore,
		BirthDate:     a.BirthDate,
		EntryDate:     a.EntryDate,
		CreatedAt:     a.CreatedAt,
		Coordinates:   coords,
		Media:         ms,
	}
}

func requireUser(w http.ResponseWriter, r *http.Request) (auth.Claims, bool) {
	c, has := middleware.GetClaims(r.Context())
	if !has || strings.TrimSpace(c.UserID) == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return auth.Claims{}, false
	}
	return c, true
}

func displayName(email, userID string) string {
	if strings.TrimSpace(email) != "" {
		return email
	}
	return userID
}

func parseID(s string) (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(s), 10, 64)
}

func parseOptionalDate(w http.ResponseWriter, s, field string) (*time.Time, bool) {
	if strings.TrimSpace(s) == "" {
		return nil, true
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		http.Error(w, field+" must be YYYY-MM-DD", http.StatusBadRequest)
		return nil, false
	}
	return &t, true
}

// writeJSON está duplicado a propósito en los handlers de cada módulo
// (animals/evaluations/reports) para no crear helpers compartidos antes de
// tiempo.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
