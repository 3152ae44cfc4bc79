package evaluations

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

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/evaluations", func(er chi.Router) {
		er.Post("/", createEvaluationHandler(svc))
		er.Post("/quick-moulting", quickMoultingHandler(svc))

		er.Get("/history", historyHandler(svc))
		er.Get("/pending", pendingHandler(svc))
		er.Get("/dashboard", dashboardHandler(svc))
		er.Get("/animal/{ref}", historyByAnimalHandler(svc))

		er.Get("/{evaluationID}", getEvaluationHandler(svc))
		er.Patch("/{evaluationID}", updateEvaluationHandler(svc))
		er.Delete("/{evaluationID}", deleteEvaluationHandler(svc))
	})
}

type toothRequest struct {
	ToothCode string  `json:"toothCode"`
	ToothType *string `json:"toothType"`
	IsPresent *bool   `json:"isPresent"`

	CrownReductionLevel    *int `json:"crownReductionLevel"`
	LingualWear            *int `json:"lingualWear"`
	GingivalRecessionLevel *int `json:"gingivalRecessionLevel"`
	PeriodontalLesions     *int `json:"periodontalLesions"`
	FractureLevel          *int `json:"fractureLevel"`
	Pulpitis               *int `json:"pulpitis"`
	VitrifiedBorder        *int `json:"vitrifiedBorder"`
	PulpChamberExposure    *int `json:"pulpChamberExposure"`
	GingivitisEdema        *int `json:"gingivitisEdema"`
	GingivitisColor        *int `json:"gingivitisColor"`
	DentalCalculus         *int `json:"dentalCalculus"`
	AbnormalColor          *int `json:"abnormalColor"`
	Caries                 *int `json:"caries"`
}

type createEvaluationRequest struct {
	AnimalID json.Number    `json:"animalId"`
	Notes    string         `json:"notes"`
	Teeth    []toothRequest `json:"teeth"`
}

type updateEvaluationRequest struct {
	Notes *string        `json:"notes"`
	Teeth []toothRequest `json:"teeth"`
}

type quickMoultingRequest struct {
	AnimalID json.Number `json:"animalId"`
	Stage    string      `json:"stage"`
}

type toothResponse struct {
	ID        int64  `json:"id"`
	ToothCode string `json:"toothCode"`
	ToothType string `json:"toothType"`
	IsPresent bool   `json:"isPresent"`

	CrownReductionLevel    int `json:"crownReductionLevel"`
	LingualWear            int `json:"lingualWear"`
	GingivalRecessionLevel int `json:"gingivalRecessionLevel"`
	PeriodontalLesions     int `json:"periodontalLesions"`
	FractureLevel          int `json:"fractureLevel"`
	Pulpitis               int `json:"pulpitis"`
	VitrifiedBorder        int `json:"vitrifiedBorder"`
	PulpChamberExposure    int `json:"pulpChamberExposure"`
	GingivitisEdema        int `json:"gingivitisEdema"`
	GingivitisColor        int `json:"gingivitisColor"`
	DentalCalculus         int `json:"dentalCalculus"`
	AbnormalColor          int `json:"abnormalColor"`
	Caries                 int `json:"caries"`
}

type evaluationResponse struct {
	ID                  string          `json:"id"`
	AnimalID            string          `json:"animalId"`
	EvaluatorUserID     string          `json:"evaluatorUserId"`
	EvaluationDate      time.Time       `json:"evaluationDate"`
	GeneralObservations string          `json:"generalObservations"`
	Status              string          `json:"status"`
	Teeth               []toothResponse `json:"teeth"`
}

type historyRowResponse struct {
	ID                 string    `json:"id"`
	AnimalID           string    `json:"animalId"`
	Code               string    `json:"code"`
	Breed              string    `json:"breed"`
	Farm               string    `json:"farm"`
	Client             string    `json:"client"`
	Chip               string    `json:"chip"`
	Age                *int      `json:"age"`
	LastEvaluationDate time.Time `json:"lastEvaluationDate"`
	Media              []string  `json:"media"`
	WorstFracture      int       `json:"worstFracture"`
	Status             string    `json:"status"`
	EvaluatorName      string    `json:"evaluatorName"`
	EvaluatorID        string    `json:"evaluatorId"`
}

type pagedResponse struct {
	Data any       `json:"data"`
	Meta pagedMeta `json:"meta"`
}

type pagedMeta struct {
	Total    int `json:"total"`
	Page     int `json:"page"`
	Limit    int `json:"limit"`
	LastPage int `json:"lastPage,omitempty"`
}

func createEvaluationHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := requireUser(w, r)
		if !ok {
			return
		}

		var req createEvaluationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		animalID, _ := req.AnimalID.Int64()
		eval, err := svc.Create(r.Context(), CreateInput{
			AnimalID:        animalID,
			EvaluatorUserID: claims.UserID,
			Notes:           req.Notes,
			Teeth:           toToothInputs(req.Teeth),
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toEvaluationResponse(eval))
	}
}

func quickMoultingHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := requireUser(w, r)
		if !ok {
			return
		}

		var req quickMoultingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		animalID, _ := req.AnimalID.Int64()
		eval, err := svc.ApplyQuickMoulting(r.Context(), QuickMoultingInput{
			AnimalID:        animalID,
			EvaluatorUserID: claims.UserID,
			Stage:           MoultingStage(strings.ToUpper(strings.TrimSpace(req.Stage))),
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toEvaluationResponse(eval))
	}
}

func getEvaluationHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "evaluationID"), 10, 64)
		if err != nil {
			http.Error(w, "invalid evaluation id", http.StatusBadRequest)
			return
		}

		eval, err := svc.GetByID(r.Context(), id)
		if err != nil {
			http.Error(w, "avaliação não encontrada", http.StatusNotFound)
			return
		}

		writeJSON(w, http.StatusOK, toEvaluationResponse(eval))
	}
}

func updateEvaluationHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := requireUser(w, r)
		if !ok {
			return
		}

		id, err := strconv.ParseInt(chi.URLParam(r, "evaluationID"), 10, 64)
		if err != nil {
			http.Error(w, "invalid evaluation id", http.StatusBadRequest)
			return
		}

		var req updateEvaluationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		eval, err := svc.Update(r.Context(), id, UpdateInput{
			Notes: req.Notes,
			Teeth: toToothInputs(req.Teeth),
		}, claims.UserID, claims.Role)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toEvaluationResponse(eval))
	}
}

func deleteEvaluationHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := requireUser(w, r); !ok {
			return
		}

		id, err := strconv.ParseInt(chi.URLParam(r, "evaluationID"), 10, 64)
		if err != nil {
			http.Error(w, "invalid evaluation id", http.StatusBadRequest)
			return
		}

		eval, err := svc.Delete(r.Context(), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toEvaluationResponse(eval))
	}
}

func historyHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		rows, total, err := svc.History(r.Context(), HistoryFilter{
			Page:      queryInt(q.Get("page"), 1),
			Limit:     queryInt(q.Get("limit"), 10),
			Search:    q.Get("search"),
			Farm:      normalizeFilter(q.Get("filterFarm")),
			Client:    normalizeFilter(q.Get("filterClient")),
			Pathology: q.Get("filterPathology"),
		})
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]historyRowResponse, 0, len(rows))
		for _, row := range rows {
			out = append(out, historyRowResponse{
				ID:                 strconv.FormatInt(row.Evaluation.ID, 10),
				AnimalID:           strconv.FormatInt(row.Evaluation.AnimalID, 10),
				Code:               row.AnimalTag,
				Breed:              row.AnimalBreed,
				Farm:               row.AnimalFarm,
				Client:             row.AnimalClient,
				Chip:               row.AnimalChip,
				Age:                row.AnimalAge,
				LastEvaluationDate: row.Evaluation.EvaluationDate,
				Media:              row.MediaPaths,
				WorstFracture:      WorstFracture(row.Evaluation.Teeth),
				Status:             string(ClassifyTeeth(row.Evaluation.Teeth)),
				EvaluatorName:      row.EvaluatorName,
				EvaluatorID:        row.Evaluation.EvaluatorUserID,
			})
		}

		page := queryInt(q.Get("page"), 1)
		limit := queryInt(q.Get("limit"), 10)
		writeJSON(w, http.StatusOK, pagedResponse{
			Data: out,
			Meta: pagedMeta{Total: total, Page: page, Limit: limit},
		})
	}
}

func pendingHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		page := queryInt(q.Get("page"), 1)
		limit := queryInt(q.Get("limit"), 20)

		items, total, err := svc.Pending(r.Context(), PendingFilter{
			Page:   page,
			Limit:  limit,
			Search: q.Get("search"),
			Farm:   normalizeFilter(q.Get("filterFarm")),
			Client: normalizeFilter(q.Get("filterClient")),
		})
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		type pendingResponse struct {
			ID            string   `json:"id"`
			Code          string   `json:"code"`
			Breed         string   `json:"breed"`
			Farm          string   `json:"farm"`
			Client        string   `json:"client"`
			Chip          string   `json:"chip"`
			Sisbov        string   `json:"sisbov"`
			Lot           string   `json:"lot"`
			Age           *int     `json:"age"`
			CurrentWeight float64  `json:"currentWeight"`
			Media         []string `json:"media"`
		}

		out := make([]pendingResponse, 0, len(items))
		for _, p := range items {
			out = append(out, pendingResponse{
				ID:            strconv.FormatInt(p.AnimalID, 10),
				Code:          p.Tag,
				Breed:         p.Breed,
				Farm:          p.Farm,
				Client:        p.Client,
				Chip:          p.Chip,
				Sisbov:        p.Sisbov,
				Lot:           p.Lot,
				Age:           p.Age,
				CurrentWeight: p.CurrentWeight,
				Media:         p.MediaPaths,
			})
		}

		lastPage := 0
		if limit > 0 {
			lastPage = (total + limit - 1) / limit
		}
		writeJSON(w, http.StatusOK, pagedResponse{
			Data: out,
			Meta: pagedMeta{Total: total, Page: page, Limit: limit, LastPage: lastPage},
		})
	}
}

func dashboardHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := svc.Dashboard(r.Context())
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, stats)
	}
}

func historyByAnimalHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		evals, err := svc.HistoryByAnimal(r.Context(), chi.URLParam(r, "ref"))
		if err != nil {
			if errors.Is(err, ErrInvalidInput) {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			http.Error(w, "animal não encontrado", http.StatusNotFound)
			return
		}

		out := make([]evaluationResponse, 0, len(evals))
		for _, e := range evals {
			out = append(out, toEvaluationResponse(e))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func toToothInputs(reqs []toothRequest) []ToothInput {
	out := make([]ToothInput, 0, len(reqs))
	for _, t := range reqs {
		in := ToothInput{
			ToothCode:              ToothCode(strings.TrimSpace(t.ToothCode)),
			IsPresent:              t.IsPresent,
			CrownReductionLevel:    t.CrownReductionLevel,
			LingualWear:            t.LingualWear,
			GingivalRecessionLevel: t.GingivalRecessionLevel,
			PeriodontalLesions:     t.PeriodontalLesions,
			FractureLevel:          t.FractureLevel,
			Pulpitis:               t.Pulpitis,
			VitrifiedBorder:        t.VitrifiedBorder,
			PulpChamberExposure:    t.PulpChamberExposure,
			GingivitisEdema:        t.GingivitisEdema,
			GingivitisColor:        t.GingivitisColor,
			DentalCalculus:         t.DentalCalculus,
			AbnormalColor:          t.AbnormalColor,
			Caries:                 t.Caries,
		}
		if t.ToothType != nil {
			tt := ToothType(strings.ToUpper(strings.TrimSpace(*t.ToothType)))
			in.ToothType = &tt
		}
		out = append(out, in)
	}
	return out
}

func toEvaluationResponse(e DentalEvaluation) evaluationResponse {
	teeth := make([]toothResponse, 0, len(e.Teeth))
	for _, t := range e.Teeth {
		teeth = append(teeth, toothResponse{
			ID:                     t.ID,
			ToothCode:              string(t.ToothCode),
			ToothType:              string(t.ToothType),
			IsPresent:              t.IsPresent,
			CrownReductionLevel:    t.CrownReductionLevel,
			LingualWear:            t.LingualWear,
			GingivalRecessionLevel: t.GingivalRecessionLevel,
			PeriodontalLesions:     t.PeriodontalLesions,
			FractureLevel:          t.FractureLevel,
			Pulpitis:               t.Pulpitis,
			VitrifiedBorder:        t.VitrifiedBorder,
			PulpChamberExposure:    t.PulpChamberExposure,
			GingivitisEdema:        t.GingivitisEdema,
			GingivitisColor:        t.GingivitisColor,
			DentalCalculus:         t.DentalCalculus,
			AbnormalColor:          t.AbnormalColor,
			Caries:                 t.Caries,
		})
	}

	return evaluationResponse{
		ID:                  strconv.FormatInt(e.ID, 10),
		AnimalID:            strconv.FormatInt(e.AnimalID, 10),
		EvaluatorUserID:     e.EvaluatorUserID,
		EvaluationDate:      e.EvaluationDate,
		GeneralObservations: e.GeneralObservations,
		Status:              string(ClassifyTeeth(e.Teeth)),
		Teeth:               teeth,
	}
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrForbidden):
		http.Error(w, "você não tem permissão para editar esta avaliação", http.StatusForbidden)
	case errors.Is(err, ErrNotFound):
		http.Error(w, "não encontrado", http.StatusNotFound)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
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

func queryInt(s string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return def
	}
	return n
}

// "all" desde la UI equivale a sin filtro.
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
