package memory

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"cattle-dental-health/internal/domain/animals"
	"cattle-dental-health/internal/domain/evaluations"
)

type EvaluationsRepo struct {
	s *Store
}

func NewEvaluationsRepo(s *Store) *EvaluationsRepo {
	return &EvaluationsRepo{s: s}
}

func (r *EvaluationsRepo) Save(ctx context.Context, e *evaluations.DentalEvaluation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if e.ID == 0 {
		r.s.nextEvalID++
		e.ID = r.s.nextEvalID
	} else if _, ok := r.s.evals[e.ID]; !ok {
		return evaluations.ErrNotFound
	}

	// Los dientes viven en su propio map; acá solo la cabecera.
	stored := *e
	stored.Teeth = nil
	r.s.evals[e.ID] = stored
	return nil
}

func (r *EvaluationsRepo) GetByID(ctx context.Context, id int64) (evaluations.DentalEvaluation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	e, ok := r.s.evals[id]
	if !ok {
		return evaluations.DentalEvaluation{}, evaluations.ErrNotFound
	}
	e.Teeth = r.s.teethOf(id)
	return e, nil
}

func (r *EvaluationsRepo) LatestByAnimal(ctx context.Context, animalID int64) (evaluations.DentalEvaluation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	latest, ok := r.s.latestEval(animalID)
	if !ok {
		return evaluations.DentalEvaluation{}, evaluations.ErrNotFound
	}
	latest.Teeth = r.s.teethOf(latest.ID)
	return latest, nil
}

func (r *EvaluationsRepo) Delete(ctx context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.evals[id]; !ok {
		return evaluations.ErrNotFound
	}
	delete(r.s.evals, id)
	for tid, t := range r.s.teeth {
		if t.EvaluationID == id {
			delete(r.s.teeth, tid)
		}
	}
	return nil
}

func (r *EvaluationsRepo) GetTooth(ctx context.Context, evaluationID int64, code evaluations.ToothCode) (evaluations.ToothEvaluation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, t := range r.s.teeth {
		if t.EvaluationID == evaluationID && t.ToothCode == code {
			return t, nil
		}
	}
	return evaluations.ToothEvaluation{}, evaluations.ErrNotFound
}

func (r *EvaluationsRepo) SaveTooth(ctx context.Context, t *evaluations.ToothEvaluation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if t.ID == 0 {
		// respeta la identidad (evaluación, posición) aunque el caller
		// no haya hecho GetTooth antes
		for _, existing := range r.s.teeth {
			if existing.EvaluationID == t.EvaluationID && existing.ToothCode == t.ToothCode {
				t.ID = existing.ID
				break
			}
		}
	}
	if t.ID == 0 {
		r.s.nextToothID++
		t.ID = r.s.nextToothID
	}
	r.s.teeth[t.ID] = *t
	return nil
}

func (r *EvaluationsRepo) ListByAnimal(ctx context.Context, animalID int64) ([]evaluations.DentalEvaluation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]evaluations.DentalEvaluation, 0)
	for _, e := range r.s.evals {
		if e.AnimalID != animalID {
			continue
		}
		e.Teeth = r.s.teethOf(e.ID)
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].EvaluationDate.After(out[j].EvaluationDate)
	})
	return out, nil
}

func (r *EvaluationsRepo) ListHistory(ctx context.Context, f evaluations.HistoryFilter) ([]evaluations.HistoryRow, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	rows := make([]evaluations.HistoryRow, 0)
	for _, a := range r.s.animals {
		latest, ok := r.s.latestEval(a.ID)
		if !ok {
			continue
		}
		latest.Teeth = r.s.teethOf(latest.ID)

		if !matchAnimal(a, f.Search, f.Farm, f.Client) {
			continue
		}
		if f.Pathology != "" && !hasPathology(latest.Teeth, f.Pathology) {
			continue
		}

		rows = append(rows, evaluations.HistoryRow{
			Evaluation:    latest,
			AnimalTag:     a.TagCode,
			AnimalBreed:   a.Breed,
			AnimalFarm:    a.Farm,
			AnimalClient:  a.Client,
			AnimalChip:    a.Chip,
			AnimalAge:     a.Age,
			EvaluatorName: "Sistema",
			MediaPaths:    mediaPaths(r.s.mediaOf(a.ID)),
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		return rows[i].Evaluation.EvaluationDate.After(rows[j].Evaluation.EvaluationDate)
	})

	total := len(rows)
	rows = paginate(rows, f.Page, f.Limit)
	return rows, total, nil
}

func (r *EvaluationsRepo) ListPending(ctx context.Context, f evaluations.PendingFilter) ([]evaluations.PendingAnimal, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]evaluations.PendingAnimal, 0)
	for _, a := range r.s.animals {
		if _, evaluated := r.s.latestEval(a.ID); evaluated {
			continue
		}
		if !matchAnimal(a, f.Search, f.Farm, f.Client) {
			continue
		}
		out = append(out, evaluations.PendingAnimal{
			AnimalID:      a.ID,
			Tag:           a.TagCode,
			Breed:         a.Breed,
			Farm:          a.Farm,
			Client:        a.Client,
			Chip:          a.Chip,
			Sisbov:        a.SisbovNumber,
			Lot:           a.Lot,
			Age:           a.Age,
			CurrentWeight: a.CurrentWeight,
			MediaPaths:    mediaPaths(r.s.mediaOf(a.ID)),
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].AnimalID < out[j].AnimalID })

	total := len(out)
	out = paginate(out, f.Page, f.Limit)
	return out, total, nil
}

func (r *EvaluationsRepo) Dashboard(ctx context.Context) (evaluations.DashboardStats, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	stats := evaluations.DashboardStats{
		TotalAnimals:     len(r.s.animals),
		TotalEvaluations: len(r.s.evals),
	}

	for _, a := range r.s.animals {
		latest, ok := r.s.latestEval(a.ID)
		if !ok {
			stats.PendingEvaluations++
			continue
		}
		if evaluations.ClassifyTeeth(r.s.teethOf(latest.ID)) == evaluations.StatusCritical {
			stats.CriticalCases++
		}
	}
	return stats, nil
}

// teethOf asume lock tomado. Devuelve en orden anatómico.
func (s *Store) teethOf(evaluationID int64) []evaluations.ToothEvaluation {
	out := make([]evaluations.ToothEvaluation, 0, len(evaluations.AllToothCodes))
	for _, t := range s.teeth {
		if t.EvaluationID == evaluationID {
			out = append(out, t)
		}
	}
	order := make(map[evaluations.ToothCode]int, len(evaluations.AllToothCodes))
	for i, c := range evaluations.AllToothCodes {
		order[c] = i
	}
	sort.Slice(out, func(i, j int) bool {
		return order[out[i].ToothCode] < order[out[j].ToothCode]
	})
	return out
}

func (s *Store) latestEval(animalID int64) (evaluations.DentalEvaluation, bool) {
	var latest evaluations.DentalEvaluation
	found := false
	for _, e := range s.evals {
		if e.AnimalID != animalID {
			continue
		}
		if !found || e.EvaluationDate.After(latest.EvaluationDate) {
			latest = e
			found = true
		}
	}
	return latest, found
}

func matchAnimal(a animals.Animal, search, farm, client string) bool {
	if farm != "" && a.Farm != farm {
		return false
	}
	if client != "" && a.Client != client {
		return false
	}
	if search != "" {
		s := strings.ToLower(strings.TrimSpace(search))
		if !strings.Contains(strings.ToLower(a.TagCode), s) &&
			strconv.FormatInt(a.ID, 10) != s {
			return false
		}
	}
	return true
}

func hasPathology(teeth []evaluations.ToothEvaluation, key string) bool {
	if _, known := evaluations.PathologyColumns[key]; !known {
		return false
	}
	for _, t := range teeth {
		if toothLevel(t, key) > 0 {
			return true
		}
	}
	return false
}

func toothLevel(t evaluations.ToothEvaluation, key string) int {
	switch key {
	case "fracture":
		return t.FractureLevel
	case "pulpitis":
		return t.Pulpitis
	case "recession":
		return t.GingivalRecessionLevel
	case "crown":
		return t.CrownReductionLevel
	case "calculus":
		return t.DentalCalculus
	case "periodontal":
		return t.PeriodontalLesions
	case "lingual":
		return t.LingualWear
	case "caries":
		return t.Caries
	case "vitrified":
		return t.VitrifiedBorder
	case "exposure":
		return t.PulpChamberExposure
	case "edema":
		return t.GingivitisEdema
	default:
		return 0
	}
}

func mediaPaths(media []animals.Media) []string {
	out := make([]string, 0, len(media))
	for _, m := range media {
		out = append(out, m.StoragePath)
	}
	return out
}

func paginate[T any](items []T, page, limit int) []T {
	if limit <= 0 {
		return items
	}
	if page <= 0 {
		page = 1
	}
	start := (page - 1) * limit
	if start >= len(items) {
		return []T{}
	}
	end := start + limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
