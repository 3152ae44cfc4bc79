package memory

import (
	"context"
	"sort"
	"strings"

	"cattle-dental-health/internal/domain/reports"
)

type ReportsRepo struct {
	s *Store
}

func NewReportsRepo(s *Store) *ReportsRepo {
	return &ReportsRepo{s: s}
}

func (r *ReportsRepo) Rows(ctx context.Context, f reports.Filter) ([]reports.Row, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]reports.Row, 0)
	for _, e := range r.s.evals {
		a, ok := r.s.animals[e.AnimalID]
		if !ok {
			continue
		}
		if !matchesILike(a.Farm, f.Farm) {
			continue
		}
		if !matchesILike(a.Client, f.Client) {
			continue
		}
		if f.Start != nil && e.EvaluationDate.Before(*f.Start) {
			continue
		}
		if f.End != nil && e.EvaluationDate.After(*f.End) {
			continue
		}

		out = append(out, reports.Row{
			EvaluationID: e.ID,
			AnimalID:     a.ID,
			Tag:          a.TagCode,
			Farm:         a.Farm,
			Location:     a.Location,
			Date:         e.EvaluationDate,
			Teeth:        r.s.teethOf(e.ID),
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].EvaluationID < out[j].EvaluationID })
	return out, nil
}

// matchesILike replica el ILIKE '%filter%' del adapter postgres. Filtro
// vacío no filtra.
func matchesILike(value, filter string) bool {
	if filter == "" {
		return true
	}
	return strings.Contains(strings.ToLower(value), strings.ToLower(filter))
}
