package postgres

import (
	"context"
	"database/sql"

	"cattle-dental-health/internal/domain/reports"

	sq "github.com/Masterminds/squirrel"
)

type ReportsRepo struct {
	db *sql.DB
}

func NewReportsRepo(db *sql.DB) *ReportsRepo {
	return &ReportsRepo{db: db}
}

// Rows trae las evaluaciones del filtro con animal resuelto; los dientes
// se cargan aparte y la agregación queda en el servicio de reportes.
func (r *ReportsRepo) Rows(ctx context.Context, f reports.Filter) ([]reports.Row, error) {
	base := psql.Select(
		"e.id", "e.animal_id", "a.tag_code", "a.farm", "a.location", "e.evaluation_date",
	).
		From("dental_evaluation e").
		Join("animal a ON a.id = e.animal_id")

	// match parcial e insensible a mayúsculas, igual que los buscadores
	// del panel
	if f.Farm != "" {
		base = base.Where(sq.ILike{"a.farm": "%" + f.Farm + "%"})
	}
	if f.Client != "" {
		base = base.Where(sq.ILike{"a.client": "%" + f.Client + "%"})
	}
	if f.Start != nil {
		base = base.Where(sq.GtOrEq{"e.evaluation_date": *f.Start})
	}
	if f.End != nil {
		base = base.Where(sq.LtOrEq{"e.evaluation_date": *f.End})
	}

	query, args, err := base.OrderBy("e.id ASC").ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]reports.Row, 0)
	for rows.Next() {
		var row reports.Row
		if err := rows.Scan(
			&row.EvaluationID, &row.AnimalID, &row.Tag, &row.Farm, &row.Location, &row.Date,
		); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	evalRepo := EvaluationsRepo{db: r.db}
	for i := range out {
		if out[i].Teeth, err = evalRepo.teethOf(ctx, out[i].EvaluationID); err != nil {
			return nil, err
		}
	}
	return out, nil
}
