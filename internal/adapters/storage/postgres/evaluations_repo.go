package postgres

import (
	"context"
	"database/sql"

	"cattle-dental-health/internal/domain/evaluations"

	sq "github.com/Masterminds/squirrel"
)

const toothColumns = `
	id, evaluation_id, tooth_code, tooth_type, is_present,
	crown_reduction_level, lingual_wear, gingival_recession_level,
	periodontal_lesions, fracture_level, pulpitis, vitrified_border,
	pulp_chamber_exposure, gingivitis_edema, dental_calculus, caries,
	gingivitis_color, abnormal_color`

// psql arma queries dinámicas con placeholders $n.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// latestPerAnimal selecciona la evaluación más reciente de cada animal.
const latestPerAnimal = `
	SELECT DISTINCT ON (animal_id) id
	FROM dental_evaluation
	ORDER BY animal_id, evaluation_date DESC`

type EvaluationsRepo struct {
	db *sql.DB
}

func NewEvaluationsRepo(db *sql.DB) *EvaluationsRepo {
	return &EvaluationsRepo{db: db}
}

func (r *EvaluationsRepo) Save(ctx context.Context, e *evaluations.DentalEvaluation) error {
	if e.ID == 0 {
		return r.db.QueryRowContext(ctx, `
			INSERT INTO dental_evaluation (
				animal_id, evaluator_user_id, evaluation_date,
				general_observations, general_gingivitis_score
			) VALUES ($1,$2,$3,$4,$5)
			RETURNING id`,
			e.AnimalID, e.EvaluatorUserID, e.EvaluationDate,
			e.GeneralObservations, e.GeneralGingivitisScore,
		).Scan(&e.ID)
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE dental_evaluation SET
			evaluation_date = $2,
			general_observations = $3,
			general_gingivitis_score = $4
		WHERE id = $1`,
		e.ID, e.EvaluationDate, e.GeneralObservations, e.GeneralGingivitisScore,
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return evaluations.ErrNotFound
	}
	return nil
}

func (r *EvaluationsRepo) GetByID(ctx context.Context, id int64) (evaluations.DentalEvaluation, error) {
	e, err := r.scanEvaluation(r.db.QueryRowContext(ctx, `
		SELECT id, animal_id, evaluator_user_id, evaluation_date,
		       general_observations, general_gingivitis_score
		FROM dental_evaluation
		WHERE id = $1`, id))
	if err != nil {
		return evaluations.DentalEvaluation{}, err
	}
	e.Teeth, err = r.teethOf(ctx, e.ID)
	return e, err
}

func (r *EvaluationsRepo) LatestByAnimal(ctx context.Context, animalID int64) (evaluations.DentalEvaluation, error) {
	e, err := r.scanEvaluation(r.db.QueryRowContext(ctx, `
		SELECT id, animal_id, evaluator_user_id, evaluation_date,
		       general_observations, general_gingivitis_score
		FROM dental_evaluation
		WHERE animal_id = $1
		ORDER BY evaluation_date DESC
		LIMIT 1`, animalID))
	if err != nil {
		return evaluations.DentalEvaluation{}, err
	}
	e.Teeth, err = r.teethOf(ctx, e.ID)
	return e, err
}

func (r *EvaluationsRepo) Delete(ctx context.Context, id int64) error {
	// tooth_evaluation cae por FK ON DELETE CASCADE
	res, err := r.db.ExecContext(ctx, `DELETE FROM dental_evaluation WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return evaluations.ErrNotFound
	}
	return nil
}

func (r *EvaluationsRepo) GetTooth(ctx context.Context, evaluationID int64, code evaluations.ToothCode) (evaluations.ToothEvaluation, error) {
	return scanTooth(r.db.QueryRowContext(ctx,
		`SELECT `+toothColumns+` FROM tooth_evaluation WHERE evaluation_id = $1 AND tooth_code = $2`,
		evaluationID, string(code)))
}

func (r *EvaluationsRepo) SaveTooth(ctx context.Context, t *evaluations.ToothEvaluation) error {
	// upsert por identidad (evaluación, posición)
	return r.db.QueryRowContext(ctx, `
		INSERT INTO tooth_evaluation (
			evaluation_id, tooth_code, tooth_type, is_present,
			crown_reduction_level, lingual_wear, gingival_recession_level,
			periodontal_lesions, fracture_level, pulpitis, vitrified_border,
			pulp_chamber_exposure, gingivitis_edema, dental_calculus, caries,
			gingivitis_color, abnormal_color
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
		ON CONFLICT (evaluation_id, tooth_code) DO UPDATE SET
			tooth_type = EXCLUDED.tooth_type,
			is_present = EXCLUDED.is_present,
			crown_reduction_level = EXCLUDED.crown_reduction_level,
			lingual_wear = EXCLUDED.lingual_wear,
			gingival_recession_level = EXCLUDED.gingival_recession_level,
			periodontal_lesions = EXCLUDED.periodontal_lesions,
			fracture_level = EXCLUDED.fracture_level,
			pulpitis = EXCLUDED.pulpitis,
			vitrified_border = EXCLUDED.vitrified_border,
			pulp_chamber_exposure = EXCLUDED.pulp_chamber_exposure,
			gingivitis_edema = EXCLUDED.gingivitis_edema,
			dental_calculus = EXCLUDED.dental_calculus,
			caries = EXCLUDED.caries,
			gingivitis_color = EXCLUDED.gingivitis_color,
			abnormal_color = EXCLUDED.abnormal_color
		RETURNING id`,
		t.EvaluationID, string(t.ToothCode), string(t.ToothType), t.IsPresent,
		t.CrownReductionLevel, t.LingualWear, t.GingivalRecessionLevel,
		t.PeriodontalLesions, t.FractureLevel, t.Pulpitis, t.VitrifiedBorder,
		t.PulpChamberExposure, t.GingivitisEdema, t.DentalCalculus, t.Caries,
		t.GingivitisColor, t.AbnormalColor,
	).Scan(&t.ID)
}

func (r *EvaluationsRepo) ListByAnimal(ctx context.Context, animalID int64) ([]evaluations.DentalEvaluation, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, animal_id, evaluator_user_id, evaluation_date,
		       general_observations, general_gingivitis_score
		FROM dental_evaluation
		WHERE animal_id = $1
		ORDER BY evaluation_date DESC`, animalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]evaluations.DentalEvaluation, 0)
	for rows.Next() {
		e, err := r.scanEvaluation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		if out[i].Teeth, err = r.teethOf(ctx, out[i].ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *EvaluationsRepo) ListHistory(ctx context.Context, f evaluations.HistoryFilter) ([]evaluations.HistoryRow, int, error) {
	base := psql.Select(
		"e.id", "e.animal_id", "e.evaluator_user_id", "e.evaluation_date",
		"e.general_observations", "e.general_gingivitis_score",
		"a.tag_code", "a.breed", "a.farm", "a.client", "a.chip", "a.age",
	).
		From("dental_evaluation e").
		Join("animal a ON a.id = e.animal_id").
		Where("e.id IN (" + latestPerAnimal + ")")

	base = applyHistoryFilters(base, f)

	countSQL, countArgs, err := psql.Select("COUNT(*)").
		FromSelect(base, "h").
		ToSql()
	if err != nil {
		return nil, 0, err
	}
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query, args, err := base.
		OrderBy("e.evaluation_date DESC").
		Limit(uint64(f.Limit)).
		Offset(uint64((f.Page - 1) * f.Limit)).
		ToSql()
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]evaluations.HistoryRow, 0)
	for rows.Next() {
		var row evaluations.HistoryRow
		var age sql.NullInt64
		if err := rows.Scan(
			&row.Evaluation.ID, &row.Evaluation.AnimalID, &row.Evaluation.EvaluatorUserID,
			&row.Evaluation.EvaluationDate, &row.Evaluation.GeneralObservations,
			&row.Evaluation.GeneralGingivitisScore,
			&row.AnimalTag, &row.AnimalBreed, &row.AnimalFarm, &row.AnimalClient,
			&row.AnimalChip, &age,
		); err != nil {
			return nil, 0, err
		}
		if age.Valid {
			v := int(age.Int64)
			row.AnimalAge = &v
		}
		// sin directorio de usuarios local; el front muestra este fallback
		row.EvaluatorName = "Sistema"
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	for i := range out {
		if out[i].Evaluation.Teeth, err = r.teethOf(ctx, out[i].Evaluation.ID); err != nil {
			return nil, 0, err
		}
		if out[i].MediaPaths, err = r.mediaPathsOf(ctx, out[i].Evaluation.AnimalID); err != nil {
			return nil, 0, err
		}
	}
	return out, total, nil
}

func applyHistoryFilters(b sq.SelectBuilder, f evaluations.HistoryFilter) sq.SelectBuilder {
	if f.Farm != "" {
		b = b.Where(sq.Eq{"a.farm": f.Farm})
	}
	if f.Client != "" {
		b = b.Where(sq.Eq{"a.client": f.Client})
	}
	if f.Search != "" {
		b = b.Where(sq.Or{
			sq.ILike{"a.tag_code": "%" + f.Search + "%"},
			sq.Expr("CAST(a.id AS TEXT) = ?", f.Search),
		})
	}
	if col, ok := evaluations.PathologyColumns[f.Pathology]; ok {
		b = b.Where(sq.Expr(
			"EXISTS (SELECT 1 FROM tooth_evaluation t WHERE t.evaluation_id = e.id AND t."+col+" > 0)"))
	}
	return b
}

func (r *EvaluationsRepo) ListPending(ctx context.Context, f evaluations.PendingFilter) ([]evaluations.PendingAnimal, int, error) {
	base := psql.Select(
		"a.id", "a.tag_code", "a.breed", "a.farm", "a.client",
		"a.chip", "a.sisbov_number", "a.lot", "a.age", "a.current_weight",
	).
		From("animal a").
		Where("NOT EXISTS (SELECT 1 FROM dental_evaluation e WHERE e.animal_id = a.id)")

	if f.Farm != "" {
		base = base.Where(sq.Eq{"a.farm": f.Farm})
	}
	if f.Client != "" {
		base = base.Where(sq.Eq{"a.client": f.Client})
	}
	if f.Search != "" {
		base = base.Where(sq.Or{
			sq.ILike{"a.tag_code": "%" + f.Search + "%"},
			sq.Expr("CAST(a.id AS TEXT) = ?", f.Search),
		})
	}

	countSQL, countArgs, err := psql.Select("COUNT(*)").FromSelect(base, "p").ToSql()
	if err != nil {
		return nil, 0, err
	}
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query, args, err := base.
		OrderBy("a.id ASC").
		Limit(uint64(f.Limit)).
		Offset(uint64((f.Page - 1) * f.Limit)).
		ToSql()
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]evaluations.PendingAnimal, 0)
	for rows.Next() {
		var p evaluations.PendingAnimal
		var age sql.NullInt64
		if err := rows.Scan(
			&p.AnimalID, &p.Tag, &p.Breed, &p.Farm, &p.Client,
			&p.Chip, &p.Sisbov, &p.Lot, &age, &p.CurrentWeight,
		); err != nil {
			return nil, 0, err
		}
		if age.Valid {
			v := int(age.Int64)
			p.Age = &v
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	for i := range out {
		if out[i].MediaPaths, err = r.mediaPathsOf(ctx, out[i].AnimalID); err != nil {
			return nil, 0, err
		}
	}
	return out, total, nil
}

func (r *EvaluationsRepo) Dashboard(ctx context.Context) (evaluations.DashboardStats, error) {
	var stats evaluations.DashboardStats

	err := r.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM animal),
			(SELECT COUNT(*) FROM dental_evaluation),
			(SELECT COUNT(*) FROM animal a
				WHERE NOT EXISTS (SELECT 1 FROM dental_evaluation e WHERE e.animal_id = a.id))
	`).Scan(&stats.TotalAnimals, &stats.TotalEvaluations, &stats.PendingEvaluations)
	if err != nil {
		return evaluations.DashboardStats{}, err
	}

	// espeja el umbral crítico de ClassifyTeeth sobre la última evaluación
	err = r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM (`+latestPerAnimal+`) latest
		WHERE EXISTS (
			SELECT 1 FROM tooth_evaluation t
			WHERE t.evaluation_id = latest.id
			  AND (t.fracture_level >= 2 OR t.pulpitis >= 2 OR t.gingival_recession_level >= 2)
		)`).Scan(&stats.CriticalCases)
	if err != nil {
		return evaluations.DashboardStats{}, err
	}

	return stats, nil
}

func (r *EvaluationsRepo) scanEvaluation(row rowScanner) (evaluations.DentalEvaluation, error) {
	var e evaluations.DentalEvaluation
	err := row.Scan(
		&e.ID, &e.AnimalID, &e.EvaluatorUserID, &e.EvaluationDate,
		&e.GeneralObservations, &e.GeneralGingivitisScore,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return evaluations.DentalEvaluation{}, evaluations.ErrNotFound
		}
		return evaluations.DentalEvaluation{}, err
	}
	return e, nil
}

func (r *EvaluationsRepo) teethOf(ctx context.Context, evaluationID int64) ([]evaluations.ToothEvaluation, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+toothColumns+` FROM tooth_evaluation WHERE evaluation_id = $1 ORDER BY tooth_code ASC`,
		evaluationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]evaluations.ToothEvaluation, 0, 8)
	for rows.Next() {
		t, err := scanTooth(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *EvaluationsRepo) mediaPathsOf(ctx context.Context, animalID int64) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT storage_path FROM media WHERE animal_id = $1 ORDER BY id ASC`, animalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]string, 0)
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanTooth(row rowScanner) (evaluations.ToothEvaluation, error) {
	var t evaluations.ToothEvaluation
	var code, toothType string
	err := row.Scan(
		&t.ID, &t.EvaluationID, &code, &toothType, &t.IsPresent,
		&t.CrownReductionLevel, &t.LingualWear, &t.GingivalRecessionLevel,
		&t.PeriodontalLesions, &t.FractureLevel, &t.Pulpitis, &t.VitrifiedBorder,
		&t.PulpChamberExposure, &t.GingivitisEdema, &t.DentalCalculus, &t.Caries,
		&t.GingivitisColor, &t.AbnormalColor,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return evaluations.ToothEvaluation{}, evaluations.ErrNotFound
		}
		return evaluations.ToothEvaluation{}, err
	}
	t.ToothCode = evaluations.ToothCode(code)
	t.ToothType = evaluations.ToothType(toothType)
	return t, nil
}
