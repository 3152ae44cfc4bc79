package postgres

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"cattle-dental-health/internal/domain/animals"
)

const animalColumns = `
	id, tag_code, chip, sisbov_number,
	breed, farm, lot, client, location, category, coat_color, status,
	age, current_weight, body_score,
	birth_date, collection_date, entry_date,
	external_category_id, external_breed_id, external_coat_id,
	external_cost_center_id, external_stock_location_id, external_lot_id,
	external_modification_date, created_at`

type AnimalsRepo struct {
	db *sql.DB
}

func NewAnimalsRepo(db *sql.DB) *AnimalsRepo {
	return &AnimalsRepo{db: db}
}

// querier lo satisfacen *sql.DB y *sql.Tx: los helpers de scan sirven
// adentro y afuera de la transacción.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (r *AnimalsRepo) InTx(ctx context.Context, fn func(tx animals.Tx) error) error {
	sqlTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	// rollback es no-op después de un commit exitoso
	defer sqlTx.Rollback()

	if err := fn(&animalsTx{q: sqlTx}); err != nil {
		return err
	}
	return sqlTx.Commit()
}

type animalsTx struct {
	q querier
}

func (tx *animalsTx) FindBySisbov(ctx context.Context, sisbov string) (animals.Animal, error) {
	if strings.TrimSpace(sisbov) == "" {
		return animals.Animal{}, animals.ErrNotFound
	}
	row := tx.q.QueryRowContext(ctx,
		`SELECT `+animalColumns+` FROM animal WHERE sisbov_number = $1`, sisbov)
	return scanAnimal(row)
}

func (tx *animalsTx) FindByChip(ctx context.Context, chip string) (animals.Animal, error) {
	if strings.TrimSpace(chip) == "" {
		return animals.Animal{}, animals.ErrNotFound
	}
	row := tx.q.QueryRowContext(ctx,
		`SELECT `+animalColumns+` FROM animal WHERE chip = $1`, chip)
	return scanAnimal(row)
}

func (tx *animalsTx) SaveAnimal(ctx context.Context, a *animals.Animal) error {
	return saveAnimal(ctx, tx.q, a)
}

func (tx *animalsTx) HasMedia(ctx context.Context, animalID int64, originalLink string) (bool, error) {
	var exists bool
	err := tx.q.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM media WHERE animal_id = $1 AND original_link = $2
		)`, animalID, originalLink).Scan(&exists)
	return exists, err
}

func (tx *animalsTx) AddMedia(ctx context.Context, m *animals.Media) error {
	return tx.q.QueryRowContext(ctx, `
		INSERT INTO media (animal_id, storage_path, original_link, photo_type, latitude, longitude)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING id`,
		m.AnimalID,
		m.StoragePath,
		m.OriginalLink,
		string(m.PhotoType),
		toNullFloat(m.Latitude),
		toNullFloat(m.Longitude),
	).Scan(&m.ID)
}

func (r *AnimalsRepo) Create(ctx context.Context, a *animals.Animal) error {
	return saveAnimal(ctx, r.db, a)
}

func (r *AnimalsRepo) Update(ctx context.Context, a *animals.Animal) error {
	if a.ID == 0 {
		return animals.ErrNotFound
	}
	return saveAnimal(ctx, r.db, a)
}

func (r *AnimalsRepo) GetByID(ctx context.Context, id int64) (animals.Animal, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+animalColumns+` FROM animal WHERE id = $1`, id)
	return scanAnimal(row)
}

func (r *AnimalsRepo) GetByTag(ctx context.Context, tagCode string) (animals.Animal, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+animalColumns+` FROM animal WHERE tag_code = $1`, tagCode)
	return scanAnimal(row)
}

func (r *AnimalsRepo) List(ctx context.Context) ([]animals.Animal, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+animalColumns+` FROM animal ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]animals.Animal, 0)
	for rows.Next() {
		a, err := scanAnimal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *AnimalsRepo) Delete(ctx context.Context, id int64) error {
	// media cae por FK ON DELETE CASCADE
	res, err := r.db.ExecContext(ctx, `DELETE FROM animal WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return animals.ErrNotFound
	}
	return nil
}

func (r *AnimalsRepo) ListMedia(ctx context.Context, animalID int64) ([]animals.Media, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, animal_id, storage_path, original_link, photo_type, latitude, longitude
		FROM media
		WHERE animal_id = $1
		ORDER BY id ASC`, animalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]animals.Media, 0)
	for rows.Next() {
		var m animals.Media
		var photoType string
		var lat, lng sql.NullFloat64
		if err := rows.Scan(&m.ID, &m.AnimalID, &m.StoragePath, &m.OriginalLink, &photoType, &lat, &lng); err != nil {
			return nil, err
		}
		m.PhotoType = animals.PhotoType(photoType)
		if lat.Valid {
			v := lat.Float64
			m.Latitude = &v
		}
		if lng.Valid {
			v := lng.Float64
			m.Longitude = &v
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *AnimalsRepo) DistinctFarms(ctx context.Context) ([]string, error) {
	return r.distinct(ctx, "farm")
}

func (r *AnimalsRepo) DistinctClients(ctx context.Context) ([]string, error) {
	return r.distinct(ctx, "client")
}

func (r *AnimalsRepo) distinct(ctx context.Context, column string) ([]string, error) {
	// column viene de un set fijo interno, no de input de usuario
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT `+column+` FROM animal
		WHERE `+column+` <> ''
		ORDER BY `+column+` ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]string, 0)
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func saveAnimal(ctx context.Context, q querier, a *animals.Animal) error {
	if a.ID == 0 {
		a.CreatedAt = time.Now()
		return q.QueryRowContext(ctx, `
			INSERT INTO animal (
				tag_code, chip, sisbov_number,
				breed, farm, lot, client, location, category, coat_color, status,
				age, current_weight, body_score,
				birth_date, collection_date, entry_date,
				external_category_id, external_breed_id, external_coat_id,
				external_cost_center_id, external_stock_location_id, external_lot_id,
				external_modification_date, created_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25)
			RETURNING id`,
			a.TagCode, a.Chip, a.SisbovNumber,
			a.Breed, a.Farm, a.Lot, a.Client, a.Location, a.Category, a.CoatColor, a.Status,
			toNullInt(a.Age), a.CurrentWeight, a.BodyScore,
			toNullTime(a.BirthDate), toNullTime(a.CollectionDate), toNullTime(a.EntryDate),
			toNullInt64(a.ExternalCategoryID), toNullInt64(a.ExternalBreedID), toNullInt64(a.ExternalCoatID),
			toNullInt64(a.ExternalCostCenterID), toNullInt64(a.ExternalStockLocationID), toNullInt64(a.ExternalLotID),
			toNullTime(a.ExternalModificationDate), a.CreatedAt,
		).Scan(&a.ID)
	}

	res, err := q.ExecContext(ctx, `
		UPDATE animal SET
			tag_code = $2, chip = $3, sisbov_number = $4,
			breed = $5, farm = $6, lot = $7, client = $8, location = $9,
			category = $10, coat_color = $11, status = $12,
			age = $13, current_weight = $14, body_score = $15,
			birth_date = $16, collection_date = $17, entry_date = $18,
			external_category_id = $19, external_breed_id = $20, external_coat_id = $21,
			external_cost_center_id = $22, external_stock_location_id = $23, external_lot_id = $24,
			external_modification_date = $25
		WHERE id = $1`,
		a.ID,
		a.TagCode, a.Chip, a.SisbovNumber,
		a.Breed, a.Farm, a.Lot, a.Client, a.Location,
		a.Category, a.CoatColor, a.Status,
		toNullInt(a.Age), a.CurrentWeight, a.BodyScore,
		toNullTime(a.BirthDate), toNullTime(a.CollectionDate), toNullTime(a.EntryDate),
		toNullInt64(a.ExternalCategoryID), toNullInt64(a.ExternalBreedID), toNullInt64(a.ExternalCoatID),
		toNullInt64(a.ExternalCostCenterID), toNullInt64(a.ExternalStockLocationID), toNullInt64(a.ExternalLotID),
		toNullTime(a.ExternalModificationDate),
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return animals.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAnimal(row rowScanner) (animals.Animal, error) {
	var a animals.Animal
	var age sql.NullInt64
	var birth, collection, entry, extMod sql.NullTime
	var extCat, extBreed, extCoat, extCost, extStock, extLot sql.NullInt64

	err := row.Scan(
		&a.ID, &a.TagCode, &a.Chip, &a.SisbovNumber,
		&a.Breed, &a.Farm, &a.Lot, &a.Client, &a.Location, &a.Category, &a.CoatColor, &a.Status,
		&age, &a.CurrentWeight, &a.BodyScore,
		&birth, &collection, &entry,
		&extCat, &extBreed, &extCoat,
		&extCost, &extStock, &extLot,
		&extMod, &a.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return animals.Animal{}, animals.ErrNotFound
		}
		return animals.Animal{}, err
	}

	if age.Valid {
		v := int(age.Int64)
		a.Age = &v
	}
	a.BirthDate = fromNullTime(birth)
	a.CollectionDate = fromNullTime(collection)
	a.EntryDate = fromNullTime(entry)
	a.ExternalModificationDate = fromNullTime(extMod)
	a.ExternalCategoryID = fromNullInt64(extCat)
	a.ExternalBreedID = fromNullInt64(extBreed)
	a.ExternalCoatID = fromNullInt64(extCoat)
	a.ExternalCostCenterID = fromNullInt64(extCost)
	a.ExternalStockLocationID = fromNullInt64(extStock)
	a.ExternalLotID = fromNullInt64(extLot)

	return a, nil
}

func toNullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func fromNullTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func toNullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func toNullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func fromNullInt64(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	n := v.Int64
	return &n
}

func toNullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
