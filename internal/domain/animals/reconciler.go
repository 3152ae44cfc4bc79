package animals

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"cattle-dental-health/internal/platform/logger"
	"cattle-dental-health/internal/ports/mediastore"
)

// ErrProcessing es el único error que ve el caller del webhook.
// Deliberadamente opaco: la causa real va al log junto al payload crudo.
var ErrProcessing = errors.New("erro ao processar dados externos")

type Action string

const (
	ActionCreated Action = "CREATED"
	ActionUpdated Action = "UPDATED"
)

type ReconcileResult struct {
	Action Action `json:"action"`
	ID     int64  `json:"id"`
	Tag    string `json:"tag"`
}

// Reconciler resuelve un registro externo contra la base: matching por
// clave natural, merge y persistencia atómica con sus fotos.
type Reconciler struct {
	repo     Repository
	migrator mediastore.Migrator // opcional; nil = migración apagada
	log      logger.Logger
	now      func() time.Time
}

func NewReconciler(repo Repository, migrator mediastore.Migrator, log logger.Logger) *Reconciler {
	return &Reconciler{
		repo:     repo,
		migrator: migrator,
		log:      log,
		now:      time.Now,
	}
}

// Process normaliza y aplica un registro externo en una sola transacción.
// Resolución de clave en orden estricto: sisbov primero, chip después;
// sin match en ninguna => alta nueva.
func (rc *Reconciler) Process(ctx context.Context, raw map[string]any) (ReconcileResult, error) {
	rec := Normalize(raw, rc.now)

	var result ReconcileResult
	err := rc.repo.InTx(ctx, func(tx Tx) error {
		animal, matched, err := rc.resolve(ctx, tx, rec)
		if err != nil {
			return err
		}

		action := ActionCreated
		if matched {
			applyRecord(&animal, rec)
			action = ActionUpdated
		} else {
			animal = newAnimal(rec, rc.now())
		}

		if err := tx.SaveAnimal(ctx, &animal); err != nil {
			return err
		}

		for i, photo := range rec.Photos {
			if err := rc.attachPhoto(ctx, tx, animal, photo, i); err != nil {
				return err
			}
		}

		result = ReconcileResult{Action: action, ID: animal.ID, Tag: animal.TagCode}
		return nil
	})
	if err != nil {
		payload, _ := json.Marshal(raw)
		rc.log.Error("webhook: falha ao processar registro externo", map[string]any{
			"err":     err.Error(),
			"payload": string(payload),
		})
		return ReconcileResult{}, ErrProcessing
	}

	return result, nil
}

func (rc *Reconciler) resolve(ctx context.Context, tx Tx, rec ExternalRecord) (Animal, bool, error) {
	if rec.SisbovNumber != "" {
		a, err := tx.FindBySisbov(ctx, rec.SisbovNumber)
		if err == nil {
			return a, true, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return Animal{}, false, err
		}
	}

	if rec.Chip != "" {
		a, err := tx.FindByChip(ctx, rec.Chip)
		if err == nil {
			rc.log.Warn("animal matcheado por chip en vez de sisbov", map[string]any{
				"chip": rec.Chip,
				"id":   a.ID,
			})
			return a, true, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return Animal{}, false, err
		}
	}

	return Animal{}, false, nil
}

func (rc *Reconciler) attachPhoto(ctx context.Context, tx Tx, animal Animal, photo PhotoEntry, index int) error {
	// dedup por (link, animal): un link ya visto nunca se re-inserta
	exists, err := tx.HasMedia(ctx, animal.ID, photo.Link)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	storagePath := photo.Link
	if rc.migrator != nil && rc.migrator.CanMigrate(photo.Link) {
		migrated, err := rc.migrator.Migrate(ctx, photo.Link, animal.TagCode, index)
		if err != nil {
			// paso opcional: se queda el link original, la transacción sigue
			rc.log.Warn("falha ao migrar foto para storage", map[string]any{
				"err":  err.Error(),
				"link": photo.Link,
			})
		} else {
			storagePath = migrated
		}
	}

	photoType := PhotoLateralLeft
	if index == 0 {
		photoType = PhotoFrontal
	}

	return tx.AddMedia(ctx, &Media{
		AnimalID:     animal.ID,
		StoragePath:  storagePath,
		OriginalLink: photo.Link,
		PhotoType:    photoType,
		Latitude:     photo.Latitude,
		Longitude:    photo.Longitude,
	})
}

// applyRecord sobreescribe TODOS los campos mapeados, incluso los que
// normalizaron a vacío. Riesgo conocido: un payload parcial puede pisar un
// campo ya poblado; se mantiene porque el provider re-manda el registro
// completo en cada corrida y los consumers dependen de ese comportamiento.
func applyRecord(a *Animal, rec ExternalRecord) {
	a.TagCode = rec.TagCode
	a.Chip = rec.Chip
	a.SisbovNumber = rec.SisbovNumber
	a.Category = rec.Category
	a.Breed = rec.Breed
	a.CoatColor = rec.CoatColor
	a.Farm = rec.Farm
	a.Location = rec.Location
	a.Lot = rec.Lot
	a.Status = rec.Status
	a.CurrentWeight = rec.CurrentWeight
	a.BodyScore = rec.BodyScore
	a.ExternalCategoryID = rec.ExternalCategoryID
	a.ExternalBreedID = rec.ExternalBreedID
	a.ExternalCoatID = rec.ExternalCoatID
	a.ExternalCostCenterID = rec.ExternalCostCenterID
	a.ExternalStockLocationID = rec.ExternalStockLocationID
	a.ExternalLotID = rec.ExternalLotID
	a.BirthDate = rec.BirthDate
	entry := rec.EntryDate
	a.CollectionDate = &entry
	a.EntryDate = &entry
	a.ExternalModificationDate = rec.ExternalModificationDate
}

func newAnimal(rec ExternalRecord, now time.Time) Animal {
	var a Animal
	applyRecord(&a, rec)
	a.CreatedAt = now
	return a
}
