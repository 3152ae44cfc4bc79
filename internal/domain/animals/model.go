package animals

import "time"

// PhotoType define la posición de captura de una foto.
// En los payloads externos la posición 0 siempre es FRONTAL y el resto
// LATERAL_LEFT; los demás valores solo aparecen en cargas manuales.
type PhotoType string

const (
	PhotoFrontal      PhotoType = "FRONTAL"
	PhotoLingual      PhotoType = "LINGUAL"
	PhotoLateralLeft  PhotoType = "LATERAL_LEFT"
	PhotoLateralRight PhotoType = "LATERAL_RIGHT"
	PhotoSuperior     PhotoType = "SUPERIOR"
)

// Animal es el registro de identidad de un bovino.
// Los campos External*ID espejan las FKs del sistema origen y existen solo
// para trazabilidad; los lookups internos usan sisbov y chip.
type Animal struct {
	ID int64

	TagCode      string // caravana visible, NO es clave de matching
	Chip         string // clave natural secundaria
	SisbovNumber string // clave natural primaria

	Breed     string
	Farm      string
	Lot       string
	Client    string
	Location  string
	Category  string
	CoatColor string
	Status    string

	Age           *int
	CurrentWeight float64
	BodyScore     float64

	BirthDate      *time.Time
	CollectionDate *time.Time
	EntryDate      *time.Time

	ExternalCategoryID      *int64
	ExternalBreedID         *int64
	ExternalCoatID          *int64
	ExternalCostCenterID    *int64
	ExternalStockLocationID *int64
	ExternalLotID           *int64

	ExternalModificationDate *time.Time

	CreatedAt time.Time
}

// Media es una foto de un animal. Clave de dedup: (OriginalLink, AnimalID).
type Media struct {
	ID       int64
	AnimalID int64

	// StoragePath es la URL final resuelta (puede ser el link original o el
	// resultado de la migración a storage gestionado).
	StoragePath string

	// OriginalLink se preserva siempre, incluso después de migrar.
	OriginalLink string

	PhotoType PhotoType

	Latitude  *float64
	Longitude *float64
}
