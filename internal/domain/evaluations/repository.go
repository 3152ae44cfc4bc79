package evaluations

import (
	"context"
	"errors"
)

var (
	ErrNotFound     = errors.New("evaluation not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrForbidden    = errors.New("forbidden")
)

// HistoryFilter filtra el histórico global paginado.
type HistoryFilter struct {
	Page  int
	Limit int

	Search    string // matchea caravana o id del animal
	Farm      string
	Client    string
	Pathology string // clave corta: fracture, pulpitis, recession, ...
}

// HistoryRow es una evaluación con los datos del animal ya resueltos
// (el histórico se renderiza plano, sin segunda query).
type HistoryRow struct {
	Evaluation DentalEvaluation

	AnimalTag    string
	AnimalBreed  string
	AnimalFarm   string
	AnimalClient string
	AnimalChip   string
	AnimalAge    *int

	EvaluatorName string
	MediaPaths    []string
}

// PendingAnimal es un animal sin ninguna evaluación todavía.
type PendingAnimal struct {
	AnimalID      int64
	Tag           string
	Breed         string
	Farm          string
	Client        string
	Chip          string
	Sisbov        string
	Lot           string
	Age           *int
	CurrentWeight float64
	MediaPaths    []string
}

type PendingFilter struct {
	Page   int
	Limit  int
	Search string
	Farm   string
	Client string
}

type DashboardStats struct {
	TotalAnimals       int `json:"totalAnimals"`
	TotalEvaluations   int `json:"totalEvaluations"`
	PendingEvaluations int `json:"pendingEvaluations"`
	CriticalCases      int `json:"criticalCases"`
}

// PathologyColumns mapea la clave corta de filtro a la columna de diente.
// La misma tabla la usan los repos de memoria y postgres.
var PathologyColumns = map[string]string{
	"fracture":    "fracture_level",
	"pulpitis":    "pulpitis",
	"recession":   "gingival_recession_level",
	"crown":       "crown_reduction_level",
	"calculus":    "dental_calculus",
	"periodontal": "periodontal_lesions",
	"lingual":     "lingual_wear",
	"caries":      "caries",
	"vitrified":   "vitrified_border",
	"exposure":    "pulp_chamber_exposure",
	"edema":       "gingivitis_edema",
}

type Repository interface {
	// Save inserta si ID == 0, actualiza si no. Deja el ID asignado.
	Save(ctx context.Context, e *DentalEvaluation) error

	// GetByID devuelve la evaluación con sus dientes cargados.
	GetByID(ctx context.Context, id int64) (DentalEvaluation, error)

	// LatestByAnimal devuelve la evaluación más reciente del animal
	// (con dientes), ErrNotFound si nunca fue evaluado.
	LatestByAnimal(ctx context.Context, animalID int64) (DentalEvaluation, error)

	Delete(ctx context.Context, id int64) error

	GetTooth(ctx context.Context, evaluationID int64, code ToothCode) (ToothEvaluation, error)
	SaveTooth(ctx context.Context, t *ToothEvaluation) error

	// ListByAnimal: histórico completo de un animal, fecha descendente.
	ListByAnimal(ctx context.Context, animalID int64) ([]DentalEvaluation, error)

	ListHistory(ctx context.Context, f HistoryFilter) ([]HistoryRow, int, error)
	ListPending(ctx context.Context, f PendingFilter) ([]PendingAnimal, int, error)
	Dashboard(ctx context.Context) (DashboardStats, error)
}
