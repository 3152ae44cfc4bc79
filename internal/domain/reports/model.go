package reports

import (
	"time"

	"cattle-dental-health/internal/domain/evaluations"
)

// Filter acota el universo de evaluaciones del reporte. Campos vacíos
// no filtran; las fechas ya vienen normalizadas a bordes de día.
type Filter struct {
	Farm   string
	Client string
	Start  *time.Time
	End    *time.Time
}

// Row es una evaluación con los datos del animal resueltos, lista para
// agregarse. El motor calcula máximas y clasificación en memoria, no en SQL.
type Row struct {
	EvaluationID int64
	AnimalID     int64
	Tag          string
	Farm         string
	Location     string
	Date         time.Time
	Teeth        []evaluations.ToothEvaluation
}

type GeneralStats struct {
	Total        int `json:"total"`
	Healthy      int `json:"healthy"`
	Moderate     int `json:"moderate"`
	Critical     int `json:"critical"`
	TotalLesions int `json:"totalLesions"`

	HealthyPercentage  string `json:"healthyPercentage"`
	ModeratePercentage string `json:"moderatePercentage"`
	CriticalPercentage string `json:"criticalPercentage"`
}

// PathologyCount es la celda que consume el front: etiqueta visible,
// cantidad de evaluaciones afectadas y una key estable para gráficos.
type PathologyCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
	Key   string `json:"key"`
}

// Pathologies cuenta, por patología, cuántas evaluaciones la presentan
// (grado máximo >= 1). Las claves JSON son el contrato del front.
type Pathologies struct {
	Fraturas    PathologyCount `json:"fraturas"`
	Pulpite     PathologyCount `json:"pulpite"`
	Recessao    PathologyCount `json:"recessao"`
	Reducao     PathologyCount `json:"reducao"`
	Calculo     PathologyCount `json:"calculo"`
	Periodontal PathologyCount `json:"periodontal"`
	Desgaste    PathologyCount `json:"desgaste"`
	Carie       PathologyCount `json:"carie"`
	Vitrificado PathologyCount `json:"vitrificado"`
	Exposicao   PathologyCount `json:"exposicao"`
	Edema       PathologyCount `json:"edema"`
}

// newPathologies siembra labels y keys; "carie" en singular es histórico
// y el front lo espera así.
func newPathologies() Pathologies {
	return Pathologies{
		Fraturas:    PathologyCount{Label: "Fraturas", Key: "fracture"},
		Pulpite:     PathologyCount{Label: "Pulpite", Key: "pulpitis"},
		Recessao:    PathologyCount{Label: "Recessão Gengival", Key: "recession"},
		Reducao:     PathologyCount{Label: "Redução de Coroa", Key: "crown"},
		Calculo:     PathologyCount{Label: "Cálculo Dentário", Key: "calculus"},
		Periodontal: PathologyCount{Label: "Lesões Periodontais", Key: "periodontal"},
		Desgaste:    PathologyCount{Label: "Desgaste Lingual", Key: "lingual"},
		Carie:       PathologyCount{Label: "Cáries", Key: "carie"},
		Vitrificado: PathologyCount{Label: "Bordo Vitrificado", Key: "vitrified"},
		Exposicao:   PathologyCount{Label: "Exp. Câmara Pulpar", Key: "exposure"},
		Edema:       PathologyCount{Label: "Edema Gengival", Key: "edema"},
	}
}

type CriticalAnimal struct {
	ID        string    `json:"id"`
	Tag       string    `json:"tag"`
	Farm      string    `json:"farm"`
	Location  string    `json:"location"`
	Diagnosis string    `json:"diagnosis"`
	Date      time.Time `json:"date"`
}

type Stats struct {
	General         GeneralStats     `json:"general"`
	Pathologies     Pathologies      `json:"pathologies"`
	CriticalAnimals []CriticalAnimal `json:"criticalAnimals"`
}
