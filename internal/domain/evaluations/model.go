package evaluations

import "time"

// DentalEvaluation es una sesión clínica de un animal por un evaluador.
// EvaluationDate funciona como clave de merge: como máximo una evaluación
// nueva por animal por día calendario.
type DentalEvaluation struct {
	ID              int64
	AnimalID        int64
	EvaluatorUserID string

	EvaluationDate      time.Time
	GeneralObservations string

	GeneralGingivitisScore int

	Teeth []ToothEvaluation
}

// ToothEvaluation es la ficha de una posición dental dentro de una
// evaluación. Identidad: (EvaluationID, ToothCode).
type ToothEvaluation struct {
	ID           int64
	EvaluationID int64

	ToothCode ToothCode
	ToothType ToothType
	IsPresent bool

	CrownReductionLevel    int
	LingualWear            int
	GingivalRecessionLevel int
	PeriodontalLesions     int
	FractureLevel          int
	Pulpitis               int
	VitrifiedBorder        int
	PulpChamberExposure    int
	GingivitisEdema        int
	DentalCalculus         int
	Caries                 int

	// Campos de color (escala 0/1)
	GingivitisColor int
	AbnormalColor   int
}
