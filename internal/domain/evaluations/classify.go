package evaluations

// pathologyLevels devuelve los once campos de patología de un diente (los
// dos campos de color quedan afuera de la clasificación).
func pathologyLevels(t ToothEvaluation) [11]int {
	return [11]int{
		t.FractureLevel,
		t.Pulpitis,
		t.GingivalRecessionLevel,
		t.CrownReductionLevel,
		t.DentalCalculus,
		t.PeriodontalLesions,
		t.LingualWear,
		t.Caries,
		t.VitrifiedBorder,
		t.PulpChamberExposure,
		t.GingivitisEdema,
	}
}

// ClassifyTeeth clasifica una evaluación a partir de sus dientes.
// Pura y order-independent.
//
// CRITICAL: fractura, pulpitis o recesión gingival en grado severo.
// MODERATE: cualquiera de los once campos de patología >= moderado.
// Ojo: el motor de reportes usa umbrales críticos propios (recesión >= 3);
// no unificar acá, son call sites distintos a propósito.
func ClassifyTeeth(teeth []ToothEvaluation) Status {
	if len(teeth) == 0 {
		return StatusHealthy
	}

	for _, t := range teeth {
		if t.FractureLevel == SeveritySevere ||
			t.Pulpitis == SeveritySevere ||
			t.GingivalRecessionLevel == SeveritySevere {
			return StatusCritical
		}
	}

	for _, t := range teeth {
		for _, level := range pathologyLevels(t) {
			if level >= SeverityModerate {
				return StatusModerate
			}
		}
	}

	return StatusHealthy
}

// WorstFracture es el máximo grado de fractura del set (para el histórico).
func WorstFracture(teeth []ToothEvaluation) int {
	worst := 0
	for _, t := range teeth {
		if t.FractureLevel > worst {
			worst = t.FractureLevel
		}
	}
	return worst
}
