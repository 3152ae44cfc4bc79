package reports

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"cattle-dental-health/internal/domain/evaluations"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// maxima condensa una evaluación en el grado máximo de cada patología.
type maxima struct {
	fracture, pulpitis, recession, crown, calculus,
	periodontal, lingual, caries, vitrified, exposure, edema int
}

// isCritical usa los umbrales propios del motor de reportes. Difieren de
// la clasificación por evaluación (acá recesión recién pesa desde grado 3).
func (m maxima) isCritical() bool {
	return m.fracture >= 2 ||
		m.pulpitis >= 2 ||
		m.recession >= 3 ||
		m.exposure > 0 ||
		m.periodontal >= 3
}

// isTopCritical decide quién entra a la lista de top críticos: mismo
// predicado que isCritical pero SIN recesión. Un animal crítico solo por
// recesión cuenta en el tier y no aparece en la lista.
func (m maxima) isTopCritical() bool {
	return m.fracture >= 2 ||
		m.pulpitis >= 2 ||
		m.exposure > 0 ||
		m.periodontal >= 3
}

func (m maxima) hasAnyLesion() bool {
	return m.fracture >= 1 || m.pulpitis >= 1 || m.recession >= 1 ||
		m.crown >= 1 || m.calculus >= 1 || m.periodontal >= 1 ||
		m.lingual >= 1 || m.caries >= 1 || m.vitrified >= 1 ||
		m.exposure >= 1 || m.edema >= 1
}

// Stats arma el reporte completo: resumen general, conteo por patología
// y el top de animales críticos.
func (s *Service) Stats(ctx context.Context, f Filter) (Stats, error) {
	f = normalizeDates(f)

	rows, err := s.repo.Rows(ctx, f)
	if err != nil {
		return Stats{}, err
	}

	var stats Stats
	stats.General.Total = len(rows)
	stats.Pathologies = newPathologies()

	type criticalCandidate struct {
		row Row
		m   maxima
	}
	var criticals []criticalCandidate

	for _, row := range rows {
		m := condense(row)

		switch {
		case m.isCritical():
			stats.General.Critical++
			if m.isTopCritical() {
				criticals = append(criticals, criticalCandidate{row: row, m: m})
			}
		case m.hasAnyLesion():
			stats.General.Moderate++
		default:
			stats.General.Healthy++
		}

		countPathologies(&stats.Pathologies, m)
	}

	stats.General.TotalLesions = stats.Pathologies.Fraturas.Count +
		stats.Pathologies.Pulpite.Count + stats.Pathologies.Recessao.Count +
		stats.Pathologies.Reducao.Count + stats.Pathologies.Calculo.Count +
		stats.Pathologies.Periodontal.Count + stats.Pathologies.Desgaste.Count +
		stats.Pathologies.Carie.Count + stats.Pathologies.Vitrificado.Count +
		stats.Pathologies.Exposicao.Count + stats.Pathologies.Edema.Count

	stats.General.HealthyPercentage = percent(stats.General.Healthy, stats.General.Total)
	stats.General.ModeratePercentage = percent(stats.General.Moderate, stats.General.Total)
	stats.General.CriticalPercentage = percent(stats.General.Critical, stats.General.Total)

	// Top 5 críticos: fractura, después pulpite, después exposición.
	sort.SliceStable(criticals, func(i, j int) bool {
		a, b := criticals[i].m, criticals[j].m
		if a.fracture != b.fracture {
			return a.fracture > b.fracture
		}
		if a.pulpitis != b.pulpitis {
			return a.pulpitis > b.pulpitis
		}
		return a.exposure > b.exposure
	})
	if len(criticals) > 5 {
		criticals = criticals[:5]
	}

	stats.CriticalAnimals = make([]CriticalAnimal, 0, len(criticals))
	for _, c := range criticals {
		location := c.row.Location
		if location == "" {
			location = "N/I"
		}
		stats.CriticalAnimals = append(stats.CriticalAnimals, CriticalAnimal{
			ID:        strconv.FormatInt(c.row.AnimalID, 10),
			Tag:       c.row.Tag,
			Farm:      c.row.Farm,
			Location:  location,
			Diagnosis: diagnose(c.row.Teeth),
			Date:      c.row.Date,
		})
	}

	return stats, nil
}

func condense(row Row) maxima {
	var m maxima
	for _, t := range row.Teeth {
		if t.FractureLevel > m.fracture {
			m.fracture = t.FractureLevel
		}
		if t.Pulpitis > m.pulpitis {
			m.pulpitis = t.Pulpitis
		}
		if t.PulpChamberExposure > m.exposure {
			m.exposure = t.PulpChamberExposure
		}
		if t.GingivalRecessionLevel > m.recession {
			m.recession = t.GingivalRecessionLevel
		}
		if t.CrownReductionLevel > m.crown {
			m.crown = t.CrownReductionLevel
		}
		if t.DentalCalculus > m.calculus {
			m.calculus = t.DentalCalculus
		}
		if t.PeriodontalLesions > m.periodontal {
			m.periodontal = t.PeriodontalLesions
		}
		if t.LingualWear > m.lingual {
			m.lingual = t.LingualWear
		}
		if t.Caries > m.caries {
			m.caries = t.Caries
		}
		if t.VitrifiedBorder > m.vitrified {
			m.vitrified = t.VitrifiedBorder
		}
		if t.GingivitisEdema > m.edema {
			m.edema = t.GingivitisEdema
		}
	}
	return m
}

func countPathologies(p *Pathologies, m maxima) {
	if m.fracture >= 1 {
		p.Fraturas.Count++
	}
	if m.pulpitis >= 1 {
		p.Pulpite.Count++
	}
	if m.recession >= 1 {
		p.Recessao.Count++
	}
	if m.crown >= 1 {
		p.Reducao.Count++
	}
	if m.calculus >= 1 {
		p.Calculo.Count++
	}
	if m.periodontal >= 1 {
		p.Periodontal.Count++
	}
	if m.lingual >= 1 {
		p.Desgaste.Count++
	}
	if m.caries >= 1 {
		p.Carie.Count++
	}
	if m.vitrified >= 1 {
		p.Vitrificado.Count++
	}
	if m.exposure >= 1 {
		p.Exposicao.Count++
	}
	if m.edema >= 1 {
		p.Edema.Count++
	}
}

// diagnose etiqueta al PRIMER diente que dispara el predicado de top
// crítico, con la misma prioridad de umbrales. No mezcla dientes: la
// etiqueta describe un diente concreto, no las máximas de la boca.
func diagnose(teeth []evaluations.ToothEvaluation) string {
	for _, t := range teeth {
		switch {
		case t.FractureLevel >= 2:
			return fmt.Sprintf("Fratura Grau %d (Dente %s)", t.FractureLevel, t.ToothCode)
		case t.Pulpitis >= 2:
			return fmt.Sprintf("Pulpite Grau %d (Dente %s)", t.Pulpitis, t.ToothCode)
		case t.PulpChamberExposure > 0:
			return fmt.Sprintf("Exp. Câmara Pulpar (Dente %s)", t.ToothCode)
		case t.PeriodontalLesions >= 3:
			return fmt.Sprintf("Lesão Periodontal G%d", t.PeriodontalLesions)
		}
	}
	return "Patologia Diversa"
}

func percent(part, total int) string {
	if total == 0 {
		return "0.0"
	}
	return fmt.Sprintf("%.1f", float64(part)/float64(total)*100)
}

// normalizeDates expande el rango a bordes de día calendario local.
func normalizeDates(f Filter) Filter {
	if f.Start != nil {
		t := *f.Start
		d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.Local)
		f.Start = &d
	}
	if f.End != nil {
		t := *f.End
		d := time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 999_000_000, time.Local)
		f.End = &d
	}
	return f
}
