package reports

import (
	"context"
	"fmt"
	"testing"
	"time"

	"cattle-dental-health/internal/domain/evaluations"
)

type testReportsRepo struct {
	rows      []Row
	gotFilter Filter
}

func (r *testReportsRepo) Rows(ctx context.Context, f Filter) ([]Row, error) {
	r.gotFilter = f
	return r.rows, nil
}

func row(id int64, teeth ...evaluations.ToothEvaluation) Row {
	return Row{
		EvaluationID: id,
		AnimalID:     id,
		Tag:          fmt.Sprintf("TAG-%d", id),
		Farm:         "Fazenda Uno",
		Date:         time.Date(2026, 8, 10, 9, 0, 0, 0, time.Local),
		Teeth:        teeth,
	}
}

func TestStats_TiersSumToTotal(t *testing.T) {
	repo := &testReportsRepo{rows: []Row{
		row(1), // sano
		row(2, evaluations.ToothEvaluation{Caries: 1}),        // moderado
		row(3, evaluations.ToothEvaluation{FractureLevel: 2}), // crítico
		row(4, evaluations.ToothEvaluation{Pulpitis: 3}),      // crítico
	}}
	svc := NewService(repo)

	stats, err := svc.Stats(context.Background(), Filter{})
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}

	g := stats.General
	if g.Total != 4 {
		t.Fatalf("Total = %d", g.Total)
	}
	if g.Healthy+g.Moderate+g.Critical != g.Total {
		t.Fatalf("tiers %d+%d+%d != total %d", g.Healthy, g.Moderate, g.Critical, g.Total)
	}
	if g.Healthy != 1 || g.Moderate != 1 || g.Critical != 2 {
		t.Fatalf("tiers = %d/%d/%d", g.Healthy, g.Moderate, g.Critical)
	}
	if g.HealthyPercentage != "25.0" || g.CriticalPercentage != "50.0" {
		t.Fatalf("pcts = %s / %s", g.HealthyPercentage, g.CriticalPercentage)
	}
}

func TestStats_EmptyUniverse(t *testing.T) {
	svc := NewService(&testReportsRepo{})

	stats, err := svc.Stats(context.Background(), Filter{})
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.General.HealthyPercentage != "0.0" {
		t.Fatalf("HealthyPercentage = %q, want 0.0 sin división por cero", stats.General.HealthyPercentage)
	}
	if len(stats.CriticalAnimals) != 0 {
		t.Fatalf("CriticalAnimals = %d", len(stats.CriticalAnimals))
	}
}

func TestStats_RecessionThresholdDiffersFromClassify(t *testing.T) {
	// recesión grado 2: crítica para ClassifyTeeth, pero el motor de
	// reportes recién la cuenta como crítica desde grado 3
	repo := &testReportsRepo{rows: []Row{
		row(1, evaluations.ToothEvaluation{GingivalRecessionLevel: 2}),
		row(2, evaluations.ToothEvaluation{GingivalRecessionLevel: 3}),
	}}
	svc := NewService(repo)

	stats, err := svc.Stats(context.Background(), Filter{})
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.General.Moderate != 1 || stats.General.Critical != 1 {
		t.Fatalf("moderate/critical = %d/%d, want 1/1", stats.General.Moderate, stats.General.Critical)
	}
}

func TestStats_ExposureAnyLevelIsCritical(t *testing.T) {
	repo := &testReportsRepo{rows: []Row{
		row(1, evaluations.ToothEvaluation{PulpChamberExposure: 1}),
	}}
	svc := NewService(repo)

	stats, _ := svc.Stats(context.Background(), Filter{})
	if stats.General.Critical != 1 {
		t.Fatalf("Critical = %d, want 1 (exposición > 0)", stats.General.Critical)
	}
}

func TestStats_PathologyCountsPerEvaluation(t *testing.T) {
	// dos dientes con caries en la misma evaluación cuentan una vez
	repo := &testReportsRepo{rows: []Row{
		row(1,
			evaluations.ToothEvaluation{ToothCode: evaluations.I1Left, Caries: 1},
			evaluations.ToothEvaluation{ToothCode: evaluations.I1Right, Caries: 2},
		),
		row(2, evaluations.ToothEvaluation{Caries: 1, DentalCalculus: 1}),
	}}
	svc := NewService(repo)

	stats, _ := svc.Stats(context.Background(), Filter{})
	if stats.Pathologies.Carie.Count != 2 {
		t.Fatalf("Carie = %d, want 2", stats.Pathologies.Carie.Count)
	}
	if stats.Pathologies.Calculo.Count != 1 {
		t.Fatalf("Calculo = %d, want 1", stats.Pathologies.Calculo.Count)
	}
	if stats.General.TotalLesions != 3 {
		t.Fatalf("TotalLesions = %d, want 3", stats.General.TotalLesions)
	}
}

func TestStats_PathologyLabelsAndKeys(t *testing.T) {
	svc := NewService(&testReportsRepo{})

	stats, _ := svc.Stats(context.Background(), Filter{})
	p := stats.Pathologies
	if p.Fraturas.Label != "Fraturas" || p.Fraturas.Key != "fracture" {
		t.Fatalf("Fraturas = %+v", p.Fraturas)
	}
	if p.Recessao.Label != "Recessão Gengival" || p.Recessao.Key != "recession" {
		t.Fatalf("Recessao = %+v", p.Recessao)
	}
	// key histórica en singular
	if p.Carie.Label != "Cáries" || p.Carie.Key != "carie" {
		t.Fatalf("Carie = %+v", p.Carie)
	}
	if p.Exposicao.Label != "Exp. Câmara Pulpar" || p.Exposicao.Key != "exposure" {
		t.Fatalf("Exposicao = %+v", p.Exposicao)
	}
}

func TestStats_TopCriticalOrderingAndDiagnosis(t *testing.T) {
	repo := &testReportsRepo{rows: []Row{
		row(1, evaluations.ToothEvaluation{ToothCode: evaluations.I1Left, FractureLevel: 2}),
		row(2, evaluations.ToothEvaluation{ToothCode: evaluations.I2Left, FractureLevel: 3}),
		row(3, evaluations.ToothEvaluation{ToothCode: evaluations.I3Left, Pulpitis: 2}),
		row(4, evaluations.ToothEvaluation{ToothCode: evaluations.I4Left, PulpChamberExposure: 1}),
		row(5, evaluations.ToothEvaluation{PeriodontalLesions: 3}),
	}}
	svc := NewService(repo)

	stats, err := svc.Stats(context.Background(), Filter{})
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}

	got := stats.CriticalAnimals
	if len(got) != 5 {
		t.Fatalf("criticalAnimals = %d, want 5", len(got))
	}

	// fractura más alta primero
	if got[0].Tag != "TAG-2" || got[1].Tag != "TAG-1" {
		t.Fatalf("orden = %s, %s; want TAG-2, TAG-1", got[0].Tag, got[1].Tag)
	}

	if got[0].Diagnosis != "Fratura Grau 3 (Dente I2_L)" {
		t.Fatalf("diagnosis[0] = %q", got[0].Diagnosis)
	}
	if got[2].Diagnosis != "Pulpite Grau 2 (Dente I3_L)" {
		t.Fatalf("diagnosis[2] = %q", got[2].Diagnosis)
	}
	if got[3].Diagnosis != "Exp. Câmara Pulpar (Dente I4_L)" {
		t.Fatalf("diagnosis[3] = %q", got[3].Diagnosis)
	}
	if got[4].Diagnosis != "Lesão Periodontal G3" {
		t.Fatalf("diagnosis[4] = %q", got[4].Diagnosis)
	}
}

func TestStats_RecessionOnlyCountsButStaysOffTopList(t *testing.T) {
	// recesión grado 3 sube el tier crítico pero no entra al top de
	// críticos: la lista solo admite fractura/pulpite/exposición/periodontal
	repo := &testReportsRepo{rows: []Row{
		row(1, evaluations.ToothEvaluation{ToothCode: evaluations.I1Left, GingivalRecessionLevel: 3}),
	}}
	svc := NewService(repo)

	stats, err := svc.Stats(context.Background(), Filter{})
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.General.Critical != 1 {
		t.Fatalf("Critical = %d, want 1", stats.General.Critical)
	}
	if len(stats.CriticalAnimals) != 0 {
		t.Fatalf("criticalAnimals = %d, want 0", len(stats.CriticalAnimals))
	}
}

func TestStats_DiagnosisUsesFirstQualifyingTooth(t *testing.T) {
	// la fractura grado 1 del primer diente no alcanza el umbral del
	// diagnóstico: la etiqueta sale del diente con exposición
	repo := &testReportsRepo{rows: []Row{
		row(1,
			evaluations.ToothEvaluation{ToothCode: evaluations.I1Left, FractureLevel: 1},
			evaluations.ToothEvaluation{ToothCode: evaluations.I2Left, PulpChamberExposure: 1},
		),
	}}
	svc := NewService(repo)

	stats, err := svc.Stats(context.Background(), Filter{})
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if len(stats.CriticalAnimals) != 1 {
		t.Fatalf("criticalAnimals = %d, want 1", len(stats.CriticalAnimals))
	}
	if got := stats.CriticalAnimals[0].Diagnosis; got != "Exp. Câmara Pulpar (Dente I2_L)" {
		t.Fatalf("diagnosis = %q", got)
	}
}

func TestStats_LocationFallback(t *testing.T) {
	r := row(1, evaluations.ToothEvaluation{FractureLevel: 2})
	r.Location = ""
	svc := NewService(&testReportsRepo{rows: []Row{r}})

	stats, _ := svc.Stats(context.Background(), Filter{})
	if stats.CriticalAnimals[0].Location != "N/I" {
		t.Fatalf("Location = %q, want N/I", stats.CriticalAnimals[0].Location)
	}
}

func TestStats_TopCriticalCapsAtFive(t *testing.T) {
	rows := make([]Row, 0, 7)
	for i := int64(1); i <= 7; i++ {
		rows = append(rows, row(i, evaluations.ToothEvaluation{FractureLevel: 2}))
	}
	svc := NewService(&testReportsRepo{rows: rows})

	stats, _ := svc.Stats(context.Background(), Filter{})
	if stats.General.Critical != 7 {
		t.Fatalf("Critical = %d", stats.General.Critical)
	}
	if len(stats.CriticalAnimals) != 5 {
		t.Fatalf("top = %d, want 5", len(stats.CriticalAnimals))
	}
}

func TestStats_DateBoundariesExpandToFullDays(t *testing.T) {
	repo := &testReportsRepo{}
	svc := NewService(repo)

	start := time.Date(2026, 8, 1, 14, 30, 0, 0, time.Local)
	end := time.Date(2026, 8, 10, 9, 15, 0, 0, time.Local)
	if _, err := svc.Stats(context.Background(), Filter{Start: &start, End: &end}); err != nil {
		t.Fatalf("Stats: %v", err)
	}

	gotStart := *repo.gotFilter.Start
	if gotStart.Hour() != 0 || gotStart.Minute() != 0 {
		t.Fatalf("Start = %v, want medianoche", gotStart)
	}
	gotEnd := *repo.gotFilter.End
	if gotEnd.Hour() != 23 || gotEnd.Minute() != 59 || gotEnd.Second() != 59 {
		t.Fatalf("End = %v, want fin de día", gotEnd)
	}
}
