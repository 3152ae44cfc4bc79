package evaluations

import (
	"context"
	"strings"
)

type QuickMoultingInput struct {
	AnimalID        int64
	EvaluatorUserID string
	Stage           MoultingStage
}

// ApplyQuickMoulting setea el tipo de diente de las ocho posiciones según
// el patrón de erupción conocido de la etapa, con todas las severidades en
// cero, y pasa por el camino normal de Create (merge de mismo día incluido).
func (s *Service) ApplyQuickMoulting(ctx context.Context, in QuickMoultingInput) (DentalEvaluation, error) {
	switch in.Stage {
	case StageDL, StageD2, StageD4, StageD6, StageBC:
	default:
		return DentalEvaluation{}, ErrInvalidInput
	}

	present := true
	teeth := make([]ToothInput, 0, len(AllToothCodes))
	for _, code := range AllToothCodes {
		toothType := ToothDeciduous
		if stageMakesPermanent(code, in.Stage) {
			toothType = ToothPermanent
		}
		tt := toothType
		teeth = append(teeth, ToothInput{
			ToothCode: code,
			ToothType: &tt,
			IsPresent: &present,
		})
	}

	return s.Create(ctx, CreateInput{
		AnimalID:        in.AnimalID,
		EvaluatorUserID: in.EvaluatorUserID,
		Notes:           "Muda rápida aplicada: " + string(in.Stage),
		Teeth:           teeth,
	})
}

// stageMakesPermanent: I1 erupciona en D2, I2 en D4, I3 en D6, I4 recién
// en boca llena.
func stageMakesPermanent(code ToothCode, stage MoultingStage) bool {
	prefix := strings.SplitN(string(code), "_", 2)[0]
	switch prefix {
	case "I1":
		return stage == StageD2 || stage == StageD4 || stage == StageD6 || stage == StageBC
	case "I2":
		return stage == StageD4 || stage == StageD6 || stage == StageBC
	case "I3":
		return stage == StageD6 || stage == StageBC
	case "I4":
		return stage == StageBC
	default:
		return false
	}
}
