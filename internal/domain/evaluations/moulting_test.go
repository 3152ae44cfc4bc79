package evaluations

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestApplyQuickMoulting_EruptionTable(t *testing.T) {
	cases := []struct {
		stage     MoultingStage
		permanent []string // prefijos que deben quedar permanentes
	}{
		{StageDL, nil},
		{StageD2, []string{"I1"}},
		{StageD4, []string{"I1", "I2"}},
		{StageD6, []string{"I1", "I2", "I3"}},
		{StageBC, []string{"I1", "I2", "I3", "I4"}},
	}

	for _, tc := range cases {
		t.Run(string(tc.stage), func(t *testing.T) {
			svc, _ := newEvalFixture(t)

			eval, err := svc.ApplyQuickMoulting(context.Background(), QuickMoultingInput{
				AnimalID:        1,
				EvaluatorUserID: "user-1",
				Stage:           tc.stage,
			})
			if err != nil {
				t.Fatalf("ApplyQuickMoulting: %v", err)
			}
			if len(eval.Teeth) != 8 {
				t.Fatalf("teeth = %d, want 8", len(eval.Teeth))
			}

			for _, tooth := range eval.Teeth {
				prefix := strings.SplitN(string(tooth.ToothCode), "_", 2)[0]
				wantPermanent := false
				for _, p := range tc.permanent {
					if p == prefix {
						wantPermanent = true
					}
				}

				got := tooth.ToothType == ToothPermanent
				if got != wantPermanent {
					t.Fatalf("%s en %s: permanent = %v, want %v", tooth.ToothCode, tc.stage, got, wantPermanent)
				}
				if !tooth.IsPresent {
					t.Fatalf("%s: debe estar presente", tooth.ToothCode)
				}
				if tooth.FractureLevel != 0 || tooth.Caries != 0 {
					t.Fatalf("%s: la muda rápida no carga severidades", tooth.ToothCode)
				}
			}

			if !strings.Contains(eval.GeneralObservations, string(tc.stage)) {
				t.Fatalf("notes = %q, debe nombrar la etapa", eval.GeneralObservations)
			}
		})
	}
}

func TestApplyQuickMoulting_RejectsUnknownStage(t *testing.T) {
	svc, _ := newEvalFixture(t)

	_, err := svc.ApplyQuickMoulting(context.Background(), QuickMoultingInput{
		AnimalID:        1,
		EvaluatorUserID: "user-1",
		Stage:           MoultingStage("D8"),
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}
