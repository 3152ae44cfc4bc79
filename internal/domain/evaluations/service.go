package evaluations

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"cattle-dental-health/internal/domain/animals"
)

// Service maneja las sesiones de evaluación dental.
type Service struct {
	repo       Repository
	animalRepo animals.Repository
	now        func() time.Time
}

func NewService(repo Repository, animalRepo animals.Repository) *Service {
	return &Service{
		repo:       repo,
		animalRepo: animalRepo,
		now:        time.Now,
	}
}

// ToothInput trae punteros para distinguir "no enviado" de "cero".
// En create los ausentes caen al default; en update conservan el valor
// previo (merge nullish).
type ToothInput struct {
	ToothCode ToothCode
	ToothType *ToothType
	IsPresent *bool

	CrownReductionLevel    *int
	LingualWear            *int
	GingivalRecessionLevel *int
	PeriodontalLesions     *int
	FractureLevel          *int
	Pulpitis               *int
	VitrifiedBorder        *int
	PulpChamberExposure    *int
	GingivitisEdema        *int
	DentalCalculus         *int
	Caries                 *int

	GingivitisColor *int
	AbnormalColor   *int
}

type CreateInput struct {
	AnimalID        int64
	EvaluatorUserID string
	Notes           string
	Teeth           []ToothInput
}

// Create registra (o re-registra) una sesión de evaluación.
// Invariante de merge: como máximo una evaluación nueva por animal por día
// calendario; una re-submisión el mismo día muta la fila existente (notas
// reemplazadas, timestamp refrescado) en vez de crear otra.
func (s *Service) Create(ctx context.Context, in CreateInput) (DentalEvaluation, error) {
	if in.AnimalID == 0 || strings.TrimSpace(in.EvaluatorUserID) == "" {
		return DentalEvaluation{}, ErrInvalidInput
	}

	if _, err := s.animalRepo.GetByID(ctx, in.AnimalID); err != nil {
		if errors.Is(err, animals.ErrNotFound) {
			return DentalEvaluation{}, ErrNotFound
		}
		return DentalEvaluation{}, err
	}

	now := s.now()

	eval, err := s.repo.LatestByAnimal(ctx, in.AnimalID)
	sameDay := err == nil && sameCalendarDay(now, eval.EvaluationDate)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return DentalEvaluation{}, err
	}

	if sameDay {
		if strings.TrimSpace(in.Notes) != "" {
			eval.GeneralObservations = in.Notes
		}
		eval.EvaluationDate = now
	} else {
		eval = DentalEvaluation{
			AnimalID:            in.AnimalID,
			EvaluatorUserID:     in.EvaluatorUserID,
			GeneralObservations: in.Notes,
			EvaluationDate:      now,
		}
	}

	if err := s.repo.Save(ctx, &eval); err != nil {
		return DentalEvaluation{}, err
	}

	if len(in.Teeth) > 0 {
		for _, t := range in.Teeth {
			if err := s.upsertToothCreate(ctx, eval.ID, t); err != nil {
				return DentalEvaluation{}, err
			}
		}
	} else if !sameDay {
		if err := s.createDefaultHealthyTeeth(ctx, eval.ID); err != nil {
			return DentalEvaluation{}, err
		}
	}

	return s.repo.GetByID(ctx, eval.ID)
}

// upsertToothCreate aplica semántica de create: campo ausente = default
// (0 / PERMANENT / presente), incluso sobre un diente que ya existía por
// la re-submisión del mismo día.
func (s *Service) upsertToothCreate(ctx context.Context, evaluationID int64, in ToothInput) error {
	if in.ToothCode == "" {
		return ErrInvalidInput
	}

	tooth, err := s.repo.GetTooth(ctx, evaluationID, in.ToothCode)
	if errors.Is(err, ErrNotFound) {
		tooth = ToothEvaluation{EvaluationID: evaluationID, ToothCode: in.ToothCode}
	} else if err != nil {
		return err
	}

	tooth.ToothType = ToothPermanent
	if in.ToothType != nil && *in.ToothType != "" {
		tooth.ToothType = *in.ToothType
	}
	tooth.IsPresent = in.IsPresent == nil || *in.IsPresent

	tooth.CrownReductionLevel = intOrZero(in.CrownReductionLevel)
	tooth.LingualWear = intOrZero(in.LingualWear)
	tooth.GingivalRecessionLevel = intOrZero(in.GingivalRecessionLevel)
	tooth.PeriodontalLesions = intOrZero(in.PeriodontalLesions)
	tooth.FractureLevel = intOrZero(in.FractureLevel)
	tooth.Pulpitis = intOrZero(in.Pulpitis)
	tooth.VitrifiedBorder = intOrZero(in.VitrifiedBorder)
	tooth.PulpChamberExposure = intOrZero(in.PulpChamberExposure)
	tooth.GingivitisEdema = intOrZero(in.GingivitisEdema)
	tooth.DentalCalculus = intOrZero(in.DentalCalculus)
	tooth.Caries = intOrZero(in.Caries)
	tooth.GingivitisColor = intOrZero(in.GingivitisColor)
	tooth.AbnormalColor = intOrZero(in.AbnormalColor)

	return s.repo.SaveTooth(ctx, &tooth)
}

// createDefaultHealthyTeeth arma el arco completo sano (deciduo, todo cero).
func (s *Service) createDefaultHealthyTeeth(ctx context.Context, evaluationID int64) error {
	for _, code := range AllToothCodes {
		tooth := ToothEvaluation{
			EvaluationID: evaluationID,
			ToothCode:    code,
			ToothType:    ToothDeciduous,
			IsPresent:    true,
		}
		if err := s.repo.SaveTooth(ctx, &tooth); err != nil {
			return err
		}
	}
	return nil
}

type UpdateInput struct {
	Notes *string
	Teeth []ToothInput
}

// Update edita una evaluación existente. Solo el evaluador dueño o un admin.
// Merge nullish por diente: campo no enviado conserva su valor previo.
func (s *Service) Update(ctx context.Context, id int64, in UpdateInput, userID, role string) (DentalEvaluation, error) {
	eval, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return DentalEvaluation{}, err
	}

	isAdmin := role == "admin"
	isOwner := eval.EvaluatorUserID == userID
	if !isAdmin && !isOwner {
		return DentalEvaluation{}, ErrForbidden
	}

	if in.Notes != nil {
		eval.GeneralObservations = *in.Notes
		if err := s.repo.Save(ctx, &eval); err != nil {
			return DentalEvaluation{}, err
		}
	}

	for _, t := range in.Teeth {
		if err := s.upsertToothUpdate(ctx, id, t); err != nil {
			return DentalEvaluation{}, err
		}
	}

	return s.repo.GetByID(ctx, id)
}

func (s *Service) upsertToothUpdate(ctx context.Context, evaluationID int64, in ToothInput) error {
	if in.ToothCode == "" {
		return ErrInvalidInput
	}

	tooth, err := s.repo.GetTooth(ctx, evaluationID, in.ToothCode)
	if errors.Is(err, ErrNotFound) {
		// diente nuevo dentro de un update: arranca con los defaults de tabla
		tooth = ToothEvaluation{
			EvaluationID: evaluationID,
			ToothCode:    in.ToothCode,
			ToothType:    ToothPermanent,
			IsPresent:    true,
		}
	} else if err != nil {
		return err
	}

	if in.ToothType != nil && *in.ToothType != "" {
		tooth.ToothType = *in.ToothType
	}
	if in.IsPresent != nil {
		tooth.IsPresent = *in.IsPresent
	}

	setInt := func(dst *int, v *int) {
		if v != nil {
			*dst = *v
		}
	}
	setInt(&tooth.CrownReductionLevel, in.CrownReductionLevel)
	setInt(&tooth.LingualWear, in.LingualWear)
	setInt(&tooth.GingivalRecessionLevel, in.GingivalRecessionLevel)
	setInt(&tooth.PeriodontalLesions, in.PeriodontalLesions)
	setInt(&tooth.FractureLevel, in.FractureLevel)
	setInt(&tooth.Pulpitis, in.Pulpitis)
	setInt(&tooth.VitrifiedBorder, in.VitrifiedBorder)
	setInt(&tooth.PulpChamberExposure, in.PulpChamberExposure)
	setInt(&tooth.GingivitisEdema, in.GingivitisEdema)
	setInt(&tooth.DentalCalculus, in.DentalCalculus)
	setInt(&tooth.Caries, in.Caries)
	setInt(&tooth.GingivitisColor, in.GingivitisColor)
	setInt(&tooth.AbnormalColor, in.AbnormalColor)

	return s.repo.SaveTooth(ctx, &tooth)
}

func (s *Service) GetByID(ctx context.Context, id int64) (DentalEvaluation, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id int64) (DentalEvaluation, error) {
	eval, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return DentalEvaluation{}, err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return DentalEvaluation{}, err
	}
	return eval, nil
}

// HistoryByAnimal acepta id numérico o caravana.
func (s *Service) HistoryByAnimal(ctx context.Context, ref string) ([]DentalEvaluation, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, ErrInvalidInput
	}

	var animalID int64
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		animalID = id
	} else {
		a, err := s.animalRepo.GetByTag(ctx, ref)
		if err != nil {
			return nil, err
		}
		animalID = a.ID
	}

	return s.repo.ListByAnimal(ctx, animalID)
}

func (s *Service) History(ctx context.Context, f HistoryFilter) ([]HistoryRow, int, error) {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.Limit <= 0 {
		f.Limit = 10
	}
	return s.repo.ListHistory(ctx, f)
}

func (s *Service) Pending(ctx context.Context, f PendingFilter) ([]PendingAnimal, int, error) {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.Limit <= 0 {
		f.Limit = 20
	}
	return s.repo.ListPending(ctx, f)
}

func (s *Service) Dashboard(ctx context.Context) (DashboardStats, error) {
	return s.repo.Dashboard(ctx)
}

func sameCalendarDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func intOrZero(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}
