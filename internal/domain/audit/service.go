package audit

import (
	"context"

	"cattle-dental-health/internal/platform/logger"

	"github.com/google/uuid"
)

// Service implementa ports/audit.Sink. Una falla al auditar nunca debe
// tumbar la operación que la originó: se loguea y se sigue.
type Service struct {
	repo Repository
	log  logger.Logger
}

func NewService(repo Repository, log logger.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log.With(map[string]any{"component": "audit"}),
	}
}

func (s *Service) Log(ctx context.Context, action, entity, entityID string, userID *string, details string) {
	entry := Log{
		ID:       uuid.NewString(),
		Action:   action,
		Entity:   entity,
		EntityID: entityID,
		UserID:   userID,
		Details:  details,
	}

	if err := s.repo.Insert(ctx, entry); err != nil {
		s.log.Warn("no se pudo registrar auditoría", map[string]any{
			"action": action,
			"entity": entity,
			"error":  err.Error(),
		})
	}
}

// Recent devuelve las últimas entradas para la vista de actividad.
func (s *Service) Recent(ctx context.Context, limit int) ([]Log, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	return s.repo.Recent(ctx, limit)
}
