package animals

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cattle-dental-health/internal/platform/logger"
	auditport "cattle-dental-health/internal/ports/audit"
	"cattle-dental-health/internal/ports/feed"
)

// ErrUpstream envuelve fallas del feed externo; el handler lo mapea a 502.
var ErrUpstream = errors.New("falha na API externa")

type SyncStats struct {
	Total   int `json:"total"`
	Created int `json:"created"`
	Updated int `json:"updated"`
}

type SyncResult struct {
	Message string     `json:"message"`
	Period  string     `json:"period"`
	Stats   *SyncStats `json:"stats,omitempty"`
}

// SyncService orquesta la sincronización pull contra el feed externo.
type SyncService struct {
	source     feed.Source
	reconciler *Reconciler
	audit      auditport.Sink
	log        logger.Logger
	now        func() time.Time
}

func NewSyncService(source feed.Source, reconciler *Reconciler, sink auditport.Sink, log logger.Logger) *SyncService {
	return &SyncService{
		source:     source,
		reconciler: reconciler,
		audit:      sink,
		log:        log,
		now:        time.Now,
	}
}

// Run trae el feed para la ventana [start, end] (defaults: hace 7 días hasta
// hoy) y procesa cada registro secuencialmente. Secuencial a propósito: dos
// items del mismo batch pueden compartir sisbov/chip y procesarlos en
// paralelo duplicaría animales bajo la misma clave natural.
//
// Una falla de item aborta el batch completo (sin continuación parcial).
func (s *SyncService) Run(ctx context.Context, start, end string) (SyncResult, error) {
	if s.source == nil {
		return SyncResult{}, fmt.Errorf("%w: feed não configurado", ErrUpstream)
	}

	now := s.now()
	dtInit := start
	if dtInit == "" {
		dtInit = now.AddDate(0, 0, -7).Format("2006-01-02")
	}
	dtEnd := end
	if dtEnd == "" {
		dtEnd = now.Format("2006-01-02")
	}
	period := dtInit + " a " + dtEnd

	s.log.Info("iniciando sincronização", map[string]any{"period": period})
	s.audit.Log(ctx, "SYNC_START", "ExternalApi", "SISBOV", nil,
		"Iniciando sincronização do período: "+period)

	items, err := s.source.FetchAnimals(ctx, dtInit, dtEnd)
	if errors.Is(err, feed.ErrNoData) {
		// 404 del feed = ventana vacía, no es un error
		return SyncResult{
			Message: "Nenhum animal encontrado ou alterado neste período.",
			Period:  period,
		}, nil
	}
	if err != nil {
		s.audit.Log(ctx, "SYNC_ERROR", "ExternalApi", "SISBOV", nil,
			"Falha na sincronização: "+err.Error())
		return SyncResult{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	var stats SyncStats
	for _, item := range items {
		result, err := s.reconciler.Process(ctx, item)
		if err != nil {
			s.audit.Log(ctx, "SYNC_ERROR", "ExternalApi", "SISBOV", nil,
				"Falha na sincronização: "+err.Error())
			return SyncResult{}, fmt.Errorf("%w: %v", ErrUpstream, err)
		}

		stats.Total++
		switch result.Action {
		case ActionCreated:
			stats.Created++
		case ActionUpdated:
			stats.Updated++
		}
	}

	details := fmt.Sprintf("Sincronização concluída. Total: %d. Novos: %d. Atualizados: %d.",
		stats.Total, stats.Created, stats.Updated)
	s.audit.Log(ctx, "SYNC_SUCCESS", "ExternalApi", "SISBOV", nil, details)
	s.log.Info("sincronização concluída", map[string]any{
		"total":   stats.Total,
		"created": stats.Created,
		"updated": stats.Updated,
	})

	return SyncResult{
		Message: "Sincronização concluída!",
		Period:  period,
		Stats:   &stats,
	}, nil
}
