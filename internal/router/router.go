package router

import (
	"database/sql"
	"net/http"
	"os"

	mem "cattle-dental-health/internal/adapters/storage/memory"
	pg "cattle-dental-health/internal/adapters/storage/postgres"
	"cattle-dental-health/internal/domain/animals"
	"cattle-dental-health/internal/domain/audit"
	"cattle-dental-health/internal/domain/evaluations"
	"cattle-dental-health/internal/domain/reports"
	"cattle-dental-health/internal/middleware"
	"cattle-dental-health/internal/platform/logger"
	"cattle-dental-health/internal/ports/auth"
	"cattle-dental-health/internal/ports/feed"
	"cattle-dental-health/internal/ports/mediastore"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

type Options struct {
	AuthVerifier auth.AuthVerifier // puede ser nil (modo dev)

	// Opcional: si viene, usa Postgres. Si no, in-memory.
	DB *sql.DB

	Log logger.Logger

	// Feed es la fuente externa de animales. Puede ser nil: /sync responde 502.
	Feed feed.Source

	// Migrator mueve fotos de Drive al storage gestionado. nil = migración apagada.
	Migrator mediastore.Migrator
}

func NewRouter(opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	r.Use(middleware.AuthContext(opts.AuthVerifier))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	log := opts.Log
	if log == nil {
		log = logger.New(logger.Options{Level: logger.Info})
	}

	var (
		animalsRepo animals.Repository
		evalsRepo   evaluations.Repository
		reportsRepo reports.Repository
		auditRepo   audit.Repository
	)

	// Si no te pasan DB explícita, intenta por env (para dev/handoff)
	db := opts.DB
	if db == nil {
		if dsn := os.Getenv("DB_DSN"); dsn != "" {
			opened, err := pg.Open(dsn)
			if err == nil {
				db = opened
			}
		}
	}

	if db != nil {
		animalsRepo = pg.NewAnimalsRepo(db)
		evalsRepo = pg.NewEvaluationsRepo(db)
		reportsRepo = pg.NewReportsRepo(db)
		auditRepo = pg.NewAuditRepo(db)
	} else {
		store := mem.NewStore()
		animalsRepo = mem.NewAnimalsRepo(store)
		evalsRepo = mem.NewEvaluationsRepo(store)
		reportsRepo = mem.NewReportsRepo(store)
		auditRepo = mem.NewAuditRepo(store)
	}

	// Services por módulo
	auditSvc := audit.NewService(auditRepo, log)
	animalsSvc := animals.NewService(animalsRepo, auditSvc)
	reconciler := animals.NewReconciler(animalsRepo, opts.Migrator, log)
	syncSvc := animals.NewSyncService(opts.Feed, reconciler, auditSvc, log)
	evalsSvc := evaluations.NewService(evalsRepo, animalsRepo)
	reportsSvc := reports.NewService(reportsRepo)

	// Rutas por módulo
	animals.RegisterRoutes(r, animalsSvc, reconciler, syncSvc)
	evaluations.RegisterRoutes(r, evalsSvc)
	reports.RegisterRoutes(r, reportsSvc)
	audit.RegisterRoutes(r, auditSvc)

	return r
}
