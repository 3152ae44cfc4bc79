// Package memory implementa los repositorios sobre maps en memoria.
// Se usa en desarrollo (sin DB_DSN) y en los tests de integración.
package memory

import (
	"errors"
	"sync"
	"time"

	"cattle-dental-health/internal/domain/animals"
	"cattle-dental-health/internal/domain/audit"
	"cattle-dental-health/internal/domain/evaluations"
)

var ErrNotFound = errors.New("not found")

// Store es el estado compartido por todos los repos de memoria.
// Un solo mutex: el volumen en dev no justifica granularidad.
type Store struct {
	mu sync.RWMutex

	animals map[int64]animals.Animal
	media   map[int64]animals.Media
	evals   map[int64]evaluations.DentalEvaluation
	teeth   map[int64]evaluations.ToothEvaluation
	logs    []audit.Log

	nextAnimalID int64
	nextMediaID  int64
	nextEvalID   int64
	nextToothID  int64
}

func NewStore() *Store {
	return &Store{
		animals: make(map[int64]animals.Animal),
		media:   make(map[int64]animals.Media),
		evals:   make(map[int64]evaluations.DentalEvaluation),
		teeth:   make(map[int64]evaluations.ToothEvaluation),
	}
}

func cloneMap[K comparable, V any](src map[K]V) map[K]V {
	dst := make(map[K]V, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func nowIfZero(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now()
	}
	return t
}
