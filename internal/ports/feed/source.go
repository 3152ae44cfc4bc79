package feed

import (
	"context"
	"errors"
)

// ErrNoData señala que el feed respondió 404 para el período pedido.
// No es un error de sync: significa "nada que sincronizar".
var ErrNoData = errors.New("feed: no data for period")

// Source es el feed externo de animales (Boviplan u otro provider).
// Devuelve los registros crudos tal como vienen del provider; la
// normalización de campos es responsabilidad del dominio, no del adapter.
type Source interface {
	FetchAnimals(ctx context.Context, dtInit, dtEnd string) ([]map[string]any, error)
}
