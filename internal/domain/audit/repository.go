package audit

import "context"

type Repository interface {
	Insert(ctx context.Context, entry Log) error

	// Recent devuelve las últimas entradas, más nuevas primero.
	Recent(ctx context.Context, limit int) ([]Log, error)
}
