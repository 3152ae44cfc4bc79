package animals

import (
	"context"
	"errors"
)

var (
	ErrNotFound     = errors.New("animal not found")
	ErrInvalidInput = errors.New("invalid input")
)

type Repository interface {
	// InTx ejecuta fn dentro de una transacción. Commit si fn devuelve nil,
	// rollback si no; el handle se libera en todos los caminos de salida.
	InTx(ctx context.Context, fn func(tx Tx) error) error

	Create(ctx context.Context, a *Animal) error
	Update(ctx context.Context, a *Animal) error
	GetByID(ctx context.Context, id int64) (Animal, error)
	GetByTag(ctx context.Context, tagCode string) (Animal, error)
	List(ctx context.Context) ([]Animal, error)
	Delete(ctx context.Context, id int64) error

	ListMedia(ctx context.Context, animalID int64) ([]Media, error)

	DistinctFarms(ctx context.Context) ([]string, error)
	DistinctClients(ctx context.Context) ([]string, error)
}

// Tx son las operaciones disponibles dentro de la transacción del
// reconciler: upsert del animal + inserción de sus fotos, todo-o-nada.
type Tx interface {
	FindBySisbov(ctx context.Context, sisbov string) (Animal, error)
	FindByChip(ctx context.Context, chip string) (Animal, error)

	// SaveAnimal inserta si ID == 0, actualiza si no. Deja el ID asignado.
	SaveAnimal(ctx context.Context, a *Animal) error

	// HasMedia pregunta por el link ORIGINAL del provider: el storage path
	// cambia cuando la foto se migra, el link original nunca.
	HasMedia(ctx context.Context, animalID int64, originalLink string) (bool, error)
	AddMedia(ctx context.Context, m *Media) error
}
