package reports

import "context"

type Repository interface {
	// Rows devuelve las evaluaciones que caen dentro del filtro, con los
	// dientes cargados y los datos del animal resueltos.
	Rows(ctx context.Context, f Filter) ([]Row, error)
}
