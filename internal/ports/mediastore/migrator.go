package mediastore

import "context"

// Migrator copia una foto alojada en un link externo hacia storage
// gestionado y devuelve la URL final. Paso opcional: si falla, el caller
// conserva el link original y sigue (nunca aborta la transacción padre).
type Migrator interface {
	// CanMigrate dice si el link matchea un patrón de hosting conocido.
	CanMigrate(link string) bool

	// Migrate devuelve la URL en storage gestionado.
	Migrate(ctx context.Context, link, tagCode string, index int) (string, error)
}
