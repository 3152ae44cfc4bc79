package audit

import "context"

// Sink es el destino write-only de eventos de auditoría.
// userID nil = acción del sistema (sync automático); no hay actor global
// implícito, el caller siempre decide quién firma el evento.
type Sink interface {
	Log(ctx context.Context, action, entity, entityID string, userID *string, details string)
}
