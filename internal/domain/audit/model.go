package audit

import "time"

// Log es una entrada inmutable de trazabilidad. UserID nulo marca una
// acción del sistema (sincronizaciones, webhooks).
type Log struct {
	ID        string
	Action    string
	Entity    string
	EntityID  string
	UserID    *string
	Details   string
	CreatedAt time.Time
}
