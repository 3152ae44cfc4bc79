package memory

import (
	"context"

	"cattle-dental-health/internal/domain/audit"
)

type AuditRepo struct {
	s *Store
}

func NewAuditRepo(s *Store) *AuditRepo {
	return &AuditRepo{s: s}
}

func (r *AuditRepo) Insert(ctx context.Context, entry audit.Log) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	entry.CreatedAt = nowIfZero(entry.CreatedAt)
	r.s.logs = append(r.s.logs, entry)
	return nil
}

func (r *AuditRepo) Recent(ctx context.Context, limit int) ([]audit.Log, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	n := len(r.s.logs)
	if limit > 0 && limit < n {
		n = limit
	}

	out := make([]audit.Log, 0, n)
	for i := len(r.s.logs) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, r.s.logs[i])
	}
	return out, nil
}
