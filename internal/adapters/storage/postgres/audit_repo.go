package postgres

import (
	"context"
	"database/sql"

	"cattle-dental-health/internal/domain/audit"
)

type AuditRepo struct {
	db *sql.DB
}

func NewAuditRepo(db *sql.DB) *AuditRepo {
	return &AuditRepo{db: db}
}

func (r *AuditRepo) Insert(ctx context.Context, entry audit.Log) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO audit_log (id, action, entity, entity_id, user_id, details, created_at)
		VALUES ($1,$2,$3,$4,$5,$6, now())`,
		entry.ID, entry.Action, entry.Entity, entry.EntityID, entry.UserID, entry.Details,
	)
	return err
}

func (r *AuditRepo) Recent(ctx context.Context, limit int) ([]audit.Log, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, action, entity, entity_id, user_id, details, created_at
		FROM audit_log
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]audit.Log, 0)
	for rows.Next() {
		var e audit.Log
		var userID sql.NullString
		if err := rows.Scan(&e.ID, &e.Action, &e.Entity, &e.EntityID, &userID, &e.Details, &e.CreatedAt); err != nil {
			return nil, err
		}
		if userID.Valid {
			v := userID.String
			e.UserID = &v
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
