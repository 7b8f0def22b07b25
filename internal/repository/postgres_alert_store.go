package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"QuantPulse/internal/domain/models"
)

// PGAlertStore implements AlertStore over Postgres.
type PGAlertStore struct {
	pool *pgxpool.Pool
}

func NewPGAlertStore(pool *pgxpool.Pool) *PGAlertStore {
	return &PGAlertStore{pool: pool}
}

func (s *PGAlertStore) Insert(ctx context.Context, a *models.RiskAlert) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO risk_alerts (id, portfolio_id, kind, severity, message, threshold, current_value, triggered_at, acknowledged)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		a.ID, a.PortfolioID, a.Kind, a.Severity, a.Message,
		a.Threshold, a.CurrentValue, a.TriggeredAt, a.Acknowledged)
	if err != nil {
		return fmt.Errorf("insert risk alert: %w", err)
	}
	return nil
}

func (s *PGAlertStore) List(ctx context.Context, portfolioID string, unackedOnly bool) ([]models.RiskAlert, error) {
	q := `SELECT id, portfolio_id, kind, severity, message, threshold, current_value, triggered_at, acknowledged
	      FROM risk_alerts WHERE portfolio_id = $1`
	if unackedOnly {
		q += ` AND NOT acknowledged`
	}
	q += ` ORDER BY triggered_at DESC`

	rows, err := s.pool.Query(ctx, q, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("list risk alerts: %w", err)
	}
	defer rows.Close()

	var out []models.RiskAlert
	for rows.Next() {
		var a models.RiskAlert
		if err := rows.Scan(&a.ID, &a.PortfolioID, &a.Kind, &a.Severity, &a.Message,
			&a.Threshold, &a.CurrentValue, &a.TriggeredAt, &a.Acknowledged); err != nil {
			return nil, fmt.Errorf("scan risk alert: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *PGAlertStore) Acknowledge(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `UPDATE risk_alerts SET acknowledged = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("acknowledge alert: %w", err)
	}
	return nil
}
