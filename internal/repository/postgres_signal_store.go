package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"QuantPulse/internal/domain/models"
)

// PGSignalStore implements SignalStore over Postgres. Layer scores and
// key factors are persisted as JSONB.
type PGSignalStore struct {
	pool *pgxpool.Pool
}

func NewPGSignalStore(pool *pgxpool.Pool) *PGSignalStore {
	return &PGSignalStore{pool: pool}
}

func (s *PGSignalStore) Insert(ctx context.Context, sig *models.Signal) error {
	layers, err := json.Marshal(sig.LayerScores)
	if err != nil {
		return fmt.Errorf("marshal layer scores: %w", err)
	}
	factors, err := json.Marshal(sig.KeyFactors)
	if err != nil {
		return fmt.Errorf("marshal key factors: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO signals
		   (id, symbol, signal_type, confidence, direction, price, target_price, stop_loss,
		    layer_scores, key_factors, risk_level, source, is_active, notified, expires_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		sig.ID, sig.Symbol, sig.SignalType, sig.Confidence, sig.Direction,
		sig.Price, sig.TargetPrice, sig.StopLoss,
		layers, factors, sig.RiskLevel, sig.Source,
		sig.IsActive, sig.Notified, sig.ExpiresAt, sig.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert signal: %w", err)
	}
	return nil
}

func (s *PGSignalStore) List(ctx context.Context, symbol string, activeOnly bool, limit int) ([]models.Signal, error) {
	if limit <= 0 {
		limit = 100
	}

	q := `SELECT id, symbol, signal_type, confidence, direction, price, target_price, stop_loss,
	             layer_scores, key_factors, risk_level, source, is_active, notified, expires_at, created_at
	      FROM signals WHERE 1=1`
	args := []interface{}{}
	idx := 1
	if symbol != "" {
		q += fmt.Sprintf(" AND symbol = $%d", idx)
		args = append(args, symbol)
		idx++
	}
	if activeOnly {
		q += " AND is_active"
	}
	q += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", idx)
	args = append(args, limit)

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list signals: %w", err)
	}
	defer rows.Close()

	var out []models.Signal
	for rows.Next() {
		var sig models.Signal
		var layers, factors []byte
		if err := rows.Scan(&sig.ID, &sig.Symbol, &sig.SignalType, &sig.Confidence, &sig.Direction,
			&sig.Price, &sig.TargetPrice, &sig.StopLoss,
			&layers, &factors, &sig.RiskLevel, &sig.Source,
			&sig.IsActive, &sig.Notified, &sig.ExpiresAt, &sig.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan signal: %w", err)
		}
		if len(layers) > 0 {
			if err := json.Unmarshal(layers, &sig.LayerScores); err != nil {
				return nil, fmt.Errorf("decode layer scores: %w", err)
			}
		}
		if len(factors) > 0 {
			if err := json.Unmarshal(factors, &sig.KeyFactors); err != nil {
				return nil, fmt.Errorf("decode key factors: %w", err)
			}
		}
		out = append(out, sig)
	}
	return out, rows.Err()
}

func (s *PGSignalStore) MarkNotified(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `UPDATE signals SET notified = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("mark notified: %w", err)
	}
	return nil
}

func (s *PGSignalStore) ExpireStale(ctx context.Context, now time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE signals SET is_active = FALSE WHERE is_active AND expires_at < $1`, now)
	if err != nil {
		return 0, fmt.Errorf("expire signals: %w", err)
	}
	return tag.RowsAffected(), nil
}
