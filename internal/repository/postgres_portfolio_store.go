package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"QuantPulse/internal/domain/models"
)

// PGPortfolioStore implements PortfolioStore over Postgres. Weight
// maps and trade lists are persisted as JSONB on the rebalance row.
type PGPortfolioStore struct {
	pool *pgxpool.Pool
}

func NewPGPortfolioStore(pool *pgxpool.Pool) *PGPortfolioStore {
	return &PGPortfolioStore{pool: pool}
}

func (s *PGPortfolioStore) Create(ctx context.Context, p *models.Portfolio) error {
	perf, err := json.Marshal(p.Performance)
	if err != nil {
		return fmt.Errorf("marshal performance: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO portfolios (id, owner_id, name, initial_capital, current_value, strategy, performance, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		p.ID, p.OwnerID, p.Name, p.InitialCapital, p.CurrentValue, p.Strategy, perf, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("create portfolio: %w", err)
	}
	return nil
}

func (s *PGPortfolioStore) Get(ctx context.Context, id string) (*models.Portfolio, error) {
	var p models.Portfolio
	var perf []byte
	err := s.pool.QueryRow(ctx,
		`SELECT id, owner_id, name, initial_capital, current_value, strategy, performance, last_rebalanced_at, created_at
		 FROM portfolios WHERE id = $1`, id).
		Scan(&p.ID, &p.OwnerID, &p.Name, &p.InitialCapital, &p.CurrentValue,
			&p.Strategy, &perf, &p.LastRebalancedAt, &p.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("get portfolio %s: %w", id, err)
	}
	if len(perf) > 0 {
		if err := json.Unmarshal(perf, &p.Performance); err != nil {
			return nil, fmt.Errorf("decode performance: %w", err)
		}
	}
	return &p, nil
}

func (s *PGPortfolioStore) List(ctx context.Context, ownerID string) ([]models.Portfolio, error) {
	q := `SELECT id, owner_id, name, initial_capital, current_value, strategy, performance, last_rebalanced_at, created_at
	      FROM portfolios`
	args := []interface{}{}
	if ownerID != "" {
		q += ` WHERE owner_id = $1`
		args = append(args, ownerID)
	}
	q += ` ORDER BY created_at DESC`

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list portfolios: %w", err)
	}
	defer rows.Close()

	var out []models.Portfolio
	for rows.Next() {
		var p models.Portfolio
		var perf []byte
		if err := rows.Scan(&p.ID, &p.OwnerID, &p.Name, &p.InitialCapital, &p.CurrentValue,
			&p.Strategy, &perf, &p.LastRebalancedAt, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan portfolio: %w", err)
		}
		if len(perf) > 0 {
			if err := json.Unmarshal(perf, &p.Performance); err != nil {
				return nil, fmt.Errorf("decode performance: %w", err)
			}
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *PGPortfolioStore) Update(ctx context.Context, p *models.Portfolio) error {
	perf, err := json.Marshal(p.Performance)
	if err != nil {
		return fmt.Errorf("marshal performance: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`UPDATE portfolios
		 SET name = $2, initial_capital = $3, current_value = $4, strategy = $5, performance = $6
		 WHERE id = $1`,
		p.ID, p.Name, p.InitialCapital, p.CurrentValue, p.Strategy, perf)
	if err != nil {
		return fmt.Errorf("update portfolio: %w", err)
	}
	return nil
}

func (s *PGPortfolioStore) Delete(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM portfolios WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete portfolio: %w", err)
	}
	return nil
}

func (s *PGPortfolioStore) UpsertAsset(ctx context.Context, a *models.PortfolioAsset) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO portfolio_assets (portfolio_id, symbol, shares, weight, cost_basis, current_price, expected_return, volatility)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (portfolio_id, symbol) DO UPDATE
		 SET shares = EXCLUDED.shares, weight = EXCLUDED.weight, cost_basis = EXCLUDED.cost_basis,
		     current_price = EXCLUDED.current_price, expected_return = EXCLUDED.expected_return,
		     volatility = EXCLUDED.volatility`,
		a.PortfolioID, a.Symbol, a.Shares, a.Weight, a.CostBasis, a.CurrentPrice, a.ExpectedReturn, a.Volatility)
	if err != nil {
		return fmt.Errorf("upsert asset %s: %w", a.Symbol, err)
	}
	return nil
}

func (s *PGPortfolioStore) RemoveAsset(ctx context.Context, portfolioID, symbol string) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM portfolio_assets WHERE portfolio_id = $1 AND symbol = $2`, portfolioID, symbol)
	if err != nil {
		return fmt.Errorf("remove asset %s: %w", symbol, err)
	}
	return nil
}

func (s *PGPortfolioStore) GetAssets(ctx context.Context, portfolioID string) ([]models.PortfolioAsset, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT portfolio_id, symbol, shares, weight, cost_basis, current_price, expected_return, volatility
		 FROM portfolio_assets WHERE portfolio_id = $1 ORDER BY symbol`, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("get assets: %w", err)
	}
	defer rows.Close()

	var out []models.PortfolioAsset
	for rows.Next() {
		var a models.PortfolioAsset
		if err := rows.Scan(&a.PortfolioID, &a.Symbol, &a.Shares, &a.Weight,
			&a.CostBasis, &a.CurrentPrice, &a.ExpectedReturn, &a.Volatility); err != nil {
			return nil, fmt.Errorf("scan asset: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// ApplyRebalance writes the new weights, shares and the rebalance
// audit row in one transaction. Either everything commits or nothing
// does.
func (s *PGPortfolioStore) ApplyRebalance(ctx context.Context, r *models.Rebalance, weights map[string]float64, shares map[string]float64) error {
	prev, err := json.Marshal(r.PreviousWeights)
	if err != nil {
		return fmt.Errorf("marshal previous weights: %w", err)
	}
	next, err := json.Marshal(r.NewWeights)
	if err != nil {
		return fmt.Errorf("marshal new weights: %w", err)
	}
	trades, err := json.Marshal(r.Trades)
	if err != nil {
		return fmt.Errorf("marshal trades: %w", err)
	}
	perf, err := json.Marshal(r.Performance)
	if err != nil {
		return fmt.Errorf("marshal performance: %w", err)
	}

	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		for symbol, weight := range weights {
			if _, err := tx.Exec(ctx,
				`UPDATE portfolio_assets SET weight = $3, shares = COALESCE($4, shares)
				 WHERE portfolio_id = $1 AND symbol = $2`,
				r.PortfolioID, symbol, weight, nullableFloat(shares, symbol)); err != nil {
				return fmt.Errorf("update weight %s: %w", symbol, err)
			}
		}

		if _, err := tx.Exec(ctx,
			`INSERT INTO rebalances (id, portfolio_id, date, strategy, previous_weights, new_weights, trades, performance, reason)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			r.ID, r.PortfolioID, r.Date, r.Strategy, prev, next, trades, perf, r.Reason); err != nil {
			return fmt.Errorf("insert rebalance: %w", err)
		}

		if _, err := tx.Exec(ctx,
			`UPDATE portfolios SET strategy = $2, last_rebalanced_at = $3 WHERE id = $1`,
			r.PortfolioID, r.Strategy, r.Date); err != nil {
			return fmt.Errorf("stamp portfolio: %w", err)
		}
		return nil
	})
}

func (s *PGPortfolioStore) ListRebalances(ctx context.Context, portfolioID string, limit int) ([]models.Rebalance, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, portfolio_id, date, strategy, previous_weights, new_weights, trades, performance, reason
		 FROM rebalances WHERE portfolio_id = $1 ORDER BY date DESC LIMIT $2`, portfolioID, limit)
	if err != nil {
		return nil, fmt.Errorf("list rebalances: %w", err)
	}
	defer rows.Close()

	var out []models.Rebalance
	for rows.Next() {
		var r models.Rebalance
		var prev, next, trades, perf []byte
		if err := rows.Scan(&r.ID, &r.PortfolioID, &r.Date, &r.Strategy,
			&prev, &next, &trades, &perf, &r.Reason); err != nil {
			return nil, fmt.Errorf("scan rebalance: %w", err)
		}
		for _, pair := range []struct {
			raw  []byte
			dest interface{}
		}{
			{prev, &r.PreviousWeights},
			{next, &r.NewWeights},
			{trades, &r.Trades},
			{perf, &r.Performance},
		} {
			if len(pair.raw) == 0 {
				continue
			}
			if err := json.Unmarshal(pair.raw, pair.dest); err != nil {
				return nil, fmt.Errorf("decode rebalance: %w", err)
			}
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func nullableFloat(m map[string]float64, key string) *float64 {
	if v, ok := m[key]; ok {
		return &v
	}
	return nil
}
