package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	pgxpoolNewWithConfig = pgxpool.NewWithConfig
	pingPool             = func(ctx context.Context, p *pgxpool.Pool) error { return p.Ping(ctx) }
)

// NewPgxPool 建立連線池並確認資料庫可連線；maxConns <= 0 時沿用 pgxpool 預設
func NewPgxPool(ctx context.Context, url string, maxConns int32) (DB, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("NewPgxPool: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	pool, err := pgxpoolNewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("NewPgxPool: %w", err)
	}
	if err := pingPool(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("NewPgxPool: %w", err)
	}
	return pool, nil
}
