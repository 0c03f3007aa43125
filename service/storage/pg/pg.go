package pg

import (
	"context"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
)

var (
	pgOnce sync.Once
	pool   *pgxpool.Pool
)

// InitPg 初始化 Postgres 连接池（单例）
func InitPg(ctx context.Context, databaseURL string) error {
	var initErr error
	pgOnce.Do(func() {
		p, err := pgxpool.New(ctx, databaseURL)
		if err != nil {
			initErr = errors.Wrap(err, "pgxpool new")
			return
		}
		if err := p.Ping(ctx); err != nil {
			initErr = errors.Wrap(err, "pg ping")
			return
		}
		pool = p
	})
	return initErr
}

// GetPool 获取连接池
func GetPool() *pgxpool.Pool {
	if pool == nil {
		panic("Postgres not initialized, call InitPg first")
	}
	return pool
}

func ClosePg() {
	if pool != nil {
		pool.Close()
	}
}
