package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/avast/retry-go/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/xela07ax/vizitka-api/internal/infra"
)

// Repo — единый репозиторий каталога поверх пула pgx.
// Методы по пользователям и визиткам разложены по файлам user_repo.go / card_repo.go.
type Repo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewRepo создает пул соединений и проверяет доступность базы.
// На старте база может подниматься параллельно (docker-compose),
// поэтому пингуем с бэкоффом, а не падаем с первой попытки.
func NewRepo(ctx context.Context, cfg infra.DatabaseConfig, logger *zap.Logger) (*Repo, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("postgres: invalid connection url: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to create pool: %w", err)
	}

	r := retry.New(
		retry.Context(ctx),
		retry.Attempts(5),
		retry.Delay(500*time.Millisecond),
		retry.OnRetry(func(n uint, err error) {
			logger.Warn("database ping failed, retrying",
				zap.Uint("attempt", n+1), zap.Error(err))
		}),
	)
	if err := r.Do(func() error {
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		return pool.Ping(pingCtx)
	}); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: database unreachable: %w", err)
	}

	return &Repo{pool: pool, logger: logger.Named("postgres")}, nil
}

// Close освобождает пул при остановке сервиса.
func (r *Repo) Close() {
	r.pool.Close()
}

// Ping проверяет доступность базы (healthcheck).
func (r *Repo) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}
