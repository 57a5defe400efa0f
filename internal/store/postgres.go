package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/iwvelando/park-planner/pkg/constants"
	"go.uber.org/zap"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Postgres is a Store backed by PostgreSQL through the pgx driver.
type Postgres struct {
	*sqlStore
}

// NewPostgres connects to dsn and applies the schema.
func NewPostgres(ctx context.Context, logger *zap.Logger, dsn string) (*Postgres, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres store requires a dsn")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}

	p := &Postgres{sqlStore: &sqlStore{db: db, logger: logger, dialect: constants.StoreDriverPostgres}}
	if err := p.initSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	logger.Info("opened postgres store", zap.String("op", "store.NewPostgres"))
	return p, nil
}

var _ Store = (*Postgres)(nil)
