package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/mselser95/pmxt-go/pkg/types"
)

// Schema creates the snapshot table. One row per market per snapshot.
const Schema = `
	CREATE TABLE IF NOT EXISTS market_snapshots (
		snapshot_id     UUID             NOT NULL,
		exchange        TEXT             NOT NULL,
		taken_at        TIMESTAMPTZ      NOT NULL,
		market_id       TEXT             NOT NULL,
		title           TEXT             NOT NULL,
		category        TEXT,
		yes_price       DOUBLE PRECISION,
		no_price        DOUBLE PRECISION,
		volume_24h      DOUBLE PRECISION NOT NULL,
		liquidity       DOUBLE PRECISION NOT NULL,
		resolution_date TIMESTAMPTZ,
		PRIMARY KEY (snapshot_id, market_id)
	)
`

const insertSnapshotRow = `
	INSERT INTO market_snapshots (
		snapshot_id, exchange, taken_at, market_id, title, category,
		yes_price, no_price, volume_24h, liquidity, resolution_date
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11
	)
`

// PostgresStorage implements Storage using PostgreSQL.
type PostgresStorage struct {
	db     *sql.DB
	logger *zap.Logger
}

// PostgresConfig holds PostgreSQL configuration.
type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	SSLMode  string
	Logger   *zap.Logger
}

// NewPostgresStorage connects and makes sure the snapshot table exists.
func NewPostgresStorage(ctx context.Context, cfg *PostgresConfig) (*PostgresStorage, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	err = db.PingContext(ctx)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	p := &PostgresStorage{
		db:     db,
		logger: cfg.Logger,
	}
	if err := p.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}

	cfg.Logger.Info("postgres-storage-connected",
		zap.String("host", cfg.Host),
		zap.String("database", cfg.Database))

	return p, nil
}

// EnsureSchema creates the snapshot table when missing.
func (p *PostgresStorage) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("create market_snapshots: %w", err)
	}
	return nil
}

// StoreSnapshot inserts every market of snap in one transaction.
func (p *PostgresStorage) StoreSnapshot(ctx context.Context, snap *Snapshot) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		// No-op after Commit.
		_ = tx.Rollback()
	}()

	stmt, err := tx.PrepareContext(ctx, insertSnapshotRow)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i := range snap.Markets {
		m := &snap.Markets[i]
		_, err := stmt.ExecContext(ctx,
			snap.ID.String(),
			snap.Exchange,
			snap.TakenAt,
			m.MarketID,
			m.Title,
			nullString(m.Category),
			outcomePrice(m.Yes),
			outcomePrice(m.No),
			m.Volume24h,
			m.Liquidity,
			sql.NullTime{Time: m.ResolutionDate, Valid: m.HasResolutionDate()},
		)
		if err != nil {
			return fmt.Errorf("insert market %s: %w", m.MarketID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}

	p.logger.Debug("snapshot-stored",
		zap.String("snapshot-id", snap.ID.String()),
		zap.String("exchange", snap.Exchange),
		zap.Int("market-count", len(snap.Markets)))

	return nil
}

// Close closes the database connection.
func (p *PostgresStorage) Close() error {
	p.logger.Info("closing-postgres-storage")
	return p.db.Close()
}

func outcomePrice(o *types.MarketOutcome) sql.NullFloat64 {
	if o == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: o.Price, Valid: true}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
