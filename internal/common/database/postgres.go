package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"growth-forecast/internal/common/config"
)

// PostgresClient wraps the SQL database connection
type PostgresClient struct {
	DB *sql.DB
}

// NewPostgres opens a pooled lib/pq connection. It does not dial until first use.
func NewPostgres(cfg config.PostgresConfig) (*PostgresClient, error) {
	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxIdle)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return &PostgresClient{DB: db}, nil
}

func (c *PostgresClient) Ping(ctx context.Context) error {
	return c.DB.PingContext(ctx)
}

func (c *PostgresClient) Close() error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}

// EnsurePredictionLogTable creates the interaction log table when it is missing.
func EnsurePredictionLogTable(ctx context.Context, db *sql.DB, table string) error {
	stmt := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id BIGSERIAL PRIMARY KEY,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	owner_id TEXT,
	display_name TEXT,
	purchase_source TEXT,
	has_purchase_experience TEXT,
	breed TEXT,
	father_breed TEXT,
	mother_breed TEXT,
	gender TEXT,
	birth_date DATE,
	current_weight DOUBLE PRECISION,
	birth_weight DOUBLE PRECISION,
	past_weight_1_date DATE,
	past_weight_1_value DOUBLE PRECISION,
	past_weight_2_date DATE,
	past_weight_2_value DOUBLE PRECISION,
	mother_adult_weight DOUBLE PRECISION,
	father_adult_weight DOUBLE PRECISION,
	current_weight_verified BOOLEAN DEFAULT false,
	mother_weight_verified BOOLEAN DEFAULT false,
	father_weight_verified BOOLEAN DEFAULT false,
	prediction_started_at TIMESTAMPTZ,
	predicted_weight DOUBLE PRECISION,
	predicted_length DOUBLE PRECISION,
	predicted_height DOUBLE PRECISION,
	weight_grade TEXT,
	weight_category TEXT,
	prediction_completed_at TIMESTAMPTZ,
	processing_time_ms BIGINT,
	satisfaction_rating TEXT,
	satisfaction_rated_at TIMESTAMPTZ
)`, pq.QuoteIdentifier(table))

	if _, err := db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("create table %s: %w", table, err)
	}
	return nil
}
