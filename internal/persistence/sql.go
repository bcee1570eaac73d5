package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"growth-forecast/internal/common/errors"
	"growth-forecast/internal/models"
)

// SQLTier writes the same table as RESTTier over a direct database connection.
type SQLTier struct {
	db    *sql.DB
	table string
}

func NewSQLTier(db *sql.DB, table string) *SQLTier {
	return &SQLTier{db: db, table: table}
}

func (t *SQLTier) Tier() Tier { return TierSQL }

func (t *SQLTier) Attempt(ctx context.Context, rec *models.InteractionRecord) (string, error) {
	cols := insertColumns(rec)
	names := make([]string, len(cols))
	marks := make([]string, len(cols))
	args := make([]interface{}, len(cols))
	for i, c := range cols {
		names[i] = pq.QuoteIdentifier(c.name)
		marks[i] = fmt.Sprintf("$%d", i+1)
		args[i] = c.value
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING id",
		pq.QuoteIdentifier(t.table), strings.Join(names, ", "), strings.Join(marks, ", "))

	var id string
	if err := t.db.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		return "", fmt.Errorf("insert into %s: %w", t.table, err)
	}
	return id, nil
}

func (t *SQLTier) Update(ctx context.Context, key string, patch models.RecordPatch) error {
	cols := patchColumns(patch)
	if len(cols) == 0 {
		return nil
	}
	sets := make([]string, len(cols))
	args := make([]interface{}, 0, len(cols)+1)
	for i, c := range cols {
		sets[i] = fmt.Sprintf("%s = $%d", pq.QuoteIdentifier(c.name), i+1)
		args = append(args, c.value)
	}
	args = append(args, key)

	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = $%d",
		pq.QuoteIdentifier(t.table), strings.Join(sets, ", "), len(args))

	res, err := t.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update %s: %w", t.table, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errors.NewRecordNotFoundError(string(TierSQL) + ":" + key)
	}
	return nil
}
