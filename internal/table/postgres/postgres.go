// Package postgres keeps append-only tables in a single postgres relation keyed by table id.
package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/diagnosis/spa-intake/internal/table"
)

const schema = `CREATE TABLE IF NOT EXISTS table_rows (
  id         BIGSERIAL PRIMARY KEY,
  table_id   TEXT        NOT NULL,
  cells      TEXT[]      NOT NULL,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS table_rows_table_id_idx ON table_rows (table_id, id);`

type Backend struct{ pool *pgxpool.Pool }

func New(pool *pgxpool.Pool) *Backend { return &Backend{pool: pool} }

// Migrate creates the rows relation if it does not exist yet.
func (b *Backend) Migrate(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	_, err := b.pool.Exec(ctx, schema)
	return err
}

// Append inserts the row and reports its 1-based position within the table.
func (b *Backend) Append(ctx context.Context, tableID string, row table.Row) (table.AppendResult, error) {
	const q = `WITH ins AS (
    INSERT INTO table_rows (table_id, cells) VALUES ($1, $2) RETURNING id
  )
  SELECT ins.id, (SELECT count(*) FROM table_rows t WHERE t.table_id = $1 AND t.id < ins.id) + 1
  FROM ins`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var id, pos int64
	if err := b.pool.QueryRow(ctx, q, tableID, []string(row)).Scan(&id, &pos); err != nil {
		return table.AppendResult{}, err
	}
	return table.AppendResult{RowNumber: pos}, nil
}

func (b *Backend) ReadAll(ctx context.Context, tableID string) ([]table.Row, error) {
	const q = `SELECT cells FROM table_rows WHERE table_id = $1 ORDER BY id`

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := b.pool.Query(ctx, q, tableID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []table.Row{}
	for rows.Next() {
		var cells []string
		if err := rows.Scan(&cells); err != nil {
			return nil, err
		}
		out = append(out, table.Row(cells))
	}
	return out, rows.Err()
}
