package repository

import (
	"context"
	"database/sql"
	"fmt"
)

type MySQLCounterRepository struct {
	db *sql.DB
}

func NewMySQLCounterRepository(db *sql.DB) *MySQLCounterRepository {
	return &MySQLCounterRepository{db: db}
}

// NextSequence atomically increments and returns the counter for the given
// day key. The LAST_INSERT_ID(expr) trick makes the increment and the read
// a single statement, so concurrent callers can never observe the same
// value: two creators racing on one day each get their own sequence.
func (r *MySQLCounterRepository) NextSequence(ctx context.Context, dayKey string) (int, error) {
	query := `
		INSERT INTO order_counters (day_key, seq)
		VALUES (?, 1)
		ON DUPLICATE KEY UPDATE seq = LAST_INSERT_ID(seq + 1)
	`

	result, err := r.db.ExecContext(ctx, query, dayKey)
	if err != nil {
		return 0, fmt.Errorf("incrementing order counter: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("getting rows affected: %w", err)
	}

	// One affected row means the insert created the day's counter at 1;
	// two means the update path ran and LAST_INSERT_ID holds the value.
	if rowsAffected == 1 {
		return 1, nil
	}

	seq, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading incremented counter: %w", err)
	}
	return int(seq), nil
}
