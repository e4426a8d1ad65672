package verdict

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// DBRecorder stores records in the verdicts table
type DBRecorder struct {
	db *sqlx.DB
}

func NewDBRecorder(db *sqlx.DB) *DBRecorder {
	return &DBRecorder{db: db}
}

func (recorder *DBRecorder) Record(ctx context.Context, record Record) error {
	if _, err := recorder.db.NamedExecContext(ctx,
		`INSERT INTO verdicts (matcher, negated, model, received, expected, pass, score, error_message, test_name, recorded_at)
		VALUES (:matcher, :negated, :model, :received, :expected, :pass, :score, :error_message, :test_name, :recorded_at)`,
		record); err != nil {
		return fmt.Errorf("db.NamedExecContext(insert verdict) > %w", err)
	}
	return nil
}

func (recorder *DBRecorder) FindAll(ctx context.Context) ([]Record, error) {
	var records []Record
	if err := recorder.db.SelectContext(ctx, &records, "SELECT * FROM verdicts ORDER BY recorded_at, id"); err != nil {
		return nil, fmt.Errorf("db.SelectContext(verdicts) > %w", err)
	}
	return records, nil
}

// FindByMatcher returns the records of one matcher, newest first.
// A limit of 0 or less returns all of them.
func (recorder *DBRecorder) FindByMatcher(ctx context.Context, matcher string, limit int) ([]Record, error) {
	query := "SELECT * FROM verdicts WHERE matcher = ? ORDER BY recorded_at DESC, id DESC"
	args := []any{matcher}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	var records []Record
	if err := recorder.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, fmt.Errorf("db.SelectContext(verdicts by matcher) > %w", err)
	}
	return records, nil
}

func (recorder *DBRecorder) Close() error {
	return recorder.db.Close()
}
