// Package postgres provides pgx-backed persistence for records and users.
package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/workoutlog/internal/domain"
	"example.com/workoutlog/internal/observability"
)

// RecordRepository stores records in the workouts table. All variants share
// one flat row shape; fields not applicable to a row's kind are NULL.
type RecordRepository struct {
	pool *pgxpool.Pool
}

// NewRecordRepository constructs a RecordRepository.
func NewRecordRepository(pool *pgxpool.Pool) *RecordRepository {
	return &RecordRepository{pool: pool}
}

const recordColumns = `id, owner, date, kind, exercise, sets, reps, weight, miles, duration_seconds`

// kindRankSQL orders weigh-ins before cardio before strength within a day.
const kindRankSQL = `CASE kind WHEN 'weigh_in' THEN 0 WHEN 'cardio' THEN 1 ELSE 2 END`

// ListByOwner returns the owner's records ordered by date, then kind.
func (r *RecordRepository) ListByOwner(ctx context.Context, owner string) ([]domain.Record, error) {
	query := `SELECT ` + recordColumns + ` FROM workouts WHERE owner=$1 ORDER BY date, ` + kindRankSQL + `, id`

	rows, err := r.pool.Query(ctx, query, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]domain.Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Create persists the record and returns it with its assigned id.
func (r *RecordRepository) Create(ctx context.Context, record domain.Record) (domain.Record, error) {
	const stmt = `INSERT INTO workouts (owner, date, kind, exercise, sets, reps, weight, miles, duration_seconds)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9) RETURNING id`

	err := r.pool.QueryRow(ctx, stmt,
		record.Owner,
		record.Date,
		string(record.Kind),
		record.Exercise,
		record.Sets,
		record.Reps,
		record.Weight,
		record.Miles,
		durationSeconds(record.Duration),
	).Scan(&record.ID)
	if err != nil {
		return domain.Record{}, err
	}

	observability.RecordPersisted(record.Kind, record.Date)
	return record, nil
}

// Get retrieves a record by id, returning nil when no row exists.
func (r *RecordRepository) Get(ctx context.Context, id int64) (*domain.Record, error) {
	query := `SELECT ` + recordColumns + ` FROM workouts WHERE id=$1`

	row := r.pool.QueryRow(ctx, query, id)
	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

// Update overwrites all mutable fields of the row matching record.ID and
// reports how many rows were affected.
func (r *RecordRepository) Update(ctx context.Context, record domain.Record) (int64, error) {
	const stmt = `UPDATE workouts
        SET date=$2, kind=$3, exercise=$4, sets=$5, reps=$6, weight=$7, miles=$8, duration_seconds=$9
        WHERE id=$1`

	tag, err := r.pool.Exec(ctx, stmt,
		record.ID,
		record.Date,
		string(record.Kind),
		record.Exercise,
		record.Sets,
		record.Reps,
		record.Weight,
		record.Miles,
		durationSeconds(record.Duration),
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// Delete removes the row and reports whether it existed.
func (r *RecordRepository) Delete(ctx context.Context, id int64) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM workouts WHERE id=$1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func scanRecord(row pgx.Row) (domain.Record, error) {
	var (
		rec     domain.Record
		kind    string
		durSecs *int64
	)
	if err := row.Scan(&rec.ID, &rec.Owner, &rec.Date, &kind, &rec.Exercise, &rec.Sets, &rec.Reps, &rec.Weight, &rec.Miles, &durSecs); err != nil {
		return domain.Record{}, err
	}
	rec.Kind = domain.Kind(kind)
	if durSecs != nil {
		d := domain.Duration(*durSecs)
		rec.Duration = &d
	}
	return rec, nil
}

func durationSeconds(d *domain.Duration) *int64 {
	if d == nil {
		return nil
	}
	secs := d.Seconds()
	return &secs
}
