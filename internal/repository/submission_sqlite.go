package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aDarkMaker/JoinUs/internal/models"
)

// SQLiteSubmissionRepo keeps submissions in the submissions table created by
// db.Open. Arrival order is the autoincrement seq column.
type SQLiteSubmissionRepo struct {
	db *sql.DB
}

func NewSQLiteSubmissionRepo(db *sql.DB) *SQLiteSubmissionRepo {
	return &SQLiteSubmissionRepo{db: db}
}

func (r *SQLiteSubmissionRepo) List(ctx context.Context) ([]models.Submission, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, submitted_at, data FROM submissions ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("query submissions: %w", err)
	}
	defer rows.Close()

	subs := []models.Submission{}
	for rows.Next() {
		var (
			sub  models.Submission
			data string
		)
		if err := rows.Scan(&sub.ID, &sub.SubmittedAt, &data); err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		if err := json.Unmarshal([]byte(data), &sub.Values); err != nil {
			return nil, fmt.Errorf("decode submission %s: %w", sub.ID, err)
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

func (r *SQLiteSubmissionRepo) Append(ctx context.Context, sub models.Submission) error {
	return insertSubmission(ctx, r.db, sub)
}

func (r *SQLiteSubmissionRepo) Replace(ctx context.Context, index int, sub models.Submission) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var seq int64
	err = tx.QueryRowContext(ctx,
		`SELECT seq FROM submissions ORDER BY seq LIMIT 1 OFFSET ?`, index).Scan(&seq)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("replace submission: index %d out of range", index)
	}
	if err != nil {
		return fmt.Errorf("find submission %d: %w", index, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM submissions WHERE seq = ?`, seq); err != nil {
		return fmt.Errorf("delete submission %d: %w", seq, err)
	}
	if err := insertSubmission(ctx, tx, sub); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *SQLiteSubmissionRepo) Close() error {
	return r.db.Close()
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertSubmission(ctx context.Context, ex execer, sub models.Submission) error {
	values := sub.Values
	if values == nil {
		values = map[string]string{}
	}
	data, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("encode submission: %w", err)
	}
	_, err = ex.ExecContext(ctx,
		`INSERT INTO submissions (id, submitted_at, data) VALUES (?, ?, ?)`,
		sub.ID, sub.SubmittedAt, string(data))
	if err != nil {
		return fmt.Errorf("insert submission %s: %w", sub.ID, err)
	}
	return nil
}
