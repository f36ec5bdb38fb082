package submissions

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresRepository stores submissions in the relational database.
type PostgresRepository struct {
	pool querier
}

// NewPostgresRepository initializes a repo backed by a pgx pool.
func NewPostgresRepository(pool querier) *PostgresRepository {
	if pool == nil {
		panic("submissions: pgx pool required")
	}
	return &PostgresRepository{pool: pool}
}

// Create inserts a new row and fills in CreatedAt.
func (r *PostgresRepository) Create(ctx context.Context, sub *Submission) error {
	fields, err := json.Marshal(sub.Fields)
	if err != nil {
		return fmt.Errorf("submissions: encode fields: %w", err)
	}

	query := `
		INSERT INTO submissions (id, kind, email, fields)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`
	if err := r.pool.QueryRow(ctx, query,
		sub.ID,
		string(sub.Kind),
		sub.Email,
		fields,
	).Scan(&sub.CreatedAt); err != nil {
		return fmt.Errorf("submissions: insert failed: %w", err)
	}
	return nil
}

// GetByID fetches one submission.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Submission, error) {
	query := `
		SELECT id, kind, email, fields, created_at
		FROM submissions
		WHERE id = $1
	`
	sub, err := scanSubmission(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("submissions: select failed: %w", err)
	}
	return sub, nil
}

// List returns submissions newest first.
func (r *PostgresRepository) List(ctx context.Context, filter ListFilter) ([]*Submission, error) {
	filter = filter.normalized()
	query := `
		SELECT id, kind, email, fields, created_at
		FROM submissions
		WHERE ($1 = '' OR kind = $1)
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3
	`
	rows, err := r.pool.Query(ctx, query, string(filter.Kind), filter.Limit, filter.Offset)
	if err != nil {
		return nil, fmt.Errorf("submissions: list failed: %w", err)
	}
	defer rows.Close()

	out := []*Submission{}
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("submissions: scan failed: %w", err)
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}

func scanSubmission(row pgx.Row) (*Submission, error) {
	var (
		sub    Submission
		kind   string
		fields []byte
	)
	if err := row.Scan(&sub.ID, &kind, &sub.Email, &fields, &sub.CreatedAt); err != nil {
		return nil, err
	}
	sub.Kind = Kind(kind)

	dec := json.NewDecoder(bytes.NewReader(fields))
	dec.UseNumber()
	if err := dec.Decode(&sub.Fields); err != nil {
		return nil, fmt.Errorf("decode fields: %w", err)
	}
	return &sub, nil
}
