package lecture

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const dbTimeout = 5 * time.Second

// PostgresStore keeps lectures in the lectures table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a PostgreSQL-backed lecture store.
func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Create(ctx context.Context, l Lecture) (Lecture, error) {
	l, err := prepare(l)
	if err != nil {
		return Lecture{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	_, err = s.pool.Exec(ctx,
		`INSERT INTO lectures (id, title, transcript, created_at) VALUES ($1, $2, $3, $4)`,
		l.ID, l.Title, l.Transcript, l.CreatedAt,
	)
	if err != nil {
		return Lecture{}, fmt.Errorf("insert lecture: %w", err)
	}
	return l, nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (Lecture, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var l Lecture
	err := s.pool.QueryRow(ctx,
		`SELECT id, title, transcript, created_at FROM lectures WHERE id = $1`,
		id,
	).Scan(&l.ID, &l.Title, &l.Transcript, &l.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Lecture{}, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return Lecture{}, fmt.Errorf("get lecture: %w", err)
	}
	return l, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]Lecture, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx,
		`SELECT id, title, transcript, created_at FROM lectures ORDER BY created_at DESC, id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("query lectures: %w", err)
	}
	defer rows.Close()

	out := []Lecture{}
	for rows.Next() {
		var l Lecture
		if err := rows.Scan(&l.ID, &l.Title, &l.Transcript, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan lecture: %w", err)
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate lectures: %w", err)
	}
	return out, nil
}
