package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sigma-teacher/tutor/internal/tutor"
)

const dbTimeout = 5 * time.Second

// PostgresStore is a PostgreSQL-backed SessionStore. Models and history are
// kept as text blobs in tutoring_sessions.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a PostgreSQL-backed session store.
func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Load(ctx context.Context, id string) (*Session, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var r sessionRecord
	err := s.pool.QueryRow(ctx,
		`SELECT id, domain_model, student_model, history, active_topic, status, created_at, updated_at
		 FROM tutoring_sessions
		 WHERE id = $1`,
		id,
	).Scan(&r.ID, &r.Domain, &r.Student, &r.History, &r.ActiveTopic, &r.Status, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
		}
		return nil, fmt.Errorf("load session: %w", err)
	}
	return r.decode()
}

func (s *PostgresStore) Save(ctx context.Context, sess *Session) error {
	if sess.ID == "" {
		return fmt.Errorf("session id is required")
	}
	r, err := encodeRecord(sess)
	if err != nil {
		return err
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	if r.UpdatedAt.IsZero() {
		r.UpdatedAt = r.CreatedAt
	}

	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	_, err = s.pool.Exec(ctx,
		`INSERT INTO tutoring_sessions (id, domain_model, student_model, history, active_topic, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (id) DO UPDATE SET
		   domain_model = EXCLUDED.domain_model,
		   student_model = EXCLUDED.student_model,
		   history = EXCLUDED.history,
		   active_topic = EXCLUDED.active_topic,
		   status = EXCLUDED.status,
		   updated_at = EXCLUDED.updated_at`,
		r.ID, r.Domain, r.Student, r.History, r.ActiveTopic, r.Status, r.CreatedAt, r.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// List returns every session, newest first.
func (s *PostgresStore) List(ctx context.Context) ([]SessionSummary, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx,
		`SELECT id, active_topic, status, student_model, created_at, updated_at
		 FROM tutoring_sessions
		 ORDER BY created_at DESC, id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	out := []SessionSummary{}
	for rows.Next() {
		var (
			sum     SessionSummary
			status  string
			student string
		)
		if err := rows.Scan(&sum.ID, &sum.ActiveTopic, &status, &student, &sum.CreatedAt, &sum.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sum.Status = decodeStatus(status)
		if sm, err := decodeStudent([]byte(student), tutor.DomainModel{}); err == nil {
			sum.Progress = sm.OverallProgress
		}
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return out, nil
}
