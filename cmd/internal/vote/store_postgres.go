package vote

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const pgUniqueViolation = "23505"

// PostgresStore persists sessions and ballots in PostgreSQL.
type PostgresStore struct {
	pool   *pgxpool.Pool
	schema string
}

// StoreOption configures PostgresStore.
type StoreOption func(*PostgresStore) error

// WithSchema sets the DB schema used by the store (default: "profrank").
func WithSchema(schema string) StoreOption {
	return func(s *PostgresStore) error {
		schema = strings.TrimSpace(schema)
		if schema == "" {
			return ErrInvalidInput
		}
		s.schema = schema
		return nil
	}
}

// NewPostgresStore constructs a PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool, opts ...StoreOption) (*PostgresStore, error) {
	st := &PostgresStore{pool: pool, schema: "profrank"}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(st); err != nil {
			return nil, err
		}
	}
	if st.pool == nil {
		return nil, ErrInvalidInput
	}
	return st, nil
}

// Close is a noop; the pool is owned by the caller.
func (s *PostgresStore) Close() error { return nil }

// SchemaSQL returns idempotent DDL for the voting tables in schema.
func SchemaSQL(schema string) string {
	sessions := pgIdent(schema, "sessions")
	ballots := pgIdent(schema, "ballots")
	return fmt.Sprintf(`
CREATE SCHEMA IF NOT EXISTS %s;

CREATE TABLE IF NOT EXISTS %s (
  id TEXT PRIMARY KEY,
  token_hash TEXT NOT NULL,
  division_code TEXT NOT NULL,
  issued_at TIMESTAMPTZ NOT NULL,
  expires_at TIMESTAMPTZ NOT NULL,
  status TEXT NOT NULL DEFAULT 'active',
  consumed_at TIMESTAMPTZ NULL,
  CONSTRAINT chk_sessions_id_ulid_len CHECK (char_length(id) = 26),
  CONSTRAINT chk_sessions_token_hash_len CHECK (char_length(token_hash) = 64),
  CONSTRAINT chk_sessions_status CHECK (status IN ('active', 'consumed')),
  CONSTRAINT chk_sessions_window CHECK (expires_at > issued_at)
);

CREATE UNIQUE INDEX IF NOT EXISTS uq_sessions_token_hash ON %s (token_hash);
CREATE INDEX IF NOT EXISTS ix_sessions_division ON %s (division_code, issued_at);

CREATE TABLE IF NOT EXISTS %s (
  id TEXT PRIMARY KEY,
  token_hash TEXT NOT NULL,
  division_code TEXT NOT NULL,
  candidate_ids TEXT[] NOT NULL,
  submitted_at TIMESTAMPTZ NOT NULL,
  CONSTRAINT chk_ballots_id_ulid_len CHECK (char_length(id) = 26),
  CONSTRAINT chk_ballots_nonempty CHECK (cardinality(candidate_ids) > 0)
);

CREATE UNIQUE INDEX IF NOT EXISTS uq_ballots_token_hash ON %s (token_hash);
CREATE INDEX IF NOT EXISTS ix_ballots_division ON %s (division_code, submitted_at, id);
`, pgx.Identifier{schema}.Sanitize(), sessions, sessions, sessions, ballots, ballots, ballots)
}

// Migrate applies SchemaSQL.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if s == nil || s.pool == nil {
		return ErrInvalidInput
	}
	_, err := s.pool.Exec(ctx, SchemaSQL(s.schema))
	return err
}

func (s *PostgresStore) CreateSession(ctx context.Context, in SessionRecord) (Session, error) {
	if s == nil || s.pool == nil {
		return Session{}, ErrInvalidInput
	}
	if err := ctx.Err(); err != nil {
		return Session{}, err
	}
	if strings.TrimSpace(in.ID) == "" || strings.TrimSpace(in.TokenHash) == "" || in.DivisionCode == "" {
		return Session{}, ErrInvalidInput
	}

	sessions := pgIdent(s.schema, "sessions")
	_, err := s.pool.Exec(ctx,
		`INSERT INTO `+sessions+` (id, token_hash, division_code, issued_at, expires_at, status)
		 VALUES ($1, $2, $3, $4, $5, 'active')`,
		in.ID, in.TokenHash, in.DivisionCode, in.IssuedAt, in.ExpiresAt,
	)
	if err != nil {
		return Session{}, fmt.Errorf("create session: %w", err)
	}
	return Session{
		ID:           in.ID,
		DivisionCode: in.DivisionCode,
		IssuedAt:     in.IssuedAt,
		ExpiresAt:    in.ExpiresAt,
		Status:       StatusActive,
	}, nil
}

func (s *PostgresStore) GetSession(ctx context.Context, tokenHash string) (Session, error) {
	if s == nil || s.pool == nil {
		return Session{}, ErrInvalidInput
	}
	if err := ctx.Err(); err != nil {
		return Session{}, err
	}
	return getSession(ctx, s.pool, s.schema, tokenHash)
}

type pgQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func getSession(ctx context.Context, q pgQuerier, schema, tokenHash string) (Session, error) {
	tokenHash = strings.TrimSpace(tokenHash)
	if tokenHash == "" {
		return Session{}, ErrInvalidToken
	}

	sessions := pgIdent(schema, "sessions")
	var (
		out    Session
		status string
	)
	err := q.QueryRow(ctx,
		`SELECT id, division_code, issued_at, expires_at, status, consumed_at
		   FROM `+sessions+`
		  WHERE token_hash = $1`,
		tokenHash,
	).Scan(&out.ID, &out.DivisionCode, &out.IssuedAt, &out.ExpiresAt, &status, &out.ConsumedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Session{}, ErrInvalidToken
		}
		return Session{}, fmt.Errorf("get session: %w", err)
	}
	out.IssuedAt = out.IssuedAt.UTC()
	out.ExpiresAt = out.ExpiresAt.UTC()
	if out.ConsumedAt != nil {
		at := out.ConsumedAt.UTC()
		out.ConsumedAt = &at
	}
	out.Status = Status(status)
	return out, nil
}

// CommitBallot consumes the session with a conditional UPDATE and inserts the
// ballot in the same transaction. Concurrent submissions for one token race on
// the UPDATE row lock; the loser sees zero rows and is classified.
func (s *PostgresStore) CommitBallot(ctx context.Context, in BallotRecord) (Ballot, error) {
	if s == nil || s.pool == nil {
		return Ballot{}, ErrInvalidInput
	}
	if err := ctx.Err(); err != nil {
		return Ballot{}, err
	}
	if in.ID == "" || in.TokenHash == "" || len(in.OrderedCandidateIDs) == 0 {
		return Ballot{}, ErrInvalidInput
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return Ballot{}, fmt.Errorf("commit ballot: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	sessions := pgIdent(s.schema, "sessions")
	ballots := pgIdent(s.schema, "ballots")

	tag, err := tx.Exec(ctx,
		`UPDATE `+sessions+`
		    SET status = 'consumed',
		        consumed_at = $1
		  WHERE token_hash = $2
		    AND status = 'active'
		    AND division_code = $3
		    AND expires_at >= $1`,
		in.SubmittedAt, in.TokenHash, in.DivisionCode,
	)
	if err != nil {
		return Ballot{}, fmt.Errorf("commit ballot: consume session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		sess, err := getSession(ctx, tx, s.schema, in.TokenHash)
		if err != nil {
			return Ballot{}, err
		}
		if err := checkConsumable(sess, in); err != nil {
			return Ballot{}, err
		}
		return Ballot{}, ErrDuplicateVote
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO `+ballots+` (id, token_hash, division_code, candidate_ids, submitted_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		in.ID, in.TokenHash, in.DivisionCode, in.OrderedCandidateIDs, in.SubmittedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return Ballot{}, ErrDuplicateVote
		}
		return Ballot{}, fmt.Errorf("commit ballot: insert: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return Ballot{}, fmt.Errorf("commit ballot: %w", err)
	}
	return Ballot{
		ID:                  in.ID,
		TokenHash:           in.TokenHash,
		DivisionCode:        in.DivisionCode,
		OrderedCandidateIDs: append([]string(nil), in.OrderedCandidateIDs...),
		SubmittedAt:         in.SubmittedAt,
	}, nil
}

// ListBallots reads with a plain snapshot query; it never blocks writers.
func (s *PostgresStore) ListBallots(ctx context.Context, divisionCode string) ([]Ballot, error) {
	if s == nil || s.pool == nil {
		return nil, ErrInvalidInput
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ballots := pgIdent(s.schema, "ballots")
	rows, err := s.pool.Query(ctx,
		`SELECT id, token_hash, division_code, candidate_ids, submitted_at
		   FROM `+ballots+`
		  WHERE division_code = $1
		  ORDER BY submitted_at, id`,
		divisionCode,
	)
	if err != nil {
		return nil, fmt.Errorf("list ballots: %w", err)
	}
	defer rows.Close()

	var out []Ballot
	for rows.Next() {
		var b Ballot
		if err := rows.Scan(&b.ID, &b.TokenHash, &b.DivisionCode, &b.OrderedCandidateIDs, &b.SubmittedAt); err != nil {
			return nil, fmt.Errorf("list ballots: scan: %w", err)
		}
		b.SubmittedAt = b.SubmittedAt.UTC()
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list ballots: %w", err)
	}
	return out, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

func pgIdent(schema, table string) string {
	return pgx.Identifier{schema, table}.Sanitize()
}
