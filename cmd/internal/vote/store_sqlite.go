package vote

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS sessions (
	   id TEXT PRIMARY KEY,
	   token_hash TEXT NOT NULL UNIQUE,
	   division_code TEXT NOT NULL,
	   issued_at INTEGER NOT NULL,
	   expires_at INTEGER NOT NULL,
	   status TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'consumed')),
	   consumed_at INTEGER NULL
	 )`,
	`CREATE INDEX IF NOT EXISTS ix_sessions_division ON sessions (division_code, issued_at)`,
	`CREATE TABLE IF NOT EXISTS ballots (
	   id TEXT PRIMARY KEY,
	   token_hash TEXT NOT NULL UNIQUE,
	   division_code TEXT NOT NULL,
	   candidate_ids TEXT NOT NULL,
	   submitted_at INTEGER NOT NULL
	 )`,
	`CREATE INDEX IF NOT EXISTS ix_ballots_division ON ballots (division_code, submitted_at, id)`,
}

// SQLiteStore persists sessions and ballots in a single SQLite file.
// Writes go through a one-connection handle so they serialize; reads use a
// separate pool and, with WAL, never wait on the writer.
type SQLiteStore struct {
	writer *sql.DB
	reader *sql.DB
}

func toMicros(t time.Time) int64 { return t.UTC().UnixMicro() }

func fromMicros(v int64) time.Time { return time.UnixMicro(v).UTC() }

// OpenSQLite opens (creating if needed) a SQLite store at path and applies the schema.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	if isSQLiteMemoryPath(path) {
		return nil, ErrSQLiteMemoryPath
	}
	dsn := filepath.Clean(path) +
		"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=synchronous(NORMAL)"

	writer, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	writer.SetMaxOpenConns(1)
	if err := writer.Ping(); err != nil {
		_ = writer.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	for _, stmt := range sqliteSchema {
		if _, err := writer.Exec(stmt); err != nil {
			_ = writer.Close()
			return nil, fmt.Errorf("apply sqlite schema: %w", err)
		}
	}

	reader, err := sql.Open("sqlite", dsn)
	if err != nil {
		_ = writer.Close()
		return nil, fmt.Errorf("open sqlite reader: %w", err)
	}
	return &SQLiteStore{writer: writer, reader: reader}, nil
}

// ErrSQLiteMemoryPath is returned by OpenSQLite for in-memory databases. The
// writer and reader handles would each get their own empty database.
var ErrSQLiteMemoryPath = errors.New("sqlite: in-memory databases are not supported, use a file path or the memory store")

func isSQLiteMemoryPath(path string) bool {
	p := strings.TrimSpace(path)
	return p == ":memory:" || strings.HasPrefix(p, "file::memory:") || strings.Contains(p, "mode=memory")
}

// Close closes both handles.
func (s *SQLiteStore) Close() error {
	if s == nil {
		return nil
	}
	return errors.Join(s.reader.Close(), s.writer.Close())
}

// Ping checks the writer handle.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.writer.PingContext(ctx)
}

func (s *SQLiteStore) CreateSession(ctx context.Context, in SessionRecord) (Session, error) {
	if err := ctx.Err(); err != nil {
		return Session{}, err
	}
	if strings.TrimSpace(in.ID) == "" || strings.TrimSpace(in.TokenHash) == "" || in.DivisionCode == "" {
		return Session{}, ErrInvalidInput
	}

	_, err := s.writer.ExecContext(ctx,
		`INSERT INTO sessions (id, token_hash, division_code, issued_at, expires_at, status)
		 VALUES (?, ?, ?, ?, ?, 'active')`,
		in.ID, in.TokenHash, in.DivisionCode, toMicros(in.IssuedAt), toMicros(in.ExpiresAt),
	)
	if err != nil {
		return Session{}, fmt.Errorf("create session: %w", err)
	}
	return Session{
		ID:           in.ID,
		DivisionCode: in.DivisionCode,
		IssuedAt:     in.IssuedAt.UTC(),
		ExpiresAt:    in.ExpiresAt.UTC(),
		Status:       StatusActive,
	}, nil
}

type sqlQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *SQLiteStore) GetSession(ctx context.Context, tokenHash string) (Session, error) {
	if err := ctx.Err(); err != nil {
		return Session{}, err
	}
	return sqliteGetSession(ctx, s.reader, tokenHash)
}

func sqliteGetSession(ctx context.Context, q sqlQuerier, tokenHash string) (Session, error) {
	var (
		out                 Session
		status              string
		issuedAt, expiresAt int64
		consumedAt          sql.NullInt64
	)
	err := q.QueryRowContext(ctx,
		`SELECT id, division_code, issued_at, expires_at, status, consumed_at
		   FROM sessions WHERE token_hash = ?`,
		tokenHash,
	).Scan(&out.ID, &out.DivisionCode, &issuedAt, &expiresAt, &status, &consumedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Session{}, ErrInvalidToken
		}
		return Session{}, fmt.Errorf("get session: %w", err)
	}
	out.IssuedAt = fromMicros(issuedAt)
	out.ExpiresAt = fromMicros(expiresAt)
	out.Status = Status(status)
	if consumedAt.Valid {
		at := fromMicros(consumedAt.Int64)
		out.ConsumedAt = &at
	}
	return out, nil
}

func (s *SQLiteStore) CommitBallot(ctx context.Context, in BallotRecord) (Ballot, error) {
	if err := ctx.Err(); err != nil {
		return Ballot{}, err
	}
	if in.ID == "" || in.TokenHash == "" || len(in.OrderedCandidateIDs) == 0 {
		return Ballot{}, ErrInvalidInput
	}
	ids, err := json.Marshal(in.OrderedCandidateIDs)
	if err != nil {
		return Ballot{}, fmt.Errorf("commit ballot: encode candidates: %w", err)
	}

	tx, err := s.writer.BeginTx(ctx, nil)
	if err != nil {
		return Ballot{}, fmt.Errorf("commit ballot: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	at := toMicros(in.SubmittedAt)
	res, err := tx.ExecContext(ctx,
		`UPDATE sessions
		    SET status = 'consumed', consumed_at = ?
		  WHERE token_hash = ?
		    AND status = 'active'
		    AND division_code = ?
		    AND expires_at >= ?`,
		at, in.TokenHash, in.DivisionCode, at,
	)
	if err != nil {
		return Ballot{}, fmt.Errorf("commit ballot: consume session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return Ballot{}, fmt.Errorf("commit ballot: consume session: %w", err)
	}
	if n == 0 {
		sess, err := sqliteGetSession(ctx, tx, in.TokenHash)
		if err != nil {
			return Ballot{}, err
		}
		if err := checkConsumable(sess, in); err != nil {
			return Ballot{}, err
		}
		return Ballot{}, ErrDuplicateVote
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO ballots (id, token_hash, division_code, candidate_ids, submitted_at)
		 VALUES (?, ?, ?, ?, ?)`,
		in.ID, in.TokenHash, in.DivisionCode, string(ids), at,
	)
	if err != nil {
		if isSQLiteUniqueViolation(err) {
			return Ballot{}, ErrDuplicateVote
		}
		return Ballot{}, fmt.Errorf("commit ballot: insert: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return Ballot{}, fmt.Errorf("commit ballot: %w", err)
	}

	return Ballot{
		ID:                  in.ID,
		TokenHash:           in.TokenHash,
		DivisionCode:        in.DivisionCode,
		OrderedCandidateIDs: append([]string(nil), in.OrderedCandidateIDs...),
		SubmittedAt:         fromMicros(at),
	}, nil
}

func (s *SQLiteStore) ListBallots(ctx context.Context, divisionCode string) ([]Ballot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := s.reader.QueryContext(ctx,
		`SELECT id, token_hash, division_code, candidate_ids, submitted_at
		   FROM ballots
		  WHERE division_code = ?
		  ORDER BY submitted_at, id`,
		divisionCode,
	)
	if err != nil {
		return nil, fmt.Errorf("list ballots: %w", err)
	}
	defer rows.Close()

	var out []Ballot
	for rows.Next() {
		var (
			b   Ballot
			raw string
			at  int64
		)
		if err := rows.Scan(&b.ID, &b.TokenHash, &b.DivisionCode, &raw, &at); err != nil {
			return nil, fmt.Errorf("list ballots: scan: %w", err)
		}
		if err := json.Unmarshal([]byte(raw), &b.OrderedCandidateIDs); err != nil {
			return nil, fmt.Errorf("decode ballot %s: %w", b.ID, err)
		}
		b.SubmittedAt = fromMicros(at)
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list ballots: %w", err)
	}
	return out, nil
}

func isSQLiteUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	switch sqliteErr.Code() {
	case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
		return true
	}
	return false
}
