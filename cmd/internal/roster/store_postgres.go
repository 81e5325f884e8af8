package roster

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresProvider reads rosters from the admin-owned roster tables.
type PostgresProvider struct {
	pool   *pgxpool.Pool
	schema string
}

// ProviderOption configures PostgresProvider.
type ProviderOption func(*PostgresProvider) error

// WithSchema sets the DB schema holding the roster tables (default: "profrank").
func WithSchema(schema string) ProviderOption {
	return func(p *PostgresProvider) error {
		schema = strings.TrimSpace(schema)
		if schema == "" {
			return fmt.Errorf("roster: empty schema")
		}
		p.schema = schema
		return nil
	}
}

// NewPostgresProvider constructs a PostgresProvider. The pool is owned by the caller.
func NewPostgresProvider(pool *pgxpool.Pool, opts ...ProviderOption) (*PostgresProvider, error) {
	p := &PostgresProvider{pool: pool, schema: "profrank"}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	if p.pool == nil {
		return nil, fmt.Errorf("roster: nil db pool")
	}
	return p, nil
}

// Roster returns the candidates of a division ordered by position.
// A division with no entries yields an empty list, not an error.
func (p *PostgresProvider) Roster(ctx context.Context, divisionCode string) ([]Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	code, err := NormalizeDivisionCode(divisionCode)
	if err != nil {
		return nil, ErrDivisionNotFound
	}

	divisions := pgIdent(p.schema, "divisions")
	entries := pgIdent(p.schema, "roster_entries")

	var exists bool
	if err := p.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM `+divisions+` WHERE code = $1)`, code,
	).Scan(&exists); err != nil {
		return nil, fmt.Errorf("roster: lookup division: %w", err)
	}
	if !exists {
		return nil, ErrDivisionNotFound
	}

	rows, err := p.pool.Query(ctx,
		`SELECT candidate_id, candidate_name, subject_label
		   FROM `+entries+`
		  WHERE division_code = $1
		  ORDER BY position ASC, candidate_id ASC`,
		code,
	)
	if err != nil {
		return nil, fmt.Errorf("roster: query entries: %w", err)
	}
	defer rows.Close()

	out := make([]Candidate, 0, 16)
	for rows.Next() {
		c := Candidate{DivisionCode: code}
		if err := rows.Scan(&c.ID, &c.Name, &c.SubjectLabel); err != nil {
			return nil, fmt.Errorf("roster: scan entry: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("roster: iterate entries: %w", err)
	}
	return out, nil
}

// SchemaSQL returns the DDL for the roster tables in schema.
// The admin subsystem owns these tables; the DDL exists for local setups and tests.
func SchemaSQL(schema string) string {
	divisions := pgIdent(schema, "divisions")
	entries := pgIdent(schema, "roster_entries")
	return fmt.Sprintf(`
CREATE SCHEMA IF NOT EXISTS %s;

CREATE TABLE IF NOT EXISTS %s (
  code TEXT PRIMARY KEY,
  department TEXT NOT NULL,
  year TEXT NOT NULL,
  section TEXT NOT NULL,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS %s (
  division_code TEXT NOT NULL REFERENCES %s(code) ON DELETE CASCADE,
  candidate_id TEXT NOT NULL,
  candidate_name TEXT NOT NULL DEFAULT '',
  subject_label TEXT NOT NULL DEFAULT '',
  position INT NOT NULL DEFAULT 0,
  PRIMARY KEY (division_code, candidate_id),
  CONSTRAINT chk_roster_entries_candidate_id CHECK (char_length(candidate_id) BETWEEN 1 AND 128)
);
`, pgx.Identifier{schema}.Sanitize(), divisions, entries, divisions)
}

// UpsertDivision writes a division and replaces its roster entries in one transaction.
// It backs the CLI seeding command and tests; regular admin CRUD lives elsewhere.
func (p *PostgresProvider) UpsertDivision(ctx context.Context, code string, cs []Candidate) error {
	d, err := ParseDivisionCode(code)
	if err != nil {
		return err
	}
	if _, err := NewStaticProvider(map[string][]Candidate{d.Code(): cs}); err != nil {
		return err
	}

	divisions := pgIdent(p.schema, "divisions")
	entries := pgIdent(p.schema, "roster_entries")

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx,
		`INSERT INTO `+divisions+` (code, department, year, section) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (code) DO NOTHING`,
		d.Code(), d.Department, d.Year, d.Section,
	); err != nil {
		return fmt.Errorf("roster: upsert division: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM `+entries+` WHERE division_code = $1`, d.Code()); err != nil {
		return fmt.Errorf("roster: clear entries: %w", err)
	}
	for i, c := range cs {
		if _, err := tx.Exec(ctx,
			`INSERT INTO `+entries+` (division_code, candidate_id, candidate_name, subject_label, position)
			 VALUES ($1, $2, $3, $4, $5)`,
			d.Code(), strings.TrimSpace(c.ID), strings.TrimSpace(c.Name), strings.TrimSpace(c.SubjectLabel), i,
		); err != nil {
			return fmt.Errorf("roster: insert entry: %w", err)
		}
	}
	return tx.Commit(ctx)
}

func pgIdent(schema, table string) string {
	return pgx.Identifier{schema, table}.Sanitize()
}
