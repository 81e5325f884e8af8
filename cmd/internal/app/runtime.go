package app

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/MH469Arya/ProfRankSystem/cmd/internal/roster"
	"github.com/MH469Arya/ProfRankSystem/cmd/internal/vote"
)

// Storage backends.
const (
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
	BackendMemory   = "memory"
)

// Runtime holds the wired voting services shared by the server and the admin CLI.
type Runtime struct {
	Backend string
	Pool    *pgxpool.Pool

	Store   vote.Store
	Rosters roster.Provider

	Issuer     *vote.Issuer
	Collector  *vote.Collector
	Aggregator *vote.Aggregator

	Registry *prometheus.Registry
	Metrics  *vote.Metrics
}

// OpenRuntime selects storage (Postgres URL, else SQLite path, else memory),
// the roster source (YAML file, else Postgres) and wires the vote services.
func OpenRuntime(ctx context.Context, cfg Config, log Logger) (*Runtime, error) {
	rt := &Runtime{Registry: prometheus.NewRegistry()}
	rt.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	rt.Metrics = vote.NewMetrics(rt.Registry)

	if err := rt.openStore(ctx, cfg, log); err != nil {
		return nil, err
	}
	if err := rt.openRosters(cfg, log); err != nil {
		_ = rt.Close()
		return nil, err
	}

	vcfg, err := vote.LoadConfigFromEnv()
	if err != nil {
		_ = rt.Close()
		return nil, err
	}
	hasher, err := TokenHasher(cfg)
	if err != nil {
		_ = rt.Close()
		return nil, err
	}

	opts := []vote.Option{vote.WithHasher(hasher), vote.WithMetrics(rt.Metrics)}
	if rt.Issuer, err = vote.NewIssuer(vcfg, rt.Store, rt.Rosters, opts...); err != nil {
		_ = rt.Close()
		return nil, err
	}
	if rt.Collector, err = vote.NewCollector(rt.Issuer); err != nil {
		_ = rt.Close()
		return nil, err
	}
	if rt.Aggregator, err = vote.NewAggregator(rt.Store, rt.Rosters, opts...); err != nil {
		_ = rt.Close()
		return nil, err
	}

	log.Info("runtime.ready",
		"backend", rt.Backend,
		"token_hmac", hasher.HMAC(),
		"session_ttl", vcfg.DefaultTTL.String(),
	)
	return rt, nil
}

func (rt *Runtime) openStore(ctx context.Context, cfg Config, log Logger) error {
	switch {
	case cfg.DatabaseURL != "":
		pool, err := NewDBPool(ctx, cfg)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		st, err := vote.NewPostgresStore(pool, vote.WithSchema(cfg.DBSchema))
		if err != nil {
			pool.Close()
			return err
		}
		rt.Backend, rt.Pool, rt.Store = BackendPostgres, pool, st
		if cfg.DBAutoMigrate {
			if err := rt.Migrate(ctx, cfg); err != nil {
				_ = rt.Close()
				return err
			}
			log.Info("db.migrate.ok", "schema", cfg.DBSchema)
		}
		log.Info("db.enabled.postgres_store", "schema", cfg.DBSchema)

	case cfg.SQLitePath != "":
		st, err := vote.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return err
		}
		rt.Backend, rt.Store = BackendSQLite, st
		log.Info("db.enabled.sqlite_store", "path", cfg.SQLitePath)

	default:
		rt.Backend, rt.Store = BackendMemory, vote.NewMemoryStore()
		log.Warn("db.disabled.inmemory_store")
	}
	return nil
}

func (rt *Runtime) openRosters(cfg Config, log Logger) error {
	if cfg.RosterFile != "" {
		p, err := roster.LoadFile(cfg.RosterFile)
		if err != nil {
			return err
		}
		rt.Rosters = p
		log.Info("roster.file.loaded", "path", cfg.RosterFile, "divisions", len(p.Divisions()))
		return nil
	}
	if rt.Pool != nil {
		p, err := roster.NewPostgresProvider(rt.Pool, roster.WithSchema(cfg.DBSchema))
		if err != nil {
			return err
		}
		rt.Rosters = p
		return nil
	}

	// Every division lookup fails until a roster is configured.
	p, err := roster.NewStaticProvider(nil)
	if err != nil {
		return err
	}
	rt.Rosters = p
	log.Warn("roster.empty", "hint", "set PROFRANK_ROSTER_FILE or PROFRANK_DATABASE_URL")
	return nil
}

// Migrate applies the vote and roster DDL for the active backend.
// SQLite applies its schema on open, so only Postgres has work to do.
func (rt *Runtime) Migrate(ctx context.Context, cfg Config) error {
	if rt.Backend != BackendPostgres {
		return nil
	}
	if _, err := rt.Pool.Exec(ctx, roster.SchemaSQL(cfg.DBSchema)); err != nil {
		return fmt.Errorf("migrate roster schema: %w", err)
	}
	if _, err := rt.Pool.Exec(ctx, vote.SchemaSQL(cfg.DBSchema)); err != nil {
		return fmt.Errorf("migrate vote schema: %w", err)
	}
	return nil
}

// Close releases the store and the pool. The pool is owned here; PostgresStore.Close is a noop.
func (rt *Runtime) Close() error {
	var err error
	if rt.Store != nil {
		err = rt.Store.Close()
	}
	if rt.Pool != nil {
		rt.Pool.Close()
	}
	return err
}
