package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/loykin/dockhand/internal/store"
	"github.com/loykin/dockhand/internal/store/sqlcommon"
)

// DB implements store.Store for PostgreSQL via the pgx stdlib driver.
type DB struct {
	db             *sql.DB
	acquireTimeout time.Duration
	taskdefs       *sqlcommon.TaskDefinitionRepo
	jobs           *sqlcommon.JobRepo
	schedules      *sqlcommon.ScheduleRepo
}

// New opens a postgres connection from cfg.DSN and applies pool settings.
func New(cfg store.Config) (*DB, error) {
	cfg = cfg.Normalized()
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, errors.New("empty postgres dsn")
	}
	d, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	d.SetMaxOpenConns(cfg.MaxOpenConns)
	d.SetMaxIdleConns(cfg.MinIdleConns)

	q := sqlcommon.Dollars
	return &DB{
		db:             d,
		acquireTimeout: cfg.AcquireTimeout,
		taskdefs:       sqlcommon.NewTaskDefinitionRepo(d, q),
		jobs:           sqlcommon.NewJobRepo(d, q),
		schedules:      sqlcommon.NewScheduleRepo(d, q),
	}, nil
}

func (s *DB) TaskDefinitions() store.TaskDefinitionRepository { return s.taskdefs }
func (s *DB) Jobs() store.JobRepository                       { return s.jobs }
func (s *DB) Schedules() store.ScheduleRepository             { return s.schedules }

// Ping bounds connection acquisition by the configured acquire timeout.
func (s *DB) Ping(ctx context.Context) error {
	if s.acquireTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.acquireTimeout)
		defer cancel()
	}
	return s.db.PingContext(ctx)
}

func (s *DB) Close() error { return s.db.Close() }

func (s *DB) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS task_definition(
			id BIGSERIAL PRIMARY KEY,
			name TEXT NOT NULL,
			version INTEGER NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			image TEXT NOT NULL,
			command TEXT NULL,
			args TEXT NULL,
			env TEXT NULL,
			memory_limit INTEGER NULL,
			cpu_limit INTEGER NULL,
			enabled BOOLEAN NOT NULL DEFAULT TRUE,
			is_latest BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL
		);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_task_definition_name_version ON task_definition(name, version);`,
		`CREATE TABLE IF NOT EXISTS job(
			id BIGSERIAL PRIMARY KEY,
			name TEXT NOT NULL,
			task_definition_id BIGINT NOT NULL,
			status TEXT NOT NULL,
			submited_at TIMESTAMPTZ NOT NULL,
			started_at TIMESTAMPTZ NULL,
			finished_at TIMESTAMPTZ NULL,
			container_type TEXT NOT NULL DEFAULT 'Docker',
			container_id TEXT NULL,
			exit_code INTEGER NULL,
			error_message TEXT NULL,
			log_expire_after_seconds BIGINT NULL,
			log_expired BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_job_status ON job(status);`,
		`CREATE TABLE IF NOT EXISTS schedule(
			id BIGSERIAL PRIMARY KEY,
			name TEXT NOT NULL,
			job_name TEXT NOT NULL,
			cron_expression TEXT NOT NULL,
			task_definition_id BIGINT NOT NULL,
			command TEXT NULL,
			timezone TEXT NULL,
			timezone_offset INTEGER NULL,
			enabled BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL,
			last_triggered_at TIMESTAMPTZ NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_schedule_enabled ON schedule(enabled);`,
	}
	for _, q := range stmts {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return err
		}
	}
	return nil
}
