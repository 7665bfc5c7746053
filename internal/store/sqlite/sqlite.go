package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/loykin/dockhand/internal/store"
	"github.com/loykin/dockhand/internal/store/sqlcommon"
)

// DB implements store.Store for SQLite (modernc.org/sqlite driver,
// CGO-free). Path is a filesystem path; use ":memory:" for in-memory.
type DB struct {
	db             *sql.DB
	acquireTimeout time.Duration
	taskdefs       *sqlcommon.TaskDefinitionRepo
	jobs           *sqlcommon.JobRepo
	schedules      *sqlcommon.ScheduleRepo
}

// New opens the database at cfg.Path and applies pool settings.
func New(cfg store.Config) (*DB, error) {
	cfg = cfg.Normalized()
	p := strings.TrimSpace(cfg.Path)
	if p == "" {
		return nil, errors.New("empty sqlite path")
	}
	d, err := sql.Open("sqlite", p)
	if err != nil {
		return nil, err
	}
	// busy timeout helps with short concurrent locks across the loops
	_, _ = d.Exec("PRAGMA busy_timeout=3000;")
	_, _ = d.Exec("PRAGMA journal_mode=WAL;")
	d.SetMaxOpenConns(cfg.MaxOpenConns)
	d.SetMaxIdleConns(cfg.MinIdleConns)

	q := sqlcommon.Questions
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
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			version INTEGER NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			image TEXT NOT NULL,
			command TEXT NULL,
			args TEXT NULL,
			env TEXT NULL,
			memory_limit INTEGER NULL,
			cpu_limit INTEGER NULL,
			enabled BOOLEAN NOT NULL DEFAULT 1,
			is_latest BOOLEAN NOT NULL DEFAULT 1,
			created_at TIMESTAMP NOT NULL
		);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_task_definition_name_version ON task_definition(name, version);`,
		`CREATE TABLE IF NOT EXISTS job(
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			task_definition_id INTEGER NOT NULL,
			status TEXT NOT NULL,
			submited_at TIMESTAMP NOT NULL,
			started_at TIMESTAMP NULL,
			finished_at TIMESTAMP NULL,
			container_type TEXT NOT NULL DEFAULT 'Docker',
			container_id TEXT NULL,
			exit_code INTEGER NULL,
			error_message TEXT NULL,
			log_expire_after_seconds INTEGER NULL,
			log_expired BOOLEAN NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_job_status ON job(status);`,
		`CREATE TABLE IF NOT EXISTS schedule(
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			job_name TEXT NOT NULL,
			cron_expression TEXT NOT NULL,
			task_definition_id INTEGER NOT NULL,
			command TEXT NULL,
			timezone TEXT NULL,
			timezone_offset INTEGER NULL,
			enabled BOOLEAN NOT NULL DEFAULT 1,
			created_at TIMESTAMP NOT NULL,
			last_triggered_at TIMESTAMP NULL
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
