package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	if cfg.Server.Listen != "0.0.0.0:13939" {
		t.Fatalf("listen = %s", cfg.Server.Listen)
	}
	if cfg.Store.Type != "sqlite" || cfg.Store.Path != "./db.sqlite" {
		t.Fatalf("store defaults = %+v", cfg.Store)
	}
	if cfg.Runner.BatchSize != 5 || cfg.Tracker.PollSleep != 2*time.Second {
		t.Fatalf("loop defaults = %+v %+v", cfg.Runner, cfg.Tracker)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := `
[server]
listen = "127.0.0.1:9000"

[store]
type = "postgres"
dsn = "postgres://localhost/dockhand"

[runner]
batch_size = 10

[container]
bin = "podman"

[log]
level = "debug"
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Listen != "127.0.0.1:9000" {
		t.Fatalf("listen = %s", cfg.Server.Listen)
	}
	if cfg.Store.Type != "postgres" || cfg.Store.DSN != "postgres://localhost/dockhand" {
		t.Fatalf("store = %+v", cfg.Store)
	}
	if cfg.Runner.BatchSize != 10 {
		t.Fatalf("batch_size = %d", cfg.Runner.BatchSize)
	}
	if cfg.Container.Bin != "podman" {
		t.Fatalf("container bin = %s", cfg.Container.Bin)
	}
	if cfg.Log.Level != "debug" {
		t.Fatalf("log level = %s", cfg.Log.Level)
	}
	// Untouched sections keep their defaults.
	if cfg.Tracker.PollSleep != 2*time.Second {
		t.Fatalf("tracker poll = %v", cfg.Tracker.PollSleep)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.toml"); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []func(*Config){
		func(c *Config) { c.Server.Listen = "" },
		func(c *Config) { c.Runner.BatchSize = 0 },
		func(c *Config) { c.Tracker.PollSleep = 0 },
		func(c *Config) { c.Scheduler.Tick = 0 },
		func(c *Config) { c.Container.StopTimeout = 0 },
	}
	for i, mutate := range cases {
		cfg := Default()
		mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Fatalf("case %d: expected validation error", i)
		}
	}
}
