package factory

import (
	"fmt"

	"github.com/loykin/dockhand/internal/store"
	"github.com/loykin/dockhand/internal/store/memory"
	"github.com/loykin/dockhand/internal/store/postgres"
	"github.com/loykin/dockhand/internal/store/sqlite"
)

// New creates a store backend from config. Supported types: "sqlite"
// (default), "postgres", "memory".
func New(cfg store.Config) (store.Store, error) {
	cfg = cfg.Normalized()
	switch cfg.Type {
	case "sqlite":
		return sqlite.New(cfg)
	case "postgres", "postgresql":
		return postgres.New(cfg)
	case "memory":
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unsupported store type: %q", cfg.Type)
	}
}

// SupportedTypes lists the selectable backends.
func SupportedTypes() []string {
	return []string{"sqlite", "postgres", "memory"}
}
