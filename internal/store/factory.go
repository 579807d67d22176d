package store

import (
	"fmt"
	"os"
	"strings"
)

const (
	ModeMemory   = "memory"
	ModeSQLite   = "sqlite"
	ModePostgres = "postgres"
)

func modeFromEnv() string {
	raw := strings.ToLower(strings.TrimSpace(os.Getenv("STORE_MODE")))
	switch raw {
	case "", ModeMemory, "mem":
		return ModeMemory
	case ModeSQLite, "local":
		return ModeSQLite
	case ModePostgres, "db", "postgresql":
		return ModePostgres
	default:
		return raw
	}
}

// NewFromEnv selects a backend from STORE_MODE (default "memory"), the way
// the rest of this stack's service factories read their own *_MODE var.
func NewFromEnv() (Store, string, error) {
	mode := modeFromEnv()

	switch mode {
	case ModeMemory:
		return NewMemory(), mode, nil
	case ModeSQLite:
		s, err := NewSQLiteFromEnv()
		if err != nil {
			return nil, mode, err
		}
		return s, mode, nil
	case ModePostgres:
		s, err := NewPostgresFromEnv()
		if err != nil {
			return nil, mode, err
		}
		return s, mode, nil
	default:
		return nil, mode, fmt.Errorf("invalid STORE_MODE %q (supported: %s, %s, %s)", mode, ModeMemory, ModeSQLite, ModePostgres)
	}
}
