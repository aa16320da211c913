package session

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/wricardo/courtqueue/game/config"
	"github.com/wricardo/courtqueue/game/engine"
)

// Store persists sessions keyed by area id. Implementations are safe for
// concurrent use and hand out copies, never shared references.
type Store interface {
	Get(ctx context.Context, areaID string) (*engine.Session, error)
	Put(ctx context.Context, areaID string, s *engine.Session) error
	List(ctx context.Context) ([]string, error)
	Clear(ctx context.Context) error
	Close() error
}

// Open creates the store selected by cfg.Driver
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return NewMemoryStore(), nil
	case config.DriverFile:
		return NewFileStore(cfg.DataFile)
	case config.DriverRedis:
		store := NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, WithPrefix(cfg.RedisPrefix))
		if err := store.Ping(ctx); err != nil {
			_ = store.Close()
			return nil, err
		}
		return store, nil
	case config.DriverSQLite:
		return OpenSQLiteStore(ctx, cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("%w: unknown store driver %q", config.ErrInvalidConfig, cfg.Driver)
	}
}

// encodeSession serializes a session in its wire shape
func encodeSession(s *engine.Session) ([]byte, error) {
	data, err := json.Marshal(s.Clone())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session: %w", err)
	}
	return data, nil
}

// decodeSession parses a stored session. Undecodable data is reported as a
// storage failure rather than a missing session.
func decodeSession(areaID string, data []byte) (*engine.Session, error) {
	var s engine.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: corrupt session for area %q: %w", engine.ErrStorageUnavailable, areaID, err)
	}
	// Clone replaces nil slices with empty ones
	return s.Clone(), nil
}

func checkPut(areaID string, s *engine.Session) error {
	if areaID == "" {
		return fmt.Errorf("%w: area id is required", engine.ErrInvalidInput)
	}
	if s == nil {
		return fmt.Errorf("%w: session cannot be nil", engine.ErrInvalidInput)
	}
	return nil
}

func notFound(areaID string) error {
	return fmt.Errorf("%w: area %q", engine.ErrNotFound, areaID)
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", engine.ErrStorageUnavailable, op, err)
}
