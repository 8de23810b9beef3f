package cli

import (
	"errors"
	"fmt"

	"github.com/aretw0/studioflow/internal/adapters/file"
	"github.com/aretw0/studioflow/internal/config"
	"github.com/aretw0/studioflow/pkg/adapters/memory"
	"github.com/aretw0/studioflow/pkg/adapters/redis"
	"github.com/aretw0/studioflow/pkg/persistence/middleware"
	"github.com/aretw0/studioflow/pkg/ports"
)

// Backend bundles the run store, the run-directory locker and a closer
// releasing their connections.
type Backend struct {
	Store  ports.RunStore
	Locker ports.DistributedLocker
	Close  func() error
}

// OpenBackend builds the configured store. Redaction runs before
// encryption so that masked values never reach the ciphertext.
func OpenBackend(cfg config.StoreConfig) (*Backend, error) {
	b := &Backend{Close: func() error { return nil }}

	switch cfg.Backend {
	case config.BackendFile, "":
		b.Store = file.New(cfg.Path)
		b.Locker = memory.NewLocker()
	case config.BackendMemory:
		b.Store = memory.NewStore()
		b.Locker = memory.NewLocker()
	case config.BackendRedis:
		opts := []redis.Option{redis.WithTTL(cfg.TTL)}
		if cfg.Prefix != "" {
			opts = append(opts, redis.WithPrefix(cfg.Prefix))
		}
		s := redis.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, opts...)
		b.Store = s
		b.Locker = redis.NewLocker(s.Client(), cfg.Prefix)
		b.Close = s.Close
	default:
		return nil, fmt.Errorf("unsupported store backend %q", cfg.Backend)
	}

	var mws []middleware.Middleware
	if len(cfg.Redact) > 0 {
		mws = append(mws, middleware.NewRedactMiddleware(cfg.Redact))
	}
	key, err := cfg.Key()
	if err != nil {
		return nil, errors.Join(err, b.Close())
	}
	if key != nil {
		mws = append(mws, middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key}))
	}
	b.Store = middleware.Chain(b.Store, mws...)
	return b, nil
}
