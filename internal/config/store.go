package config

import (
	"github.com/cmusatyalab/OpenWorkflow/pkg/adapters/file"
	"github.com/cmusatyalab/OpenWorkflow/pkg/adapters/memory"
	"github.com/cmusatyalab/OpenWorkflow/pkg/adapters/redis"
	"github.com/cmusatyalab/OpenWorkflow/pkg/persistence/middleware"
	"github.com/cmusatyalab/OpenWorkflow/pkg/ports"
)

// Backend is an opened document store. Locker is nil unless the store is
// shared between replicas.
type Backend struct {
	Store  ports.DocumentStore
	Locker ports.DistributedLocker
	Close  func() error
}

// OpenStore creates the document store selected by c.Store, wrapped with
// the redaction and encryption middleware when they are configured.
func (c Config) OpenStore() (*Backend, error) {
	backend, err := c.openBackend()
	if err != nil {
		return nil, err
	}

	var mws []middleware.Middleware
	if len(c.RedactArgs) > 0 {
		redact, err := middleware.NewRedactionMiddleware(c.RedactArgs)
		if err != nil {
			backend.Close()
			return nil, err
		}
		mws = append(mws, redact)
	}
	encCfg, err := c.encryptionConfig()
	if err != nil {
		backend.Close()
		return nil, err
	}
	if encCfg != nil {
		encrypt, err := middleware.NewEncryptionMiddleware(*encCfg)
		if err != nil {
			backend.Close()
			return nil, err
		}
		mws = append(mws, encrypt)
	}
	backend.Store = middleware.Chain(backend.Store, mws...)
	return backend, nil
}

func (c Config) openBackend() (*Backend, error) {
	nop := func() error { return nil }
	switch c.Store {
	case StoreFile:
		store, err := file.New(c.DataDir)
		if err != nil {
			return nil, err
		}
		return &Backend{Store: store, Close: nop}, nil
	case StoreRedis:
		opts := []redis.Option{redis.WithPrefix(c.RedisPrefix)}
		if c.RedisTTL > 0 {
			opts = append(opts, redis.WithTTL(c.RedisTTL))
		}
		store := redis.New(c.RedisAddr, c.RedisPassword, c.RedisDB, opts...)
		return &Backend{
			Store:  store,
			Locker: redis.NewLocker(store.Client(), c.RedisPrefix),
			Close:  store.Close,
		}, nil
	default:
		return &Backend{Store: memory.NewStore(), Close: nop}, nil
	}
}
