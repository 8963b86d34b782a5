package pipeline

import (
	"go.uber.org/zap"
	"sketchagg/config"
	"sketchagg/storage"
)

// Open builds the exchange described by cfg.
func Open(cfg *config.Config, logger *zap.Logger) (*Exchange, error) {
	var backend storage.Backend
	switch cfg.Storage.Kind {
	case config.StorageBadger:
		db, err := storage.OpenBadger(cfg.Storage.Path, cfg.Storage.InMemory, logger)
		if err != nil {
			return nil, err
		}
		backend = storage.NewBadgerBackend(db)
	default:
		backend = storage.NewInMemoryBackend()
	}
	exchange, err := NewExchange(backend, CacheConfig{
		Enabled:     cfg.Cache.Enabled,
		NumCounters: cfg.Cache.NumCounters,
		MaxCost:     cfg.Cache.MaxCost,
	})
	if err != nil {
		_ = backend.Close()
		return nil, err
	}
	return exchange, nil
}
