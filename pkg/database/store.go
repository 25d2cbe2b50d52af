package database

import (
	"fmt"
	"lingua_backend/internal/config"
	"lingua_backend/pkg/kvstore"
	"log"
)

// InitStore 按 store.driver 打开键值存储
func InitStore(cfg *config.Config, opts ...kvstore.Option) (kvstore.Store, error) {
	opts = append([]kvstore.Option{kvstore.WithMaxRetries(cfg.Store.MaxCASRetries)}, opts...)

	switch cfg.Store.Driver {
	case "memory":
		log.Println("Using in-memory key-value store (data is lost on restart)")
		return kvstore.NewMemoryStore(), nil
	case "redis":
		rdb, err := InitRedis(&cfg.Redis)
		if err != nil {
			return nil, err
		}
		return kvstore.NewRedisStore(rdb, opts...), nil
	case "sql":
		db, err := InitDB(&cfg.Database)
		if err != nil {
			return nil, err
		}
		return kvstore.NewSQLStore(db, opts...)
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.Store.Driver)
	}
}
