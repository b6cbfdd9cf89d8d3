package cache

import "github.com/l4b4r4b4b4/legal-mcp-go/internal/config"

// New builds a Cache from the process configuration.
func New(cfg config.CacheConfig) *Cache {
	return NewCache(Config{Capacity: cfg.Capacity, DefaultTTL: cfg.DefaultTTL})
}
