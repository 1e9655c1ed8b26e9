package redis

import (
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/renatodap/snapmod-sub000/config"
	"github.com/sirupsen/logrus"
)

// NewRedisClient builds a client from configuration. The connection is
// checked lazily by the first command (the store backends ping on Open).
func NewRedisClient(cfg *config.RedisConfig) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		MaxRetries:   cfg.MaxRetries,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		PoolTimeout:  cfg.PoolTimeout,
	})

	logrus.WithField("addr", client.Options().Addr).Info("redis client configured")
	return client
}
