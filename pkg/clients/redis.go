package clients

import (
	"context"

	"github.com/DRSN-tech/catalog-backend/internal/cfg"
	"github.com/DRSN-tech/catalog-backend/pkg/e"
	"github.com/jimlawless/whereami"
	r "github.com/redis/go-redis/v9"
)

// RedisClient — подключение к Redis для кэша списков.
type RedisClient struct {
	Client *r.Client
}

// NewRedisClient подключается к Redis и проверяет соединение.
// Если адрес не задан, кэш выключен: возвращается nil без ошибки.
func NewRedisClient(ctx context.Context, cfg *cfg.RedisCfg) (*RedisClient, error) {
	if !cfg.Enabled() {
		return nil, nil
	}

	client := &RedisClient{Client: r.NewClient(redisOptions(cfg))}
	if err := client.Ping(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}

	return client, nil
}

func redisOptions(cfg *cfg.RedisCfg) *r.Options {
	return &r.Options{
		Addr:         cfg.Addr,
		Username:     cfg.User,
		Password:     cfg.Password,
		DB:           cfg.DB,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.Timeout,
		WriteTimeout: cfg.Timeout,
	}
}

func (c *RedisClient) Ping(ctx context.Context) error {
	if err := c.Client.Ping(ctx).Err(); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

func (c *RedisClient) Close() error {
	return c.Client.Close()
}
