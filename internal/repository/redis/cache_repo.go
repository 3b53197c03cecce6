package redis

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"

	"github.com/DRSN-tech/catalog-backend/internal/cfg"
	"github.com/DRSN-tech/catalog-backend/internal/domain"
	"github.com/DRSN-tech/catalog-backend/internal/repository/redis/converter"
	"github.com/DRSN-tech/catalog-backend/pkg/clients"
	"github.com/DRSN-tech/catalog-backend/pkg/e"
	"github.com/DRSN-tech/catalog-backend/pkg/logger"
	"github.com/jimlawless/whereami"
	goredis "github.com/redis/go-redis/v9"
)

const (
	ProductsKey          = "catalog:products:all"
	ProductsVersionKey   = "catalog:products:version"
	CategoriesKey        = "catalog:categories:all"
	CategoriesVersionKey = "catalog:categories:version"
)

// unknownVersion не совпадает ни с одной версией в Redis, поэтому Set с ней ничего не пишет.
const unknownVersion int64 = -1

// cachedList — запись списка вместе с версией, при которой он был прочитан из БД.
type cachedList[T any] struct {
	Version int64 `json:"version"`
	Items   []T   `json:"items"`
}

// CacheRepo кэширует полные списки продуктов и категорий. Каждая запись хранит версию;
// инвалидация увеличивает версию, и запись со старой версией не попадёт в кэш.
// С nil-клиентом все операции ничего не делают, а чтение всегда промахивается.
type CacheRepo struct {
	client  *clients.RedisClient
	prConv  converter.ProductConverter
	catConv converter.CategoryConverter
	cfg     *cfg.RedisCfg
	logger  logger.Logger
}

func NewCacheRepo(
	client *clients.RedisClient,
	prConv converter.ProductConverter,
	catConv converter.CategoryConverter,
	cfg *cfg.RedisCfg,
	logger logger.Logger,
) *CacheRepo {
	return &CacheRepo{
		client:  client,
		prConv:  prConv,
		catConv: catConv,
		cfg:     cfg,
		logger:  logger,
	}
}

func (r *CacheRepo) enabled() bool {
	return r.client != nil
}

// GetProducts возвращает закэшированный список продуктов и текущую версию.
// Сбой Redis логируется и считается промахом.
func (r *CacheRepo) GetProducts(ctx context.Context) ([]domain.Product, int64, bool) {
	models, version, ok := getList[converter.ProductRedisModel](ctx, r, ProductsKey, ProductsVersionKey)
	if !ok {
		return nil, version, false
	}

	return r.prConv.ToArrEntity(models), version, true
}

// SetProducts пишет список, только если версия не изменилась с момента GetProducts.
func (r *CacheRepo) SetProducts(ctx context.Context, version int64, products []domain.Product) error {
	return setList(ctx, r, ProductsKey, ProductsVersionKey, version, r.prConv.ToArrRedisModel(products))
}

func (r *CacheRepo) InvalidateProducts(ctx context.Context) error {
	return r.invalidate(ctx, ProductsKey, ProductsVersionKey)
}

func (r *CacheRepo) GetCategories(ctx context.Context) ([]domain.Category, int64, bool) {
	models, version, ok := getList[converter.CategoryRedisModel](ctx, r, CategoriesKey, CategoriesVersionKey)
	if !ok {
		return nil, version, false
	}

	return r.catConv.ToArrEntity(models), version, true
}

func (r *CacheRepo) SetCategories(ctx context.Context, version int64, categories []domain.Category) error {
	return setList(ctx, r, CategoriesKey, CategoriesVersionKey, version, r.catConv.ToArrRedisModel(categories))
}

func (r *CacheRepo) InvalidateCategories(ctx context.Context) error {
	return r.invalidate(ctx, CategoriesKey, CategoriesVersionKey)
}

// invalidate атомарно увеличивает версию и удаляет запись.
func (r *CacheRepo) invalidate(ctx context.Context, key, versionKey string) error {
	if !r.enabled() {
		return nil
	}

	_, err := r.client.Client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Incr(ctx, versionKey)
		pipe.Del(ctx, key)
		return nil
	})
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

func getList[T any](ctx context.Context, r *CacheRepo, key, versionKey string) ([]T, int64, bool) {
	if !r.enabled() {
		return nil, unknownVersion, false
	}

	values, err := r.client.Client.MGet(ctx, versionKey, key).Result()
	if err != nil {
		r.logger.Warnf("Redis MGET %s failed: %v", key, e.Wrap(whereami.WhereAmI(), err))
		return nil, unknownVersion, false
	}

	version, err := parseVersion(values[0])
	if err != nil {
		r.logger.Warnf("Redis version %s is malformed: %v", versionKey, e.Wrap(whereami.WhereAmI(), err))
		return nil, unknownVersion, false
	}

	raw, ok := values[1].(string)
	if !ok {
		return nil, version, false // cache miss
	}

	var entry cachedList[T]
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		r.logger.Warnf("Redis unmarshal %s failed: %v", key, e.Wrap(whereami.WhereAmI(), err))
		if err := r.client.Client.Del(ctx, key).Err(); err != nil {
			r.logger.Warnf("Redis DEL %s failed: %v", key, e.Wrap(whereami.WhereAmI(), err))
		}
		return nil, version, false
	}

	// запись от предыдущей версии: список успел измениться
	if entry.Version != version {
		return nil, version, false
	}

	if entry.Items == nil {
		entry.Items = make([]T, 0)
	}

	return entry.Items, version, true
}

// setList пишет запись под WATCH версии. Если версия уже другая или сменилась
// до EXEC, запись молча пропускается.
func setList[T any](ctx context.Context, r *CacheRepo, key, versionKey string, version int64, models []T) error {
	if !r.enabled() || version == unknownVersion {
		return nil
	}

	data, err := json.Marshal(cachedList[T]{Version: version, Items: models})
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	err = r.client.Client.Watch(ctx, func(tx *goredis.Tx) error {
		current, err := tx.Get(ctx, versionKey).Result()
		if err != nil && !errors.Is(err, goredis.Nil) {
			return err
		}

		currentVersion, err := parseVersion(current)
		if err != nil {
			return err
		}
		if currentVersion != version {
			return nil
		}

		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.Set(ctx, key, data, r.cfg.ListTTL)
			return nil
		})
		return err
	}, versionKey)

	if errors.Is(err, goredis.TxFailedErr) {
		return nil
	}
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// parseVersion разбирает значение ключа версии. Отсутствующий ключ означает версию 0.
func parseVersion(v any) (int64, error) {
	switch s := v.(type) {
	case nil:
		return 0, nil
	case string:
		if s == "" {
			return 0, nil
		}
		return strconv.ParseInt(s, 10, 64)
	default:
		return 0, errors.New("unexpected version type")
	}
}
