package cfg

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/DRSN-tech/catalog-backend/pkg/e"
	"github.com/DRSN-tech/catalog-backend/pkg/logger"
	"github.com/jimlawless/whereami"
	"github.com/joho/godotenv"
)

// Режимы запуска приложения.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"
	EnvProvision   = "provision"
)

type Config struct {
	Env    string
	Http   *HTTPConfig
	Db     *PGDBCfg
	Redis  *RedisCfg
	Kafka  *KafkaCfg
	Outbox *OutboxCfg
}

type HTTPConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type PGDBCfg struct {
	URL            string
	MaxConns       int32
	AcquireTimeout time.Duration // ожидание свободного соединения при насыщении пула
	IdleTimeout    time.Duration // простаивающее соединение закрывается по истечении
}

// RedisCfg описывает кэш списков. Пустой Addr отключает кэш.
type RedisCfg struct {
	Addr        string
	Password    string
	User        string
	DB          int
	MaxRetries  int
	DialTimeout time.Duration
	Timeout     time.Duration
	ListTTL     time.Duration
}

// KafkaCfg описывает публикацию событий продуктов. Пустой список брокеров отключает публикацию.
type KafkaCfg struct {
	Topic             string
	Brokers           []string
	NetworkMode       string
	Partitions        int
	ReplicationFactor int
}

type OutboxCfg struct {
	PollInterval time.Duration
	BatchSize    int
}

func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

func (k *KafkaCfg) Enabled() bool {
	return len(k.Brokers) > 0
}

func (r *RedisCfg) Enabled() bool {
	return r.Addr != ""
}

// Load безопасно загружает конфигурацию и возвращает ошибку в случае неудачи.
// Файл .env читается, если режим не задан окружением (тогда APP_ENV может прийти из него)
// или задан как development. Переменные окружения имеют приоритет над .env.
func Load(log logger.Logger) (*Config, error) {
	dotenvLoaded := false
	if getEnv("APP_ENV") == "" && getEnv("NODE_ENV") == "" {
		loadDotenv(log)
		dotenvLoaded = true
	}

	env, err := loadEnv()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	if env == EnvDevelopment && !dotenvLoaded {
		loadDotenv(log)
	}

	db, err := loadPGDBCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	http, err := loadHTTPConfig(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	redis, err := loadRedisCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	kafka, err := loadKafkaCfg()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	outbox, err := loadOutboxCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return &Config{
		Env:    env,
		Http:   http,
		Db:     db,
		Redis:  redis,
		Kafka:  kafka,
		Outbox: outbox,
	}, nil
}

func loadDotenv(log logger.Logger) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warnf("failed to read .env: %v", err)
	}
}

func loadEnv() (string, error) {
	env := getEnv("APP_ENV")
	if env == "" {
		env = getEnvOrDefault("NODE_ENV", EnvDevelopment)
	}

	switch env {
	case EnvDevelopment, EnvProduction, EnvTest, EnvProvision:
		return env, nil
	default:
		return "", fmt.Errorf("APP_ENV must be one of development, production, test, provision: got %q", env)
	}
}

func loadHTTPConfig(log logger.Logger) (*HTTPConfig, error) {
	const (
		defaultPort         = "3000"
		defaultReadTimeout  = 5 * time.Second
		defaultWriteTimeout = 10 * time.Second
		defaultIdleTimeout  = 60 * time.Second
	)

	port := getEnvOrDefault("PORT", defaultPort)
	if n, err := strconv.Atoi(port); err != nil || n <= 0 || n > 65535 {
		err := fmt.Errorf("PORT must be a valid TCP port: got %q", port)
		log.Errorf(err, "invalid PORT")
		return nil, err
	}

	readTimeout, err := parseDurationEnv("HTTP_READ_TIMEOUT", defaultReadTimeout)
	if err != nil {
		log.Errorf(err, "invalid HTTP_READ_TIMEOUT")
		return nil, err
	}

	writeTimeout, err := parseDurationEnv("HTTP_WRITE_TIMEOUT", defaultWriteTimeout)
	if err != nil {
		log.Errorf(err, "invalid HTTP_WRITE_TIMEOUT")
		return nil, err
	}

	idleTimeout, err := parseDurationEnv("KEEP_ALIVE", defaultIdleTimeout)
	if err != nil {
		log.Errorf(err, "invalid KEEP_ALIVE")
		return nil, err
	}

	return &HTTPConfig{
		Port:         port,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}, nil
}

func loadPGDBCfg(log logger.Logger) (*PGDBCfg, error) {
	const (
		defaultMaxConns       = 10
		defaultAcquireTimeout = 5 * time.Second
		defaultIdleTimeout    = 30 * time.Second
	)

	url := getEnv("DATABASE_URL")
	if url == "" {
		err := fmt.Errorf("DATABASE_URL is required")
		log.Errorf(err, "missing DATABASE_URL")
		return nil, err
	}

	maxConns, err := parseIntEnv("DB_MAX_CONNS", defaultMaxConns)
	if err != nil || maxConns <= 0 {
		err := e.Wrap("DB_MAX_CONNS", e.ErrIncorrectEnvVariable)
		log.Errorf(err, "invalid DB_MAX_CONNS")
		return nil, err
	}

	acquireTimeout, err := parseDurationEnv("DB_ACQUIRE_TIMEOUT", defaultAcquireTimeout)
	if err != nil {
		log.Errorf(err, "invalid DB_ACQUIRE_TIMEOUT")
		return nil, err
	}

	idleTimeout, err := parseDurationEnv("DB_IDLE_TIMEOUT", defaultIdleTimeout)
	if err != nil {
		log.Errorf(err, "invalid DB_IDLE_TIMEOUT")
		return nil, err
	}

	return &PGDBCfg{
		URL:            url,
		MaxConns:       int32(maxConns),
		AcquireTimeout: acquireTimeout,
		IdleTimeout:    idleTimeout,
	}, nil
}

func loadRedisCfg(log logger.Logger) (*RedisCfg, error) {
	const (
		defaultDB          = 0
		defaultMaxRetries  = 3
		defaultDialTimeout = 5 * time.Second
		defaultTimeout     = 3 * time.Second
		defaultListTTL     = time.Minute
	)

	db, err := parseIntEnv("REDIS_DB_ID", defaultDB)
	if err != nil {
		log.Errorf(err, "invalid REDIS_DB_ID")
		return nil, err
	}

	maxRetries, err := parseIntEnv("MAX_RETRIES", defaultMaxRetries)
	if err != nil {
		log.Errorf(err, "invalid MAX_RETRIES")
		return nil, err
	}

	dialTimeout, err := parseDurationEnv("DIAL_TIMEOUT", defaultDialTimeout)
	if err != nil {
		log.Errorf(err, "invalid DIAL_TIMEOUT")
		return nil, err
	}

	timeout, err := parseDurationEnv("REDIS_TIMEOUT", defaultTimeout)
	if err != nil {
		log.Errorf(err, "invalid REDIS_TIMEOUT")
		return nil, err
	}

	listTTL, err := parseDurationEnv("CACHE_TTL", defaultListTTL)
	if err != nil {
		log.Errorf(err, "invalid CACHE_TTL")
		return nil, err
	}

	return &RedisCfg{
		Addr:        getEnv("REDIS_ADDR"),
		Password:    getEnv("REDIS_PASSWORD"),
		User:        getEnv("REDIS_USER"),
		DB:          db,
		MaxRetries:  maxRetries,
		DialTimeout: dialTimeout,
		Timeout:     timeout,
		ListTTL:     listTTL,
	}, nil
}

func loadKafkaCfg() (*KafkaCfg, error) {
	const (
		defaultTopic             = "catalog.products"
		defaultPartitions        = 3
		defaultReplicationFactor = 1
		defaultNetworkMode       = "tcp"
	)

	var brokers []string
	if brokerStr := getEnv("KAFKA_BROKERS"); brokerStr != "" {
		for _, b := range strings.Split(brokerStr, ",") {
			if b = strings.TrimSpace(b); b != "" {
				brokers = append(brokers, b)
			}
		}
	}

	partitions, err := parseIntEnv("KAFKA_PARTITIONS", defaultPartitions)
	if err != nil {
		return nil, e.Wrap("KAFKA_PARTITIONS", err)
	}

	replicationFactor, err := parseIntEnv("REPLICATION_FACTOR", defaultReplicationFactor)
	if err != nil {
		return nil, e.Wrap("REPLICATION_FACTOR", err)
	}

	return &KafkaCfg{
		Brokers:           brokers,
		Topic:             getEnvOrDefault("KAFKA_TOPIC", defaultTopic),
		Partitions:        partitions,
		ReplicationFactor: replicationFactor,
		NetworkMode:       getEnvOrDefault("KAFKA_NETWORK_MODE", defaultNetworkMode),
	}, nil
}

func loadOutboxCfg(log logger.Logger) (*OutboxCfg, error) {
	const (
		defaultPollInterval = 5 * time.Second
		defaultBatchSize    = 10
	)

	pollInterval, err := parseDurationEnv("OUTBOX_POLL_INTERVAL", defaultPollInterval)
	if err != nil {
		log.Errorf(err, "invalid OUTBOX_POLL_INTERVAL")
		return nil, err
	}

	batchSize, err := parseIntEnv("OUTBOX_BATCH_SIZE", defaultBatchSize)
	if err != nil || batchSize <= 0 {
		err := e.Wrap("OUTBOX_BATCH_SIZE", e.ErrIncorrectEnvVariable)
		log.Errorf(err, "invalid OUTBOX_BATCH_SIZE")
		return nil, err
	}

	return &OutboxCfg{
		PollInterval: pollInterval,
		BatchSize:    batchSize,
	}, nil
}

// getEnv возвращает значение переменной окружения.
// Возвращает пустую строку, если переменная не задана.
func getEnv(key string) string {
	return os.Getenv(key)
}

// getEnvOrDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	return defaultValue
}

// parseDurationEnv считывает длительность или возвращает значение по умолчанию.
func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	if v := os.Getenv(key); v != "" {
		return time.ParseDuration(v)
	}

	return defaultValue, nil
}

func parseIntEnv(key string, defaultValue int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}

	intValue, err := strconv.Atoi(v)
	if err != nil {
		return defaultValue, e.ErrIncorrectEnvVariable
	}

	return intValue, nil
}
