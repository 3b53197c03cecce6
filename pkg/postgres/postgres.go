package postgres

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	migrations "github.com/DRSN-tech/catalog-backend/db"
	"github.com/DRSN-tech/catalog-backend/internal/cfg"
	"github.com/DRSN-tech/catalog-backend/pkg/e"
	"github.com/DRSN-tech/catalog-backend/pkg/logger"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jimlawless/whereami"
)

// PgDatabase инкапсулирует пул соединений к PostgreSQL и управление миграциями.
// Создаётся один раз при старте и передаётся во все репозитории.
type PgDatabase struct {
	Pool    *pgxpool.Pool
	Bounded *BoundedPool
	Dsn     string
	cfg     *cfg.PGDBCfg
}

func NewPgDatabase(pool *pgxpool.Pool, cfg *cfg.PGDBCfg) *PgDatabase {
	return &PgDatabase{
		Pool:    pool,
		Bounded: NewBoundedPool(pool, cfg.AcquireTimeout),
		Dsn:     cfg.URL,
		cfg:     cfg,
	}
}

// Connect устанавливает соединение с PostgreSQL.
func Connect(cfg *cfg.PGDBCfg) (*PgDatabase, error) {
	const op = "PgDatabase.Connect"

	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MaxConnIdleTime = cfg.IdleTimeout

	pool, err := pgxpool.NewWithConfig(context.Background(), poolCfg)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	db := NewPgDatabase(pool, cfg)
	if err := db.Ping(); err != nil {
		pool.Close()
		return nil, e.Wrap(op, err)
	}

	return db, nil
}

func (db *PgDatabase) Ping() error {
	const op = "PgDatabase.Ping"
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	if err := db.Pool.Ping(ctx); err != nil {
		return e.Wrap(op, err)
	}

	return nil
}

// Close корректно закрывает пул соединений к базе данных.
func (db *PgDatabase) Close() {
	if db.Pool != nil {
		db.Pool.Close()
	}
}

// RunMigrations применяет ожидающие миграции, встроенные в пакет db.
func (db *PgDatabase) RunMigrations(logger logger.Logger) error {
	const (
		op                 = "PgDatabase.RunMigrations"
		driverName         = "pgx"
		databaseDriverName = "postgres"
		sourceName         = "iofs"
		migrationsDir      = "migrations"
	)

	sqlDb, err := sql.Open(driverName, db.Dsn)
	if err != nil {
		return e.Wrap(op, err)
	}
	defer sqlDb.Close()

	driver, err := postgres.WithInstance(sqlDb, &postgres.Config{})
	if err != nil {
		return e.Wrap(op, err)
	}

	source, err := iofs.New(migrations.Migrations, migrationsDir)
	if err != nil {
		return e.Wrap(op, err)
	}

	m, err := migrate.NewWithInstance(sourceName, source, databaseDriverName, driver)
	if err != nil {
		return e.Wrap(op, err)
	}

	err = m.Up()
	if err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			return nil
		}
		return e.Wrap(op, err)
	}

	logger.Infof("migrations applied successfully")
	return nil
}

// BoundedPool ограничивает ожидание свободного соединения. Время выполнения
// самих запросов не ограничивается.
type BoundedPool struct {
	pool           *pgxpool.Pool
	acquireTimeout time.Duration
}

func NewBoundedPool(pool *pgxpool.Pool, acquireTimeout time.Duration) *BoundedPool {
	return &BoundedPool{pool: pool, acquireTimeout: acquireTimeout}
}

func (b *BoundedPool) acquire(ctx context.Context) (*pgxpool.Conn, error) {
	acquireCtx, cancel := context.WithTimeout(ctx, b.acquireTimeout)
	defer cancel()

	conn, err := b.pool.Acquire(acquireCtx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, e.Wrap(whereami.WhereAmI(), e.ErrAcquireTimeout)
		}
		return nil, err
	}

	return conn, nil
}

func (b *BoundedPool) Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	conn, err := b.acquire(ctx)
	if err != nil {
		return pgconn.CommandTag{}, err
	}
	defer conn.Release()

	return conn.Exec(ctx, query, args...)
}

// Query возвращает строки, удерживающие соединение до их закрытия.
func (b *BoundedPool) Query(ctx context.Context, query string, args ...any) (pgx.Rows, error) {
	conn, err := b.acquire(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := conn.Query(ctx, query, args...)
	if err != nil {
		conn.Release()
		return nil, err
	}

	return &releasingRows{Rows: rows, conn: conn}, nil
}

// BeginTx выделяет соединение под транзакцию. Соединение возвращается в пул
// после Commit или Rollback.
func (b *BoundedPool) BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error) {
	conn, err := b.acquire(ctx)
	if err != nil {
		return nil, err
	}

	tx, err := conn.BeginTx(ctx, opts)
	if err != nil {
		conn.Release()
		return nil, err
	}

	return &releasingTx{Tx: tx, conn: conn}, nil
}

func (b *BoundedPool) Begin(ctx context.Context) (pgx.Tx, error) {
	return b.BeginTx(ctx, pgx.TxOptions{})
}

type releasingRows struct {
	pgx.Rows
	conn *pgxpool.Conn
	once sync.Once
}

func (r *releasingRows) Close() {
	r.Rows.Close()
	r.once.Do(r.conn.Release)
}

// Next закрывает строки по исчерпании, чтобы соединение вернулось в пул даже без явного Close.
func (r *releasingRows) Next() bool {
	if r.Rows.Next() {
		return true
	}
	r.Close()
	return false
}

type releasingTx struct {
	pgx.Tx
	conn *pgxpool.Conn
	once sync.Once
}

func (t *releasingTx) Commit(ctx context.Context) error {
	err := t.Tx.Commit(ctx)
	t.once.Do(t.conn.Release)
	return err
}

func (t *releasingTx) Rollback(ctx context.Context) error {
	err := t.Tx.Rollback(ctx)
	t.once.Do(t.conn.Release)
	return err
}
