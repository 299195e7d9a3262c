package data

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/yixianOu/moviestore/internal/biz"
	"github.com/yixianOu/moviestore/internal/conf"
)

// ProviderSet is data providers for the API.
var ProviderSet = wire.NewSet(
	NewData,
	NewMovieRepo,
	NewMovieCache,
)

// IngestProviderSet is data providers for the processor.
var IngestProviderSet = wire.NewSet(
	NewData,
	NewMovieRepo,
	NewAWSConfig,
	NewNotificationQueue,
	NewObjectStore,
)

const defaultCacheTTL = time.Hour

// Data encapsulates database and cache connections
type Data struct {
	db  *gorm.DB
	rdb *redis.Client
	ttl time.Duration
	log *log.Helper
}

// NewData creates Data instance with database and Redis connections. Redis
// is skipped when c.Redis is nil.
func NewData(c *conf.Data, logger log.Logger) (*Data, func(), error) {
	l := log.NewHelper(logger)
	if c == nil || c.Database == nil {
		return nil, nil, errors.New("data.database is not configured")
	}

	// Initialize PostgreSQL connection
	db, err := gorm.Open(postgres.Open(c.Database.Source), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		l.Errorf("failed to connect to database: %v", err)
		return nil, nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		l.Errorf("failed to get database instance: %v", err)
		return nil, nil, err
	}

	// Configure connection pool
	sqlDB.SetMaxIdleConns(orDefault(c.Database.MaxIdleConns, 10))
	sqlDB.SetMaxOpenConns(orDefault(c.Database.MaxOpenConns, 100))
	lifetime := c.Database.ConnMaxLifetime.AsDuration()
	if lifetime <= 0 {
		lifetime = time.Hour
	}
	sqlDB.SetConnMaxLifetime(lifetime)

	if c.Database.AutoMigrate {
		if err := db.AutoMigrate(&Movie{}); err != nil {
			l.Errorf("failed to migrate database: %v", err)
			_ = sqlDB.Close()
			return nil, nil, fmt.Errorf("auto migrate: %w", err)
		}
	}

	l.Info("database connected successfully")

	data := &Data{
		db:  db,
		ttl: defaultCacheTTL,
		log: l,
	}

	if c.Redis != nil {
		data.rdb = redis.NewClient(&redis.Options{
			Addr:         c.Redis.Addr,
			Password:     c.Redis.Password,
			DB:           c.Redis.Db,
			DialTimeout:  c.Redis.DialTimeout.AsDuration(),
			ReadTimeout:  c.Redis.ReadTimeout.AsDuration(),
			WriteTimeout: c.Redis.WriteTimeout.AsDuration(),
		})
		if ttl := c.Redis.Ttl.AsDuration(); ttl > 0 {
			data.ttl = ttl
		}

		// Test Redis connection
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := data.rdb.Ping(ctx).Err(); err != nil {
			// Redis is optional; the client keeps reconnecting and reads fall
			// through to the database meanwhile.
			l.Warnf("failed to connect to redis: %v", err)
		} else {
			l.Info("redis connected successfully")
		}
	}

	cleanup := func() {
		l.Info("closing data resources")
		if data.rdb != nil {
			if err := data.rdb.Close(); err != nil {
				l.Errorf("failed to close redis: %v", err)
			}
		}
		if err := sqlDB.Close(); err != nil {
			l.Errorf("failed to close database: %v", err)
		}
	}

	return data, cleanup, nil
}

// storeError maps gorm errors onto the biz taxonomy.
func storeError(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return biz.ErrMovieNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return biz.ErrMovieAlreadyExists
	default:
		return fmt.Errorf("%w: %s: %v", biz.ErrStoreUnavailable, op, err)
	}
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
