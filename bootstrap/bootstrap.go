// Package bootstrap builds the movie and user list services from config for
// the command line programs.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"moviesearch/dynamodb"
	"moviesearch/filestore"
	"moviesearch/movie"
	"moviesearch/omdb"
	"moviesearch/pkg/config"
	"moviesearch/postgres"
	"moviesearch/querycache"
	"moviesearch/redis"
	"moviesearch/userlist"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Services struct {
	Movies *movie.Usecase
	Lists  *userlist.Store

	redis   *goredis.Client
	closers []func() error
}

func New(ctx context.Context, cfg *config.Config, log *zap.SugaredLogger) (*Services, error) {
	s := &Services{}

	storage, err := s.storage(ctx, cfg, log)
	if err != nil {
		_ = s.Close()
		return nil, err
	}
	s.Lists = userlist.NewStore(storage, userlist.Options{
		Namespace: cfg.Storage.Namespace,
		Logger:    log,
	})

	catalog := omdb.NewClient(omdb.Options{
		BaseURL: cfg.OMDb.BaseURL,
		APIKey:  cfg.OMDb.APIKey,
		Timeout: cfg.OMDb.Timeout,
		Plot:    cfg.OMDb.Plot,
		Logger:  log,
	})
	if cfg.OMDb.APIKey == "" {
		log.Warnw("OMDB_API_KEY is empty, every lookup will be rejected upstream")
	}

	opts := movie.CacheOptions{
		SearchTTL:     cfg.Cache.SearchTTL,
		SuggestionTTL: cfg.Cache.SuggestionTTL,
		DetailTTL:     cfg.Cache.DetailTTL,
		Options:       []querycache.Option{querycache.WithLogger(log)},
	}
	if cfg.Cache.Shared {
		client, err := s.redisClient(ctx, cfg, log)
		if err != nil {
			_ = s.Close()
			return nil, err
		}
		opts.Options = append(opts.Options, querycache.WithShared(redis.NewCache(client, cfg.Redis.Prefix)))
	}
	s.Movies = movie.NewUsecase(catalog, opts)

	return s, nil
}

// Close releases every connection opened by New.
func (s *Services) Close() error {
	var errList []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errList = append(errList, err)
		}
	}
	s.closers = nil
	return errors.Join(errList...)
}

func (s *Services) storage(ctx context.Context, cfg *config.Config, log *zap.SugaredLogger) (userlist.Storage, error) {
	switch cfg.Storage.Driver {
	case config.StoragePostgres:
		db, err := postgres.NewConnection(postgres.Options{
			DBName:   cfg.DB.Name,
			DBUser:   cfg.DB.User,
			Password: cfg.DB.Pass,
			Host:     cfg.DB.Host,
			Port:     strconv.Itoa(cfg.DB.Port),
			SSLMode:  cfg.DB.EnableSSL,
			Silent:   true,
		})
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		s.closers = append(s.closers, sqlDB.Close)
		return postgres.NewKeyValueRepository(db), nil

	case config.StorageRedis:
		client, err := s.redisClient(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		return redis.NewStorage(client, cfg.Redis.Prefix), nil

	case config.StorageDynamoDB:
		return dynamodb.Open(ctx, DynamoDBOptions(cfg))

	default:
		log.Infow("user lists stored on disk", "path", cfg.Storage.FilePath)
		return filestore.New(cfg.Storage.FilePath), nil
	}
}

// DynamoDBOptions maps the DDB_* settings onto the dynamodb package.
func DynamoDBOptions(cfg *config.Config) dynamodb.Options {
	return dynamodb.Options{
		Region:       cfg.DynamoDB.Region,
		Endpoint:     cfg.DynamoDB.Endpoint,
		AccessKey:    cfg.DynamoDB.AccessKey,
		SecretKey:    cfg.DynamoDB.SecretKey,
		SessionToken: cfg.DynamoDB.SessionToken,
		Table:        cfg.DynamoDB.UserListsTable,
	}
}

func (s *Services) redisClient(ctx context.Context, cfg *config.Config, log *zap.SugaredLogger) (*goredis.Client, error) {
	if s.redis != nil {
		return s.redis, nil
	}
	client, err := redis.NewClient(ctx, redis.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}, log)
	if err != nil {
		return nil, err
	}
	s.redis = client
	s.closers = append(s.closers, client.Close)
	return client, nil
}
