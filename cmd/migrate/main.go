package main

import (
	"context"
	"flag"
	"os"
	"strconv"

	"moviesearch/bootstrap"
	"moviesearch/dynamodb"
	"moviesearch/pkg/config"
	"moviesearch/pkg/logger"
	"moviesearch/postgres"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

func main() {
	dir := flag.String("dir", "migrations", "directory holding the SQL migrations")
	down := flag.Bool("down", false, "roll back instead of applying")
	flag.Parse()

	startup := logger.Startup(os.Stderr)

	cfg, err := config.LoadConfig()
	if err != nil {
		startup.Errorw("cannot load config", "error", err)
		os.Exit(1)
	}
	log, err := logger.New(cfg.AppEnv)
	if err != nil {
		startup.Errorw("cannot init logger", "error", err)
		os.Exit(1)
	}
	defer log.Sync() //nolint:errcheck

	switch cfg.Storage.Driver {
	case config.StoragePostgres:
		migratePostgres(log, cfg, *dir, *down)
	case config.StorageDynamoDB:
		createDynamoDBTable(log, cfg)
	default:
		log.Infow("nothing to migrate", "storage", cfg.Storage.Driver)
	}
}

func migratePostgres(log *zap.SugaredLogger, cfg *config.Config, dir string, down bool) {
	db, err := postgres.NewConnection(postgres.Options{
		DBName:   cfg.DB.Name,
		DBUser:   cfg.DB.User,
		Password: cfg.DB.Pass,
		Host:     cfg.DB.Host,
		Port:     strconv.Itoa(cfg.DB.Port),
		SSLMode:  cfg.DB.EnableSSL,
	})
	if err != nil {
		log.Errorw("cannot connecting to db", "error", err)
		os.Exit(1)
	}

	total, err := postgres.Migrate(db, dir, down)
	if err != nil {
		log.Errorw("cannot execute migration", "error", err)
		os.Exit(1)
	}

	log.Infow("applied migrations", "total", total, "down", down)
}

func createDynamoDBTable(log *zap.SugaredLogger, cfg *config.Config) {
	ctx := context.Background()
	repo, err := dynamodb.Open(ctx, bootstrap.DynamoDBOptions(cfg))
	if err != nil {
		log.Errorw("cannot open dynamodb", "error", err)
		os.Exit(1)
	}

	if err := repo.EnsureTable(ctx); err != nil {
		log.Errorw("cannot create table", "table", repo.Table(), "error", err)
		os.Exit(1)
	}
	log.Infow("table ready", "table", repo.Table())
}
