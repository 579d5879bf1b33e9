package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

var Empty = new(Config)

const (
	StorageFile     = "file"
	StoragePostgres = "postgres"
	StorageRedis    = "redis"
	StorageDynamoDB = "dynamodb"
)

type Config struct {
	AppEnv       string `envconfig:"APP_ENV"`
	Port         int    `envconfig:"PORT"`
	SentryDSN    string `envconfig:"SENTRY_DSN"`
	AllowOrigins string `envconfig:"ALLOW_ORIGINS"`

	OMDb struct {
		APIKey  string        `envconfig:"OMDB_API_KEY"`
		BaseURL string        `envconfig:"OMDB_BASE_URL" default:"https://www.omdbapi.com"`
		Timeout time.Duration `envconfig:"OMDB_TIMEOUT" default:"10s"`
		Plot    string        `envconfig:"OMDB_PLOT" default:"full"`
	}
	Cache struct {
		SearchTTL     time.Duration `envconfig:"CACHE_SEARCH_TTL" default:"5m"`
		SuggestionTTL time.Duration `envconfig:"CACHE_SUGGESTION_TTL" default:"2m"`
		DetailTTL     time.Duration `envconfig:"CACHE_DETAIL_TTL" default:"10m"`
		// Shared puts redis behind the in-process caches.
		Shared bool `envconfig:"CACHE_SHARED"`
	}
	Search struct {
		Debounce time.Duration `envconfig:"SEARCH_DEBOUNCE" default:"500ms"`
	}
	Storage struct {
		Driver    string `envconfig:"STORAGE_DRIVER" default:"file"`
		FilePath  string `envconfig:"STORAGE_FILE_PATH" default:"movies.json"`
		Namespace string `envconfig:"STORAGE_NAMESPACE"`
	}

	DB struct {
		Name      string `envconfig:"DB_NAME"`
		Host      string `envconfig:"DB_HOST"`
		Port      int    `envconfig:"DB_PORT"`
		User      string `envconfig:"DB_USER"`
		Pass      string `envconfig:"DB_PASS"`
		EnableSSL bool   `envconfig:"ENABLE_SSL"`
	}
	Redis struct {
		Addr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
		Password string `envconfig:"REDIS_PASSWORD"`
		DB       int    `envconfig:"REDIS_DB"`
		Prefix   string `envconfig:"REDIS_PREFIX" default:"moviesearch"`
	}
	DynamoDB struct {
		Region         string `envconfig:"DDB_REGION"`
		Endpoint       string `envconfig:"DDB_ENDPOINT"`
		AccessKey      string `envconfig:"DDB_ACCESS_KEY"`
		SecretKey      string `envconfig:"DDB_SECRET_KEY"`
		SessionToken   string `envconfig:"DDB_SESSION_TOKEN"`
		UserListsTable string `envconfig:"DDB_USER_LISTS_TABLE" default:"user_lists"`
	}
}

func LoadConfig() (*Config, error) {
	// load default .env file, ignore the error
	_ = godotenv.Load()

	cfg := new(Config)
	err := envconfig.Process("", cfg)
	if err != nil {
		return nil, fmt.Errorf("load config error: %v", err)
	}

	switch cfg.Storage.Driver {
	case StorageFile, StoragePostgres, StorageRedis, StorageDynamoDB:
	default:
		return nil, fmt.Errorf("load config error: unknown storage driver %q", cfg.Storage.Driver)
	}

	return cfg, nil
}
