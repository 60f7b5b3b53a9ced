package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dcode-github/property_listing_search/logger"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Mongo       MongoConfig       `mapstructure:"mongo"`
	Redis       RedisConfig       `mapstructure:"redis"`
	NATS        NATSConfig        `mapstructure:"nats"`
	Storage     StorageConfig     `mapstructure:"storage"`
	Saved       SavedConfig       `mapstructure:"saved"`
	Idempotency IdempotencyConfig `mapstructure:"idempotency"`
	JWT         JWTConfig         `mapstructure:"jwt"`
	CORS        CORSConfig        `mapstructure:"cors"`
	Search      SearchConfig      `mapstructure:"search"`
	Log         logger.Config     `mapstructure:"log"`
}

type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type MongoConfig struct {
	URI            string        `mapstructure:"uri"`
	Database       string        `mapstructure:"database"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	MinPoolSize    uint64        `mapstructure:"min_pool_size"`
	MaxPoolSize    uint64        `mapstructure:"max_pool_size"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type NATSConfig struct {
	// An empty URL disables event publishing.
	URL            string        `mapstructure:"url"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

type StorageConfig struct {
	Driver string `mapstructure:"driver"`
	// SeedFile is a JSON array of listings loaded into the memory driver.
	SeedFile string `mapstructure:"seed_file"`
}

type SavedConfig struct {
	Backend   string `mapstructure:"backend"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

type IdempotencyConfig struct {
	Backend   string        `mapstructure:"backend"`
	TTL       time.Duration `mapstructure:"ttl"`
	ClaimWait time.Duration `mapstructure:"claim_wait"`
}

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
	Issuer string `mapstructure:"issuer"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type SearchConfig struct {
	MaxResults     int64         `mapstructure:"max_results"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

const envPrefix = "LISTINGS"

var (
	storageDrivers     = []string{"mongo", "memory"}
	savedBackends      = []string{"mongo", "redis", "memory"}
	idempotencyBackend = []string{"redis", "memory"}
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_timeout", "10s")
	v.SetDefault("server.write_timeout", "10s")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("mongo.database", "property_listings")
	v.SetDefault("mongo.connect_timeout", "10s")
	v.SetDefault("mongo.min_pool_size", 0)
	v.SetDefault("mongo.max_pool_size", 100)

	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("nats.url", "")
	v.SetDefault("nats.connect_timeout", "5s")

	v.SetDefault("storage.driver", "mongo")
	v.SetDefault("storage.seed_file", "")
	v.SetDefault("saved.backend", "mongo")
	v.SetDefault("saved.key_prefix", "saved:")
	v.SetDefault("idempotency.backend", "memory")
	v.SetDefault("idempotency.ttl", "24h")
	v.SetDefault("idempotency.claim_wait", "2s")

	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.issuer", "property_listing_system")

	v.SetDefault("cors.allowed_origins", []string{"*"})

	v.SetDefault("search.max_results", 500)
	v.SetDefault("search.request_timeout", "5s")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.output_file", "stdout")
}

// Load reads .env if present, then an optional config.yaml at path, then
// LISTINGS_* environment variables (LISTINGS_MONGO_URI and so on).
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if path != "" {
		if fi, err := os.Stat(path); err == nil && !fi.IsDir() {
			v.SetConfigFile(path)
		} else {
			v.AddConfigPath(path)
			v.SetConfigName("config")
			v.SetConfigType("yaml")
		}
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if !oneOf(c.Storage.Driver, storageDrivers) {
		return fmt.Errorf("storage.driver %q: want one of %v", c.Storage.Driver, storageDrivers)
	}
	if !oneOf(c.Saved.Backend, savedBackends) {
		return fmt.Errorf("saved.backend %q: want one of %v", c.Saved.Backend, savedBackends)
	}
	if !oneOf(c.Idempotency.Backend, idempotencyBackend) {
		return fmt.Errorf("idempotency.backend %q: want one of %v", c.Idempotency.Backend, idempotencyBackend)
	}
	if c.Saved.Backend == "mongo" && c.Storage.Driver != "mongo" {
		return errors.New("saved.backend mongo requires storage.driver mongo")
	}
	if c.JWT.Secret == "" {
		return errors.New("jwt.secret must be set")
	}
	return nil
}

// NeedsMongo and NeedsRedis report whether any selected backend uses the
// store, so main only dials what it needs.
func (c *Config) NeedsMongo() bool {
	return c.Storage.Driver == "mongo" || c.Saved.Backend == "mongo"
}

func (c *Config) NeedsRedis() bool {
	return c.Saved.Backend == "redis" || c.Idempotency.Backend == "redis"
}

func oneOf(v string, allowed []string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}
