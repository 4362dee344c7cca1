package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
)

const (
	backendTables = "tables"
	backendMongo  = "mongo"
	backendRedis  = "redis"
)

type config struct {
	Debug     bool          `toml:"debug"`
	Tracing   bool          `toml:"tracing"`
	Port      string        `toml:"port"`
	PublicDir string        `toml:"public_dir"`
	Storage   storageConfig `toml:"storage"`
}

type storageConfig struct {
	Backend               string `toml:"backend"`
	ConnectionString      string `toml:"connection_string"`
	ItemsTable            string `toml:"items_table"`
	ListsTable            string `toml:"lists_table"`
	MongoURI              string `toml:"mongo_uri"`
	MongoDatabase         string `toml:"mongo_database"`
	RedisConnectionString string `toml:"redis_connection_string"`
	RedisKeyPrefix        string `toml:"redis_key_prefix"`
}

func defaultConfig() config {
	return config{
		Port:      "3000",
		PublicDir: "public",
		Storage: storageConfig{
			Backend:        backendTables,
			ItemsTable:     "items",
			ListsTable:     "lists",
			MongoURI:       "mongodb://localhost:27017",
			MongoDatabase:  "todolistDB",
			RedisKeyPrefix: "todolist",
		},
	}
}

// loadConfig applies defaults, then the optional TOML file at path, then the environment.
func loadConfig(path string) (config, error) {
	cfg := defaultConfig()
	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return config{}, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}
	if err := loadFromEnv(&cfg); err != nil {
		return config{}, err
	}
	if err := cfg.validate(); err != nil {
		return config{}, err
	}
	return cfg, nil
}

func loadFromEnv(cfg *config) error {
	if v := os.Getenv("DEBUG"); v != "" {
		dbg, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid DEBUG: %w", err)
		}
		cfg.Debug = dbg
	}
	if v := os.Getenv("TRACING"); v != "" {
		tracing, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid TRACING: %w", err)
		}
		cfg.Tracing = tracing
	}
	if v := os.Getenv("PORT"); v != "" {
		cfg.Port = v
	}
	if v, ok := os.LookupEnv("FUNCTIONS_CUSTOMHANDLER_PORT"); ok {
		cfg.Port = v
	}
	setString(&cfg.PublicDir, "PUBLIC_DIR")
	setString(&cfg.Storage.Backend, "STORAGE_BACKEND")
	setString(&cfg.Storage.ConnectionString, "STORAGE_CONNECTION_STRING")
	setString(&cfg.Storage.ItemsTable, "ITEMS_TABLE")
	setString(&cfg.Storage.ListsTable, "LISTS_TABLE")
	setString(&cfg.Storage.MongoURI, "MONGO_URI")
	setString(&cfg.Storage.MongoDatabase, "MONGO_DATABASE")
	setString(&cfg.Storage.RedisConnectionString, "REDIS_CONNECTION_STRING")
	setString(&cfg.Storage.RedisKeyPrefix, "REDIS_KEY_PREFIX")
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func (c config) validate() error {
	if c.Port == "" {
		return errors.New("missing port")
	}
	switch c.Storage.Backend {
	case backendTables:
		if c.Storage.ConnectionString == "" || c.Storage.ItemsTable == "" || c.Storage.ListsTable == "" {
			return errors.New("missing storage config")
		}
	case backendMongo:
		if c.Storage.MongoURI == "" || c.Storage.MongoDatabase == "" {
			return errors.New("missing mongo config")
		}
	case backendRedis:
		if c.Storage.RedisConnectionString == "" {
			return errors.New("missing redis config")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	return nil
}
