package core

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/mnemolabs/fire-go/pkg/fire"
	"github.com/mnemolabs/fire-go/pkg/storage"
	mysqlStore "github.com/mnemolabs/fire-go/pkg/storage/mysql"
	postgresStore "github.com/mnemolabs/fire-go/pkg/storage/postgres"
	sqliteStore "github.com/mnemolabs/fire-go/pkg/storage/sqlite"
)

// Config contains the complete configuration for an engine client.
//
// Example:
//
//	config := &core.Config{
//	    Engine: fire.DefaultConfig(),
//	    Storage: core.StorageConfig{
//	        Provider: "sqlite",
//	        SQLitePath: "./progress.db",
//	    },
//	}
type Config struct {
	// Engine contains the FIRe tunables. Nil selects fire.DefaultConfig().
	Engine *fire.Config `json:"engine"`

	// Storage selects and configures the progress-store backend.
	Storage StorageConfig `json:"storage"`
}

// StorageConfig selects a progress-store backend.
//
// Supported providers: sqlite, postgres, mysql.
type StorageConfig struct {
	// Provider is the backend name (sqlite, postgres, mysql).
	Provider string `json:"provider"`

	// SQLitePath is the database file path for the sqlite provider.
	SQLitePath string `json:"sqlite_path,omitempty"`

	// Host, Port, User, Password, DBName configure the postgres and mysql
	// providers.
	Host     string `json:"host,omitempty"`
	Port     int    `json:"port,omitempty"`
	User     string `json:"user,omitempty"`
	Password string `json:"password,omitempty"`
	DBName   string `json:"db_name,omitempty"`

	// SSLMode configures TLS for the postgres provider.
	SSLMode string `json:"ssl_mode,omitempty"`
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	switch c.Storage.Provider {
	case "", "sqlite", "postgres", "mysql":
		return nil
	default:
		return NewEngineError("Validate", ErrUnknownProvider)
	}
}

// OpenStore opens the progress store selected by the configuration.
//
// An empty provider defaults to sqlite.
func OpenStore(cfg StorageConfig) (storage.ProgressStore, error) {
	switch cfg.Provider {
	case "", "sqlite":
		path := cfg.SQLitePath
		if path == "" {
			path = "./fire.db"
		}
		return sqliteStore.NewStore(&sqliteStore.Config{DBPath: path})
	case "postgres":
		return postgresStore.NewStore(&postgresStore.Config{
			Host:     cfg.Host,
			Port:     cfg.Port,
			User:     cfg.User,
			Password: cfg.Password,
			DBName:   cfg.DBName,
			SSLMode:  cfg.SSLMode,
		})
	case "mysql":
		return mysqlStore.NewStore(&mysqlStore.Config{
			Host:     cfg.Host,
			Port:     cfg.Port,
			User:     cfg.User,
			Password: cfg.Password,
			DBName:   cfg.DBName,
		})
	default:
		return nil, NewEngineError("OpenStore", ErrUnknownProvider)
	}
}

// LoadConfigFromEnv loads configuration from environment variables.
//
// The function searches for a .env file (up to 5 directory levels up),
// loads it when found, and then reads:
//
//	DATABASE_PROVIDER           sqlite (default), postgres, mysql
//	SQLITE_PATH                 sqlite database file
//	POSTGRES_HOST, POSTGRES_PORT, POSTGRES_USER, POSTGRES_PASSWORD,
//	POSTGRES_DATABASE, POSTGRES_SSLMODE
//	MYSQL_HOST, MYSQL_PORT, MYSQL_USER, MYSQL_PASSWORD, MYSQL_DATABASE
//
// Engine tunables override fire.DefaultConfig():
//
//	FIRE_MEMORY_DUE_THRESHOLD, FIRE_MIN_CREDIT_THRESHOLD,
//	FIRE_MAX_PROPAGATION_DEPTH, FIRE_KNOCKOUT_WEIGHT_THRESHOLD,
//	FIRE_MIN_LEARNING_SPEED, FIRE_MAX_LEARNING_SPEED,
//	FIRE_SLOW_LEARNER_IMPLICIT_CREDIT
func LoadConfigFromEnv() (*Config, error) {
	if envPath, found := FindEnvFile(); found {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load()
	}

	provider := getEnvOrDefault("DATABASE_PROVIDER", "sqlite")
	storageCfg := StorageConfig{Provider: provider}

	switch provider {
	case "sqlite":
		storageCfg.SQLitePath = getEnvOrDefault("SQLITE_PATH", "./fire.db")
	case "postgres":
		port, _ := strconv.Atoi(getEnvOrDefault("POSTGRES_PORT", "5432"))
		storageCfg.Host = getEnvOrDefault("POSTGRES_HOST", "localhost")
		storageCfg.Port = port
		storageCfg.User = getEnvOrDefault("POSTGRES_USER", "postgres")
		storageCfg.Password = os.Getenv("POSTGRES_PASSWORD")
		storageCfg.DBName = getEnvOrDefault("POSTGRES_DATABASE", "fire")
		storageCfg.SSLMode = getEnvOrDefault("POSTGRES_SSLMODE", "disable")
	case "mysql":
		port, _ := strconv.Atoi(getEnvOrDefault("MYSQL_PORT", "3306"))
		storageCfg.Host = getEnvOrDefault("MYSQL_HOST", "127.0.0.1")
		storageCfg.Port = port
		storageCfg.User = getEnvOrDefault("MYSQL_USER", "root")
		storageCfg.Password = os.Getenv("MYSQL_PASSWORD")
		storageCfg.DBName = getEnvOrDefault("MYSQL_DATABASE", "fire")
	}

	engine := fire.DefaultConfig()
	setEnvFloat("FIRE_MEMORY_DUE_THRESHOLD", &engine.MemoryDueThreshold)
	setEnvFloat("FIRE_MIN_CREDIT_THRESHOLD", &engine.MinCreditThreshold)
	setEnvInt("FIRE_MAX_PROPAGATION_DEPTH", &engine.MaxPropagationDepth)
	setEnvFloat("FIRE_KNOCKOUT_WEIGHT_THRESHOLD", &engine.KnockoutWeightThreshold)
	setEnvFloat("FIRE_MIN_LEARNING_SPEED", &engine.MinLearningSpeed)
	setEnvFloat("FIRE_MAX_LEARNING_SPEED", &engine.MaxLearningSpeed)
	if v := os.Getenv("FIRE_SLOW_LEARNER_IMPLICIT_CREDIT"); v != "" {
		engine.SlowLearnerImplicitCredit = v == "true" || v == "1"
	}

	config := &Config{Engine: engine, Storage: storageCfg}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// FindEnvFile searches the current directory and up to 5 parents for a .env
// or .env.example file, returning the first hit.
func FindEnvFile() (string, bool) {
	if _, err := os.Stat(".env"); err == nil {
		return ".env", true
	}
	if _, err := os.Stat(".env.example"); err == nil {
		return ".env.example", true
	}

	dir, _ := os.Getwd()
	for i := 0; i < 5; i++ {
		for _, name := range []string{".env", ".env.example"} {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path, true
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func setEnvFloat(key string, dst *float64) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setEnvInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}
