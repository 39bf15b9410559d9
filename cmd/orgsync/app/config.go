package app

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/BEN-DataDev/orgs-sveltekit-etl/internal/config"
	"github.com/BEN-DataDev/orgs-sveltekit-etl/pkg/constants"
)

// Config holds the application configuration loaded from config files,
// environment variables and .env files.
type Config struct {
	// Global flags
	Verbose  bool
	Quiet    bool
	NoColor  bool
	Format   string
	LogLevel string

	// Config file
	ConfigFile string

	// Logging configuration
	LogFormat string
	LogOutput string

	// Supabase project. The sink itself talks to Postgres through DatabaseURL.
	SupabaseURL     string
	SupabaseAnonKey string
	DatabaseURL     string
	SQLitePath      string

	// Cache
	RedisHost       string
	RedisPort       int
	RedisDB         int
	RedisUsername   string
	RedisPassword   string
	CacheExpiration time.Duration

	// Registries
	ABNSearchGUID   string
	NSWRequestDelay time.Duration
	SyncConcurrency int

	// Outputs
	ExportDir   string
	Reports     bool
	S3Endpoint  string
	S3Bucket    string
	S3AccessKey string
	S3SecretKey string
	S3Region    string
	S3UseSSL    bool
	S3Prefix    string

	// Server
	Host           string
	Port           int
	APIKey         string
	RateLimit      int
	MetricsEnabled bool
}

// envKeys are bound explicitly so .env values reach viper even when no
// config file mentions them.
var envKeys = []string{
	"PUBLIC_SUPABASE_URL",
	"PUBLIC_SUPABASE_ANON_KEY",
	"DATABASE_URL",
	"SQLITE_PATH",
	"REDIS_HOST",
	"REDIS_PORT",
	"REDIS_DB",
	"PRIVATE_REDIS_USERNAME",
	"PRIVATE_REDIS_PASSWORD",
	"CACHE_EXPIRATION",
	"PRIVATE_ABN_SEARCH_GUID",
	"NSW_REQUEST_DELAY",
	"SYNC_CONCURRENCY",
	"EXPORT_DIR",
	"SYNC_REPORTS",
	"S3_ENDPOINT",
	"S3_BUCKET",
	"S3_ACCESS_KEY",
	"S3_SECRET_KEY",
	"S3_REGION",
	"S3_USE_SSL",
	"S3_PREFIX",
	"HOST",
	"PORT",
	"API_KEY",
	"RATE_LIMIT",
	"METRICS_ENABLED",
	"OUTPUT",
	"VERBOSE",
	"QUIET",
}

// LoadConfig loads configuration from all sources in order of precedence:
//  1. Command-line flags (handled by cobra)
//  2. Environment variables
//  3. .env files
//  4. Config file (./.orgsync.yaml or ~/.orgsync.yaml)
//  5. Defaults
func LoadConfig() (*Config, error) {
	loadEnvFiles()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	bindEnv()

	configFile := viper.GetString("config")
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(home)
		}
		viper.SetConfigType("yaml")
		viper.SetConfigName(".orgsync")
	}

	// Read config file (ignore error if not found)
	_ = viper.ReadInConfig()

	return fromViper(), nil
}

// ReadConfigFile loads an explicit config file given with --config.
func ReadConfigFile(path string) (*Config, error) {
	viper.SetConfigFile(path)
	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}
	return fromViper(), nil
}

func fromViper() *Config {
	return &Config{
		Verbose: viper.GetBool("verbose"),
		Quiet:   viper.GetBool("quiet"),
		Format:  viper.GetString("output"),

		ConfigFile: viper.ConfigFileUsed(),

		LogFormat: config.GetStringDefault("LOG_FORMAT", "auto"),
		LogOutput: config.GetStringDefault("LOG_OUTPUT", "stderr"),

		SupabaseURL:     config.GetString("PUBLIC_SUPABASE_URL"),
		SupabaseAnonKey: config.GetString("PUBLIC_SUPABASE_ANON_KEY"),
		DatabaseURL:     config.GetString("DATABASE_URL"),
		SQLitePath:      config.GetString("SQLITE_PATH"),

		RedisHost:       config.GetString("REDIS_HOST"),
		RedisPort:       config.GetInt("REDIS_PORT", 6379),
		RedisDB:         config.GetInt("REDIS_DB", 0),
		RedisUsername:   config.GetString("PRIVATE_REDIS_USERNAME"),
		RedisPassword:   config.GetString("PRIVATE_REDIS_PASSWORD"),
		CacheExpiration: config.GetDuration("CACHE_EXPIRATION", constants.CacheExpiration),

		ABNSearchGUID:   config.GetString("PRIVATE_ABN_SEARCH_GUID"),
		NSWRequestDelay: config.GetDuration("NSW_REQUEST_DELAY", constants.NSWRequestDelay),
		SyncConcurrency: config.GetInt("SYNC_CONCURRENCY", constants.DefaultConcurrency),

		ExportDir:   config.GetStringDefault("EXPORT_DIR", "."),
		Reports:     config.GetBool("SYNC_REPORTS", false),
		S3Endpoint:  config.GetString("S3_ENDPOINT"),
		S3Bucket:    config.GetString("S3_BUCKET"),
		S3AccessKey: config.GetString("S3_ACCESS_KEY"),
		S3SecretKey: config.GetString("S3_SECRET_KEY"),
		S3Region:    config.GetString("S3_REGION"),
		S3UseSSL:    config.GetBool("S3_USE_SSL", true),
		S3Prefix:    config.GetString("S3_PREFIX"),

		Host:           config.GetStringDefault("HOST", "0.0.0.0"),
		Port:           config.GetInt("PORT", 8000),
		APIKey:         config.GetString("API_KEY"),
		RateLimit:      config.GetInt("RATE_LIMIT", 0),
		MetricsEnabled: config.GetBool("METRICS_ENABLED", true),
	}
}

// UpdateFromFlags updates config values from parsed command flags so flag
// values take precedence over config file and env vars.
func (c *Config) UpdateFromFlags(verbose, quiet, noColor bool, format, logLevel string) {
	c.Verbose = verbose
	c.Quiet = quiet
	c.NoColor = noColor
	if format != "" {
		c.Format = format
	}
	if logLevel != "" {
		c.LogLevel = logLevel
	}
}

// loadEnvFiles loads environment variables from .env files.
// Variables already set in the process environment are never overridden.
func loadEnvFiles() {
	for _, envFile := range []string{".env", ".env.local"} {
		_ = godotenv.Load(envFile)
	}
}

func bindEnv() {
	for _, key := range envKeys {
		if err := viper.BindEnv(key); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to bind environment variable %s: %v\n", key, err)
		}
	}
}
