package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// BaseConfig holds base configuration
type BaseConfig struct {
	Debug     bool   `mapstructure:"debug"`
	SentryDSN string `mapstructure:"sentry_dsn"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`     // Maximum number of open connections to the database
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`     // Maximum number of idle connections in the pool
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`  // Maximum amount of time a connection may be reused (e.g., "5m", "1h")
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"` // Maximum amount of time a connection may be idle (e.g., "10m", "30m")
}

// NATSConfig holds NATS JetStream configuration.
// Events are disabled when URL is empty.
type NATSConfig struct {
	URL            string        `mapstructure:"url"`
	StreamName     string        `mapstructure:"stream_name"`
	MaxReconnects  int           `mapstructure:"max_reconnects"`
	ReconnectWait  time.Duration `mapstructure:"reconnect_wait"`
	ConnectionName string        `mapstructure:"connection_name"`
}

// StorageConfig holds the on-disk layout and the inline content ceiling
type StorageConfig struct {
	RootPath       string `mapstructure:"root_path"`
	UploadRoot     string `mapstructure:"upload_root"`
	InlineMaxBytes int64  `mapstructure:"inline_max_bytes"`
}

// FormatsConfig holds the format policy lists
type FormatsConfig struct {
	Allow      []string `mapstructure:"allow"`
	Container  []string `mapstructure:"container"`
	Deny       []string `mapstructure:"deny"`
	PolicyPath string   `mapstructure:"policy_path"` // optional JSON file overriding the lists above
}

// CatalogConfig holds the catalog source configuration
type CatalogConfig struct {
	Mode           string `mapstructure:"mode"` // "http" or "file"
	FullURL        string `mapstructure:"full_url"`
	DeltaURL       string `mapstructure:"delta_url"`
	FallbackCSVURL string `mapstructure:"fallback_csv_url"`
	LocalPath      string `mapstructure:"local_path"`
	BatchSize      int    `mapstructure:"batch_size"`
}

// HarvestConfig holds resource harvester configuration
type HarvestConfig struct {
	DetailURLTemplate string  `mapstructure:"detail_url_template"`
	Concurrency       int     `mapstructure:"concurrency"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"` // 0 disables the limiter
	ProgressEvery     int     `mapstructure:"progress_every"`
}

// HTTPConfig holds outbound HTTP configuration
type HTTPConfig struct {
	Timeout   time.Duration `mapstructure:"timeout"`
	UserAgent string        `mapstructure:"user_agent"`
}

// LibreOfficeConfig holds the external spreadsheet converter configuration
type LibreOfficeConfig struct {
	SofficePath string        `mapstructure:"soffice_path"`
	WaitTimeout time.Duration `mapstructure:"wait_timeout"`
}

// ImporterConfig holds configuration for the importer program
type ImporterConfig struct {
	BaseConfig  `mapstructure:",squash"`
	Database    DatabaseConfig    `mapstructure:"database"`
	NATS        NATSConfig        `mapstructure:"nats"`
	Storage     StorageConfig     `mapstructure:"storage"`
	Formats     FormatsConfig     `mapstructure:"formats"`
	Catalog     CatalogConfig     `mapstructure:"catalog"`
	Harvest     HarvestConfig     `mapstructure:"harvest"`
	HTTP        HTTPConfig        `mapstructure:"http"`
	LibreOffice LibreOfficeConfig `mapstructure:"libreoffice"`
}

// LoadImporterConfig loads configuration for the importer program
func LoadImporterConfig(configFile string, envPath string) (*ImporterConfig, error) {
	v := configureViper("importer", configFile, envPath)

	// Set defaults
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "1h")
	v.SetDefault("database.conn_max_idle_time", "10m")
	v.SetDefault("nats.max_reconnects", 10)
	v.SetDefault("nats.reconnect_wait", "2s")
	v.SetDefault("nats.stream_name", "OPENDATA_EVENTS")
	v.SetDefault("nats.connection_name", "opendata-importer")
	v.SetDefault("storage.root_path", "data/opendata")
	v.SetDefault("storage.upload_root", "data/uploads")
	v.SetDefault("storage.inline_max_bytes", 1024*1024) // 1MB
	v.SetDefault("formats.allow", []string{"CSV", "JSON", "XML", "XLS", "XLSX", "ODS", "API", "WEBSERVICES", "GEOJSON", "RSS", "CAP", "TXT"})
	v.SetDefault("formats.container", []string{"ZIP", "RAR", "7Z", "TAR", "壓縮檔"})
	v.SetDefault("formats.deny", []string{"PDF", "DOC", "DOCX", "JPG", "PNG", "WMS", "其他", "ODT"})
	v.SetDefault("catalog.mode", "http")
	v.SetDefault("catalog.full_url", "https://data.gov.tw/datasets/export/json")
	v.SetDefault("catalog.delta_url", "https://data.gov.tw/api/front/dataset/changed/export?format=json")
	v.SetDefault("catalog.fallback_csv_url", "https://data.gov.tw/datasets/export/csv")
	v.SetDefault("catalog.batch_size", 500)
	v.SetDefault("harvest.detail_url_template", "https://data.gov.tw/api/v2/rest/dataset/%s")
	v.SetDefault("harvest.concurrency", 1)
	v.SetDefault("harvest.requests_per_second", 0)
	v.SetDefault("harvest.progress_every", 50)
	v.SetDefault("http.timeout", "10m")
	v.SetDefault("http.user_agent", "opendata-importer/1.0")
	v.SetDefault("libreoffice.wait_timeout", "90s")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found, use environment variables
	}

	var cfg ImporterConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate required fields
	if cfg.Database.Host == "" {
		return nil, errors.New("database.host is required")
	}
	if cfg.Database.DBName == "" {
		return nil, errors.New("database.dbname is required")
	}
	switch cfg.Catalog.Mode {
	case "http", "file":
	default:
		return nil, fmt.Errorf("catalog.mode must be http or file, got %q", cfg.Catalog.Mode)
	}
	if cfg.Catalog.Mode == "file" && cfg.Catalog.LocalPath == "" {
		return nil, errors.New("catalog.local_path is required in file mode")
	}

	return &cfg, nil
}

// configureViper returns a viper instance with the config file and environment variables set
func configureViper(service string, configFile string, envPath string) *viper.Viper {
	v := viper.New()

	// Load environment variables
	loadEnv(envPath, service)

	// Set config file
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		// Search for config.yaml in multiple locations:
		// 1. Current directory
		v.AddConfigPath(".")
		// 2. Service-specific directory (e.g., cmd/importer/)
		v.AddConfigPath(fmt.Sprintf("cmd/%s/", service))
		// 3. Config directory
		v.AddConfigPath("config/")
	}

	// Set environment variables
	v.SetEnvPrefix("INGEST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Explicitly bind all environment variables
	bindAllEnvVars(v)
	return v
}

// bindAllEnvVars explicitly binds all possible environment variables
// This is required for viper to map env vars to config struct fields when no config file exists
func bindAllEnvVars(v *viper.Viper) {
	keys := []string{
		"debug",
		"sentry_dsn",
		// Database
		"database.host",
		"database.port",
		"database.user",
		"database.password",
		"database.dbname",
		"database.sslmode",
		"database.max_open_conns",
		"database.max_idle_conns",
		"database.conn_max_lifetime",
		"database.conn_max_idle_time",
		// NATS
		"nats.url",
		"nats.stream_name",
		"nats.max_reconnects",
		"nats.reconnect_wait",
		"nats.connection_name",
		// Storage
		"storage.root_path",
		"storage.upload_root",
		"storage.inline_max_bytes",
		// Formats
		"formats.allow",
		"formats.container",
		"formats.deny",
		"formats.policy_path",
		// Catalog
		"catalog.mode",
		"catalog.full_url",
		"catalog.delta_url",
		"catalog.fallback_csv_url",
		"catalog.local_path",
		"catalog.batch_size",
		// Harvest
		"harvest.detail_url_template",
		"harvest.concurrency",
		"harvest.requests_per_second",
		"harvest.progress_every",
		// HTTP
		"http.timeout",
		"http.user_agent",
		// LibreOffice
		"libreoffice.soffice_path",
		"libreoffice.wait_timeout",
	}

	for _, key := range keys {
		_ = v.BindEnv(key)
	}
}

// loadEnv loads environment variables from the config directory
func loadEnv(envPath string, service string) {
	// Always try shared base first, then local, then optional per-service local.
	envFiles := []string{".env", ".env.local"}
	if service != "" {
		envFiles = append(envFiles, ".env."+service+".local")
	}

	// Default to config directory
	if envPath == "" {
		envPath = "config/"
	}

	for _, envFile := range envFiles {
		candidate := filepath.Join(envPath, envFile)
		_ = godotenv.Overload(candidate) // Overload lets later files override earlier ones
	}
}

// ChdirRepoRoot changes the current working directory to the repository root
func ChdirRepoRoot() {
	cwd, _ := os.Getwd()
	for range 5 {
		if _, err := os.Stat(filepath.Join(cwd, "config")); err == nil {
			_ = os.Chdir(cwd)
			return
		}
		cwd = filepath.Dir(cwd)
	}
}

// DSN returns the database connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}
