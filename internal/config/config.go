package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the application configuration, built once at startup and passed
// to every component that needs it.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	MySQL   MySQLConfig   `yaml:"mysql"`
	Redis   RedisConfig   `yaml:"redis"`
	MinIO   MinIOConfig   `yaml:"minio"`
	Auth    AuthConfig    `yaml:"auth"`
	Engine  EngineConfig  `yaml:"engine"`
	Form    FormConfig    `yaml:"form"`
	Logger  LoggerConfig  `yaml:"logger"`
	Tracing TracingConfig `yaml:"tracing"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Address     string   `yaml:"address"`      // e.g. ":8080"
	CORSOrigins []string `yaml:"cors_origins"` // allowed browser origins
}

// MySQLConfig holds the relational database settings.
type MySQLConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	// Connection pool
	MaxIdleConns           int `yaml:"max_idle_conns"`
	MaxOpenConns           int `yaml:"max_open_conns"`
	ConnMaxLifetimeMinutes int `yaml:"conn_max_lifetime_minutes"`
	ConnMaxIdleTimeMinutes int `yaml:"conn_max_idle_time_minutes"`
	// Timeouts
	ConnectTimeoutSeconds int `yaml:"connect_timeout_seconds"`
	ReadTimeoutSeconds    int `yaml:"read_timeout_seconds"`
	WriteTimeoutSeconds   int `yaml:"write_timeout_seconds"`
	// GORM log level (1 silent .. 4 info)
	LogLevel int `yaml:"log_level"`
}

// RedisConfig holds the key/value store settings.
type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	// Connection pool
	PoolSize     int `yaml:"pool_size"`
	MinIdleConns int `yaml:"min_idle_conns"`
	// Timeouts
	DialTimeoutSeconds  int `yaml:"dial_timeout_seconds"`
	ReadTimeoutSeconds  int `yaml:"read_timeout_seconds"`
	WriteTimeoutSeconds int `yaml:"write_timeout_seconds"`
	// Retries
	MaxRetries        int `yaml:"max_retries"`
	MinRetryBackoffMS int `yaml:"min_retry_backoff_ms"`
	MaxRetryBackoffMS int `yaml:"max_retry_backoff_ms"`
	// Connection lifecycle
	ConnMaxLifetimeMinutes int `yaml:"conn_max_lifetime_minutes"`
	ConnMaxIdleTimeMinutes int `yaml:"conn_max_idle_time_minutes"`
}

// MinIOConfig holds the object-storage settings for the CV archive bucket.
type MinIOConfig struct {
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"accessKeyID"`
	SecretAccessKey string `yaml:"secretAccessKey"`
	UseSSL          bool   `yaml:"useSSL"`
	CVBucket        string `yaml:"cvBucket"`       // archival copies of intake-form CVs
	Location        string `yaml:"location"`       // optional bucket region
	CVExpireDays    int    `yaml:"cv_expire_days"` // lifecycle expiry for archived CVs
}

// AuthConfig holds the token-signing settings.
type AuthConfig struct {
	Secret              string `yaml:"secret"`
	Algorithm           string `yaml:"algorithm"` // only HS256 is supported
	AccessExpireMinutes int    `yaml:"access_expire_minutes"`
	RefreshExpireHours  int    `yaml:"refresh_expire_hours"`
	CookieDomain        string `yaml:"cookie_domain"`
	CookieSecure        bool   `yaml:"cookie_secure"`
}

// EngineConfig holds the external workflow-engine webhook endpoints. Each
// operation has its own URL; the evaluation call gets a long timeout since
// one CV can take minutes.
type EngineConfig struct {
	CreateFolderURL     string `yaml:"create_folder_url"`
	ListFilesURL        string `yaml:"list_files_url"`
	EvaluateCVURL       string `yaml:"evaluate_cv_url"`
	UploadCVURL         string `yaml:"upload_cv_url"`
	PropagateResultsURL string `yaml:"propagate_results_url"`

	RequestTimeoutSeconds  int `yaml:"request_timeout_seconds"`  // folder/list/upload/propagate
	EvaluateTimeoutMinutes int `yaml:"evaluate_timeout_minutes"` // per-CV evaluation
}

// FormConfig holds the public intake-form settings.
type FormConfig struct {
	// PublicBaseURL is templated with the process code and form token to
	// build the public application link, e.g.
	// "https://jobs.example.com/form/{code}/{token}".
	PublicBaseURL  string `yaml:"public_base_url"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes"`
}

// LoggerConfig configures zerolog output.
type LoggerConfig struct {
	Level        string `yaml:"level"`         // debug, info, warn, error
	Format       string `yaml:"format"`        // json or pretty
	TimeFormat   string `yaml:"time_format"`
	ReportCaller bool   `yaml:"report_caller"`
}

// TracingConfig configures the optional OTLP exporter. Empty endpoint
// disables the exporter; spans still run against the no-op provider.
type TracingConfig struct {
	OTLPEndpoint string  `yaml:"otlp_endpoint"`
	ServiceName  string  `yaml:"service_name"`
	SampleRatio  float64 `yaml:"sample_ratio"`
}

// LoadConfig loads configuration from a YAML file, falling back to a set of
// common locations when no path is given, then applies environment-variable
// overrides and defaults. In test runs a missing file yields the default
// configuration instead of an error.
func LoadConfig(configPath string) (*Config, error) {
	if configPath == "" {
		searchPaths := []string{
			"config.yaml",
			"./config.yaml",
			"../config.yaml",
			"../../config.yaml",
			filepath.Join(os.Getenv("HOME"), ".recruitflow", "config.yaml"),
		}
		if execPath, err := os.Executable(); err == nil {
			execDir := filepath.Dir(execPath)
			searchPaths = append(searchPaths,
				filepath.Join(execDir, "config.yaml"),
				filepath.Join(execDir, "..", "config.yaml"),
			)
		}
		for _, path := range searchPaths {
			if _, err := os.Stat(path); err == nil {
				configPath = path
				break
			}
		}
		if configPath == "" {
			if inTestRun() {
				return defaultConfig(), nil
			}
			configPath = "config.yaml"
		}
	}

	if _, err := os.Stat(configPath); err != nil {
		if inTestRun() {
			return defaultConfig(), nil
		}
		return nil, fmt.Errorf("config file does not exist: %s", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(&cfg)
	applyDefaults(&cfg)
	return &cfg, nil
}

// applyEnvOverrides lets deployment environments override the secrets and
// endpoints without editing the YAML file.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("MYSQL_PASSWORD"); v != "" {
		cfg.MySQL.Password = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.Auth.Secret = v
	}
	if v := os.Getenv("MINIO_ACCESS_KEY"); v != "" {
		cfg.MinIO.AccessKeyID = v
	}
	if v := os.Getenv("MINIO_SECRET_KEY"); v != "" {
		cfg.MinIO.SecretAccessKey = v
	}
	if v := os.Getenv("ENGINE_CREATE_FOLDER_URL"); v != "" {
		cfg.Engine.CreateFolderURL = v
	}
	if v := os.Getenv("ENGINE_LIST_FILES_URL"); v != "" {
		cfg.Engine.ListFilesURL = v
	}
	if v := os.Getenv("ENGINE_EVALUATE_CV_URL"); v != "" {
		cfg.Engine.EvaluateCVURL = v
	}
	if v := os.Getenv("ENGINE_UPLOAD_CV_URL"); v != "" {
		cfg.Engine.UploadCVURL = v
	}
	if v := os.Getenv("ENGINE_PROPAGATE_RESULTS_URL"); v != "" {
		cfg.Engine.PropagateResultsURL = v
	}
	if v := os.Getenv("FORM_PUBLIC_BASE_URL"); v != "" {
		cfg.Form.PublicBaseURL = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8080"
	}
	if cfg.Auth.Algorithm == "" {
		cfg.Auth.Algorithm = "HS256"
	}
	if cfg.Auth.AccessExpireMinutes == 0 {
		cfg.Auth.AccessExpireMinutes = 60
	}
	if cfg.Auth.RefreshExpireHours == 0 {
		cfg.Auth.RefreshExpireHours = 7 * 24
	}
	if cfg.Engine.RequestTimeoutSeconds == 0 {
		cfg.Engine.RequestTimeoutSeconds = 120
	}
	if cfg.Engine.EvaluateTimeoutMinutes == 0 {
		cfg.Engine.EvaluateTimeoutMinutes = 5
	}
	if cfg.Form.MaxUploadBytes == 0 {
		cfg.Form.MaxUploadBytes = 5 * 1024 * 1024
	}
	if cfg.Logger.Level == "" {
		cfg.Logger.Level = "info"
	}
	if cfg.Tracing.ServiceName == "" {
		cfg.Tracing.ServiceName = "recruitflow-go"
	}
	if cfg.Tracing.SampleRatio == 0 {
		cfg.Tracing.SampleRatio = 0.1
	}
}

// inTestRun reports whether the process looks like `go test`.
func inTestRun() bool {
	for _, arg := range os.Args {
		if strings.Contains(arg, "test") {
			return true
		}
	}
	return false
}

// defaultConfig returns a configuration suitable for local development and
// test runs.
func defaultConfig() *Config {
	cfg := &Config{}

	cfg.Server.Address = ":8080"
	cfg.Server.CORSOrigins = []string{
		"http://localhost:5173",
		"http://localhost:3000",
		"http://localhost",
	}

	cfg.MySQL.Host = "localhost"
	cfg.MySQL.Port = 3306
	cfg.MySQL.Username = "root"
	cfg.MySQL.Password = "password"
	cfg.MySQL.Database = "recruitflow"
	cfg.MySQL.MaxIdleConns = 10
	cfg.MySQL.MaxOpenConns = 100
	cfg.MySQL.ConnMaxLifetimeMinutes = 60
	cfg.MySQL.ConnMaxIdleTimeMinutes = 30
	cfg.MySQL.ConnectTimeoutSeconds = 10
	cfg.MySQL.ReadTimeoutSeconds = 30
	cfg.MySQL.WriteTimeoutSeconds = 30
	cfg.MySQL.LogLevel = 2

	cfg.Redis.Address = "localhost:6379"
	cfg.Redis.PoolSize = 10
	cfg.Redis.MinIdleConns = 2
	cfg.Redis.DialTimeoutSeconds = 5
	cfg.Redis.ReadTimeoutSeconds = 3
	cfg.Redis.WriteTimeoutSeconds = 3
	cfg.Redis.MaxRetries = 3
	cfg.Redis.MinRetryBackoffMS = 8
	cfg.Redis.MaxRetryBackoffMS = 512
	cfg.Redis.ConnMaxLifetimeMinutes = 60
	cfg.Redis.ConnMaxIdleTimeMinutes = 30

	cfg.MinIO.Endpoint = "localhost:9000"
	cfg.MinIO.AccessKeyID = "minioadmin"
	cfg.MinIO.SecretAccessKey = "minioadmin123"
	cfg.MinIO.UseSSL = false
	cfg.MinIO.CVBucket = "cv-archive"
	cfg.MinIO.CVExpireDays = 1095

	cfg.Auth.Secret = "dev-secret-do-not-use-in-production"
	cfg.Auth.Algorithm = "HS256"
	cfg.Auth.AccessExpireMinutes = 60
	cfg.Auth.RefreshExpireHours = 7 * 24

	cfg.Engine.CreateFolderURL = "http://localhost:5678/webhook/create-folder"
	cfg.Engine.ListFilesURL = "http://localhost:5678/webhook/list-files"
	cfg.Engine.EvaluateCVURL = "http://localhost:5678/webhook/evaluate-cv"
	cfg.Engine.UploadCVURL = "http://localhost:5678/webhook/upload-cv"
	cfg.Engine.PropagateResultsURL = "http://localhost:5678/webhook/propagate-results"
	cfg.Engine.RequestTimeoutSeconds = 120
	cfg.Engine.EvaluateTimeoutMinutes = 5

	cfg.Form.PublicBaseURL = "http://localhost:5173/form/{code}/{token}"
	cfg.Form.MaxUploadBytes = 5 * 1024 * 1024

	cfg.Logger.Level = "info"
	cfg.Logger.Format = "pretty"
	cfg.Logger.TimeFormat = "2006-01-02 15:04:05"
	cfg.Logger.ReportCaller = true

	cfg.Tracing.ServiceName = "recruitflow-go"
	cfg.Tracing.SampleRatio = 0.1

	applyEnvOverrides(cfg)
	return cfg
}

// GetDuration parses duration strings from config, falling back to a
// default when empty or malformed.
func GetDuration(durationStr string, defaultDuration time.Duration) time.Duration {
	if durationStr == "" {
		return defaultDuration
	}
	d, err := time.ParseDuration(durationStr)
	if err != nil {
		return defaultDuration
	}
	return d
}
