package config

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"github.com/wondrlab/crosssell-api/internal/secrets"
	"go.uber.org/zap"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Auth      AuthConfig
	Storage   StorageConfig
	Secrets   SecretsConfig
	Logging   LoggingConfig
	Server    ServerConfig
	CORS      CORSConfig
	Security  SecurityConfig
	RateLimit RateLimitConfig
	Import    ImportConfig
	Jobs      JobsConfig
}

type AppConfig struct {
	Name        string
	Environment string
	Port        int
}

type DatabaseConfig struct {
	Host            string
	Port            int
	Name            string
	User            string
	Password        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int
	LogQueries      bool
}

// AuthConfig configures bearer tokens and the system API key
type AuthConfig struct {
	JWTSecret string
	// TokenTTL is the access token lifetime in minutes
	TokenTTL int
	Issuer   string
	// APIKey authenticates service-to-service calls as the system user
	APIKey string
	// AllowRegistration enables POST /auth/register
	AllowRegistration bool
}

type StorageConfig struct {
	// Mode selects the backend: "local", "azure" or "s3"
	Mode                  string
	LocalBasePath         string
	CloudConnectionString string
	CloudContainer        string
	S3Bucket              string
	S3Region              string
	S3Endpoint            string
	S3AccessKeyID         string
	S3SecretAccessKey     string
	// ArchiveImports stores every uploaded import file
	ArchiveImports bool
}

type SecretsConfig struct {
	// Source determines where secrets are loaded from: "environment", "vault", or "auto"
	Source       string
	KeyVaultName string
	CacheEnabled bool
	CacheTTL     int // seconds
}

type LoggingConfig struct {
	Level  string
	Format string
}

type ServerConfig struct {
	ReadTimeout    int
	WriteTimeout   int
	RequestTimeout int
	EnableSwagger  bool
}

// CORSConfig holds CORS configuration
type CORSConfig struct {
	// AllowedOrigins lists allowed origins. "*" allows all.
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	// MaxAge is the max age (in seconds) for preflight cache
	MaxAge int
}

// SecurityConfig holds security header configuration
type SecurityConfig struct {
	EnableHSTS            bool
	HSTSMaxAge            int
	HSTSIncludeSubdomains bool
	HSTSPreload           bool
	ContentSecurityPolicy string
	// FrameOptions sets X-Frame-Options (DENY, SAMEORIGIN, or empty to disable)
	FrameOptions       string
	ContentTypeNosniff bool
	XSSProtection      string
	ReferrerPolicy     string
	PermissionsPolicy  string
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled bool
	// RequestsPerMinute is the per-IP limit before authentication
	RequestsPerMinute int
	// RequestsPerMinuteAuth is the per-user limit after authentication
	RequestsPerMinuteAuth int
	WhitelistIPs          []string
	WhitelistPaths        []string
}

// ImportConfig controls CSV bulk import defaults
type ImportConfig struct {
	// FallbackUserID is used when a row has no resolvable owner or assignee
	FallbackUserID uint
	// FallbackOpportunityID is used for tasks when no opportunity exists at all
	FallbackOpportunityID uint
	MaxUploadSizeMB       int64
}

// JobsConfig controls the scheduled jobs. Cron expressions include seconds.
type JobsConfig struct {
	Enabled             bool
	OverdueCron         string
	EscalationThreshold int
	CleanupCron         string
	RetentionDays       int
}

// ConnectionString builds PostgreSQL connection string
func (d *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

// URL builds a postgres:// URL for tools that need one (goose)
func (d *DatabaseConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode)
}

// ConnMaxLifetimeDuration returns connection max lifetime as duration
func (d *DatabaseConfig) ConnMaxLifetimeDuration() time.Duration {
	return time.Duration(d.ConnMaxLifetime) * time.Second
}

// ReadTimeoutDuration returns read timeout as duration
func (s *ServerConfig) ReadTimeoutDuration() time.Duration {
	return time.Duration(s.ReadTimeout) * time.Second
}

// WriteTimeoutDuration returns write timeout as duration
func (s *ServerConfig) WriteTimeoutDuration() time.Duration {
	return time.Duration(s.WriteTimeout) * time.Second
}

// RequestTimeoutDuration returns request timeout as duration
func (s *ServerConfig) RequestTimeoutDuration() time.Duration {
	return time.Duration(s.RequestTimeout) * time.Second
}

// TokenTTLDuration returns the access token lifetime
func (a *AuthConfig) TokenTTLDuration() time.Duration {
	return time.Duration(a.TokenTTL) * time.Minute
}

// Retention returns the notification retention window
func (j *JobsConfig) Retention() time.Duration {
	return time.Duration(j.RetentionDays) * 24 * time.Hour
}

// MaxUploadBytes returns the upload limit in bytes
func (i *ImportConfig) MaxUploadBytes() int64 {
	return i.MaxUploadSizeMB << 20
}

// Load loads configuration from file and environment variables.
// Secrets are not fetched from the vault; use LoadWithSecrets for that.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Environment variables override config file
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Auth.APIKey == "" {
		cfg.Auth.APIKey = v.GetString("ADMIN_API_KEY")
	}
	if cfg.Auth.JWTSecret == "" {
		cfg.Auth.JWTSecret = v.GetString("JWT_SECRET")
	}
	if cfg.Secrets.KeyVaultName == "" {
		cfg.Secrets.KeyVaultName = v.GetString("AZURE_KEY_VAULT_NAME")
	}

	return &cfg, nil
}

// Validate checks settings that would otherwise fail at first use
func (c *Config) Validate() error {
	if c.App.Environment == "production" && len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("auth.jwtSecret must be at least 32 characters in production")
	}
	switch c.Storage.Mode {
	case "local", "azure", "s3":
	default:
		return fmt.Errorf("unsupported storage mode: %s", c.Storage.Mode)
	}
	if c.Jobs.EscalationThreshold < 1 {
		return fmt.Errorf("jobs.escalationThreshold must be at least 1")
	}
	return nil
}

// LoadWithSecrets loads configuration and resolves secrets from the configured source.
//
// Key Vault is used when USE_AZURE_KEY_VAULT=true and the environment is
// staging or production. Otherwise secrets come from environment variables.
func LoadWithSecrets(ctx context.Context, logger *zap.Logger) (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}

	useKeyVault := strings.ToLower(os.Getenv("USE_AZURE_KEY_VAULT")) == "true"
	isValidEnv := cfg.App.Environment == "staging" || cfg.App.Environment == "production"

	if !useKeyVault {
		logger.Info("USE_AZURE_KEY_VAULT not enabled, using environment variables for secrets",
			zap.String("environment", cfg.App.Environment),
		)
		return cfg, nil
	}

	if !isValidEnv {
		logger.Warn("USE_AZURE_KEY_VAULT is enabled but environment is not staging or production, using environment variables for secrets",
			zap.String("environment", cfg.App.Environment),
		)
		return cfg, nil
	}

	if cfg.Secrets.KeyVaultName == "" {
		return nil, fmt.Errorf("AZURE_KEY_VAULT_NAME is required when USE_AZURE_KEY_VAULT=true")
	}

	provider, err := secrets.NewProvider(&secrets.ProviderConfig{
		Source:       secrets.SourceVault,
		VaultName:    cfg.Secrets.KeyVaultName,
		Environment:  cfg.App.Environment,
		CacheEnabled: cfg.Secrets.CacheEnabled,
		CacheTTL:     time.Duration(cfg.Secrets.CacheTTL) * time.Second,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize secrets provider: %w", err)
	}

	logger.Info("Loading secrets from Azure Key Vault",
		zap.String("key_vault_name", cfg.Secrets.KeyVaultName),
	)

	applySecrets(ctx, cfg, provider, logger)

	logger.Info("Secrets loaded from vault successfully")
	return cfg, nil
}

// secretSource is the subset of the secrets provider used to resolve config values
type secretSource interface {
	GetSecretOrEnv(ctx context.Context, secretName, envVar string) (string, error)
}

// applySecrets overwrites config values with every secret that resolves to a
// non-empty value. Unresolvable secrets keep their environment value.
func applySecrets(ctx context.Context, cfg *Config, src secretSource, logger *zap.Logger) {
	bindings := []struct {
		secret string
		env    string
		target *string
	}{
		{"POSTGRES-MAIN-HOST", "DATABASE_HOST", &cfg.Database.Host},
		{"POSTGRES-MAIN-USER", "DATABASE_USER", &cfg.Database.User},
		{"POSTGRES-MAIN-PASSWORD", "DATABASE_PASSWORD", &cfg.Database.Password},
		{"jwt-secret", "JWT_SECRET", &cfg.Auth.JWTSecret},
		{"admin-api-key", "ADMIN_API_KEY", &cfg.Auth.APIKey},
		{"storage-connection-string", "STORAGE_CLOUDCONNECTIONSTRING", &cfg.Storage.CloudConnectionString},
		{"s3-secret-access-key", "STORAGE_S3SECRETACCESSKEY", &cfg.Storage.S3SecretAccessKey},
	}

	for _, b := range bindings {
		value, err := src.GetSecretOrEnv(ctx, b.secret, b.env)
		if err != nil {
			logger.Debug("Secret not resolved, keeping configured value",
				zap.String("secret_name", b.secret),
				zap.Error(err),
			)
			continue
		}
		if value != "" {
			*b.target = value
		}
	}

	// Database name varies per environment and never lives in the vault
	if defaultDB := os.Getenv("DEFAULT_DATABASE"); defaultDB != "" {
		cfg.Database.Name = defaultDB
	}
	if sslMode := os.Getenv("DATABASE_SSLMODE"); sslMode != "" {
		cfg.Database.SSLMode = sslMode
	}
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "Cross-Sell Tracker API")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.port", 8080)

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "crosssell")
	v.SetDefault("database.user", "crosssell_user")
	v.SetDefault("database.password", "crosssell_password")
	v.SetDefault("database.sslMode", "disable")
	v.SetDefault("database.maxOpenConns", 25)
	v.SetDefault("database.maxIdleConns", 5)
	v.SetDefault("database.connMaxLifetime", 300)
	v.SetDefault("database.logQueries", false)

	// Auth defaults
	v.SetDefault("auth.jwtSecret", "")
	v.SetDefault("auth.tokenTTL", 480) // 8 hours
	v.SetDefault("auth.issuer", "crosssell-api")
	v.SetDefault("auth.allowRegistration", true)

	// Secrets defaults
	v.SetDefault("secrets.source", "auto")
	v.SetDefault("secrets.cacheEnabled", true)
	v.SetDefault("secrets.cacheTTL", 300)

	// Storage defaults
	v.SetDefault("storage.mode", "local")
	v.SetDefault("storage.localBasePath", "./storage")
	v.SetDefault("storage.cloudContainer", "crosssell")
	v.SetDefault("storage.s3Region", "eu-north-1")
	v.SetDefault("storage.archiveImports", true)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	// Server defaults
	v.SetDefault("server.readTimeout", 30)
	v.SetDefault("server.writeTimeout", 60)
	v.SetDefault("server.requestTimeout", 60)
	v.SetDefault("server.enableSwagger", true)

	// CORS defaults
	v.SetDefault("cors.allowedOrigins", []string{})
	v.SetDefault("cors.allowedMethods", []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allowedHeaders", []string{"Accept", "Authorization", "Content-Type", "X-API-Key", "X-Request-ID"})
	v.SetDefault("cors.exposedHeaders", []string{"Location", "X-Request-ID", "Content-Disposition"})
	v.SetDefault("cors.allowCredentials", true)
	v.SetDefault("cors.maxAge", 300)

	// Security header defaults
	v.SetDefault("security.enableHSTS", false)
	v.SetDefault("security.hstsMaxAge", 31536000)
	v.SetDefault("security.hstsIncludeSubdomains", true)
	v.SetDefault("security.hstsPreload", false)
	v.SetDefault("security.contentSecurityPolicy", "default-src 'self'")
	v.SetDefault("security.frameOptions", "DENY")
	v.SetDefault("security.contentTypeNosniff", true)
	v.SetDefault("security.xssProtection", "1; mode=block")
	v.SetDefault("security.referrerPolicy", "strict-origin-when-cross-origin")
	v.SetDefault("security.permissionsPolicy", "geolocation=(), microphone=(), camera=()")

	// Rate limiting defaults
	v.SetDefault("rateLimit.enabled", true)
	v.SetDefault("rateLimit.requestsPerMinute", 120)
	v.SetDefault("rateLimit.requestsPerMinuteAuth", 600)
	v.SetDefault("rateLimit.whitelistIPs", []string{"127.0.0.1", "::1"})
	v.SetDefault("rateLimit.whitelistPaths", []string{"/health", "/health/db"})

	// Import defaults
	v.SetDefault("import.fallbackUserId", 1)
	v.SetDefault("import.fallbackOpportunityId", 1)
	v.SetDefault("import.maxUploadSizeMB", 10)

	// Job defaults
	v.SetDefault("jobs.enabled", true)
	v.SetDefault("jobs.overdueCron", "0 0 7 * * *")
	v.SetDefault("jobs.escalationThreshold", 3)
	v.SetDefault("jobs.cleanupCron", "0 30 3 * * *")
	v.SetDefault("jobs.retentionDays", 90)
}
