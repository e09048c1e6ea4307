package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/viper"

	"github.com/joshnavoa/zakeke/internal/domain"
	"github.com/joshnavoa/zakeke/pkg/errors"
)

type Config struct {
	Port        string
	Environment string
	Log         LogConfig
	Zakeke      ZakekeConfig
	Store       StoreConfig
	Database    DatabaseConfig
	Supabase    SupabaseConfig
	Catalog     CatalogConfig
	RedisURL    string   // REDIS_URL: persists the customizable set; empty keeps it in memory
	CORSOrigins []string // CORS_ALLOW_ORIGINS, comma separated
}

// LogConfig controls the zap logger; File enables a rotating log file
type LogConfig struct {
	Level      string
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// ZakekeConfig holds the credentials Zakeke uses against this API and the
// upstream endpoints this API calls back
type ZakekeConfig struct {
	TenantID     string // ZAKEKE_TENANT_ID: Basic Auth username
	APIKey       string // ZAKEKE_API_KEY: Basic Auth password and upstream bearer token
	APIKeyBcrypt string // ZAKEKE_API_KEY_BCRYPT: bcrypt hash accepted instead of a plain Basic Auth password
	APIURL       string
	PortalURL    string
	AuthRealm    string
}

// StoreConfig selects the backing store and its tables
type StoreConfig struct {
	Driver        domain.StoreDriver
	ProductsTable string
	VariantsTable string
	SeedFile      string // CATALOG_SEED_FILE: JSON array of rows for the memory driver
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type SupabaseConfig struct {
	URL string
	Key string // SUPABASE_ANON_KEY, falls back to SUPABASE_SERVICE_KEY
}

// CatalogConfig holds the integration-time decisions about the wire format
type CatalogConfig struct {
	ResponseShape    domain.ResponseShape
	StrictErrors     bool
	DefaultCurrency  string
	CustomizableMode domain.CustomizableMode
}

// IsProduction reports whether the service runs in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("env")
	v.SetConfigName(".env")
	v.AddConfigPath(".")
	v.AddConfigPath("..")
	v.AddConfigPath("../..")

	// Read from environment variables
	v.AutomaticEnv()

	// Try to read .env file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	l := loader{v: v}
	cfg := &Config{
		Port:        l.str("PORT", "3000"),
		Environment: l.str("ENVIRONMENT", "development"),
		Log: LogConfig{
			Level:      l.str("LOG_LEVEL", "info"),
			File:       l.str("LOG_FILE", ""),
			MaxSizeMB:  l.int("LOG_MAX_SIZE_MB", 100),
			MaxBackups: l.int("LOG_MAX_BACKUPS", 10),
			MaxAgeDays: l.int("LOG_MAX_AGE_DAYS", 28),
		},
		Zakeke: ZakekeConfig{
			TenantID:     l.str("ZAKEKE_TENANT_ID", ""),
			APIKey:       l.str("ZAKEKE_API_KEY", ""),
			APIKeyBcrypt: l.str("ZAKEKE_API_KEY_BCRYPT", ""),
			APIURL:       strings.TrimSuffix(l.str("ZAKEKE_API_URL", "https://api.zakeke.com"), "/"),
			PortalURL:    strings.TrimSuffix(l.str("ZAKEKE_PORTAL_URL", "https://portal.zakeke.com"), "/"),
			AuthRealm:    l.str("ZAKEKE_AUTH_REALM", "Zakeke Product Catalog API"),
		},
		Store: StoreConfig{
			Driver:        domain.StoreDriver(strings.ToLower(l.str("STORE_DRIVER", ""))),
			ProductsTable: l.str("PRODUCTS_TABLE", "products_v2"),
			VariantsTable: l.str("VARIANTS_TABLE", "product_variants"),
			SeedFile:      l.str("CATALOG_SEED_FILE", ""),
		},
		Database: DatabaseConfig{
			Host:     l.str("DB_HOST", ""),
			Port:     l.str("DB_PORT", "5432"),
			User:     l.str("DB_USER", "postgres"),
			Password: l.str("DB_PASSWORD", "postgres"),
			DBName:   l.str("DB_NAME", "postgres"),
			SSLMode:  l.str("DB_SSLMODE", "require"),
		},
		Supabase: SupabaseConfig{
			URL: strings.TrimSuffix(l.str("SUPABASE_URL", ""), "/"),
			Key: l.str("SUPABASE_ANON_KEY", l.str("SUPABASE_SERVICE_KEY", "")),
		},
		Catalog: CatalogConfig{
			ResponseShape:    domain.ResponseShape(strings.ToLower(l.str("CATALOG_RESPONSE_SHAPE", string(domain.ResponseShapeArray)))),
			StrictErrors:     l.bool("CATALOG_STRICT_ERRORS", false),
			DefaultCurrency:  strings.ToUpper(l.str("CATALOG_DEFAULT_CURRENCY", "USD")),
			CustomizableMode: domain.CustomizableMode(strings.ToLower(l.str("CUSTOMIZABLE_MODE", string(domain.CustomizableAll)))),
		},
		RedisURL:    l.str("REDIS_URL", ""),
		CORSOrigins: splitList(l.str("CORS_ALLOW_ORIGINS", "*")),
	}

	if cfg.Store.Driver == "" {
		cfg.Store.Driver = detectDriver(cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required fields and enumerated values
func (c *Config) Validate() error {
	if c.Zakeke.TenantID == "" {
		return &errors.ErrConfig{Key: "ZAKEKE_TENANT_ID", Message: "is required"}
	}
	if c.Zakeke.APIKey == "" && c.Zakeke.APIKeyBcrypt == "" {
		return &errors.ErrConfig{Key: "ZAKEKE_API_KEY", Message: "is required (or ZAKEKE_API_KEY_BCRYPT)"}
	}
	if !c.Catalog.ResponseShape.IsValid() {
		return &errors.ErrConfig{Key: "CATALOG_RESPONSE_SHAPE", Message: fmt.Sprintf("must be array or wrapped, got %q", c.Catalog.ResponseShape)}
	}
	if !c.Catalog.CustomizableMode.IsValid() {
		return &errors.ErrConfig{Key: "CUSTOMIZABLE_MODE", Message: fmt.Sprintf("must be all or allowlist, got %q", c.Catalog.CustomizableMode)}
	}
	if !c.Store.Driver.IsValid() {
		return &errors.ErrConfig{Key: "STORE_DRIVER", Message: fmt.Sprintf("must be supabase, postgres, memory or none, got %q", c.Store.Driver)}
	}
	if c.Store.Driver == domain.StoreDriverSupabase && (c.Supabase.URL == "" || c.Supabase.Key == "") {
		return &errors.ErrConfig{Key: "SUPABASE_URL", Message: "and SUPABASE_ANON_KEY are required for the supabase driver"}
	}
	if c.Store.Driver == domain.StoreDriverPostgres && c.Database.Host == "" {
		return &errors.ErrConfig{Key: "DB_HOST", Message: "is required for the postgres driver"}
	}
	return nil
}

// detectDriver picks supabase when its credentials are present, postgres
// when a DB host is set, and none otherwise
func detectDriver(c *Config) domain.StoreDriver {
	switch {
	case c.Supabase.URL != "" && c.Supabase.Key != "":
		return domain.StoreDriverSupabase
	case c.Database.Host != "":
		return domain.StoreDriverPostgres
	case c.Store.SeedFile != "":
		return domain.StoreDriverMemory
	}
	return domain.StoreDriverNone
}

type loader struct {
	v *viper.Viper
}

func (l loader) str(key, defaultValue string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	if l.v.IsSet(key) {
		if val := strings.TrimSpace(l.v.GetString(key)); val != "" {
			return val
		}
	}
	return defaultValue
}

func (l loader) int(key string, defaultValue int) int {
	n, err := strconv.Atoi(l.str(key, ""))
	if err != nil {
		return defaultValue
	}
	return n
}

func (l loader) bool(key string, defaultValue bool) bool {
	b, err := strconv.ParseBool(l.str(key, ""))
	if err != nil {
		return defaultValue
	}
	return b
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
