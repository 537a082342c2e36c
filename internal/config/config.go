package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds application configuration
type Config struct {
	Port               string
	Env                string
	LogLevel           string
	CORSAllowedOrigins string
	DashboardJWTSecret string

	// Supabase conversation log (REST API or direct Postgres)
	SupabaseURL     string
	SupabaseAnonKey string
	SupabaseDBURL   string
	MessagePageSize int

	// Cal.com scheduling provider
	CalcomAPIKey  string
	CalcomBaseURL string

	// Airtable client records
	AirtableAPIKey    string
	AirtableBaseID    string
	AirtableTableName string

	// n8n automation metrics
	N8NAPIURL     string
	N8NAPIKey     string
	N8NWorkflowID string

	// Optional short-lived response cache
	RedisAddr     string
	RedisPassword string
	CacheTTL      time.Duration
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:               getEnv("PORT", "8080"),
		Env:                getEnv("ENV", "development"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", ""),
		DashboardJWTSecret: getEnv("DASHBOARD_JWT_SECRET", ""),

		SupabaseURL:     getEnv("SUPABASE_URL", ""),
		SupabaseAnonKey: getEnv("SUPABASE_ANON_KEY", ""),
		SupabaseDBURL:   getEnv("SUPABASE_DB_URL", ""),
		MessagePageSize: getEnvAsInt("MESSAGE_PAGE_SIZE", 1000),

		CalcomAPIKey:  getEnv("CALCOM_API_KEY", ""),
		CalcomBaseURL: getEnv("CALCOM_BASE_URL", "https://api.cal.com/v1"),

		AirtableAPIKey:    getEnv("AIRTABLE_API_KEY", ""),
		AirtableBaseID:    getEnv("AIRTABLE_BASE_ID", ""),
		AirtableTableName: getEnv("AIRTABLE_TABLE_NAME", "Datos de Clientes"),

		N8NAPIURL:     getEnv("N8N_API_URL", ""),
		N8NAPIKey:     getEnv("N8N_API_KEY", ""),
		N8NWorkflowID: getEnv("N8N_WORKFLOW_ID", ""),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		CacheTTL:      getEnvAsDuration("CACHE_TTL", 60*time.Second),
	}
}

// SupabaseConfigured reports whether either Supabase access path has credentials.
func (c *Config) SupabaseConfigured() bool {
	return c.SupabaseDBURL != "" || (c.SupabaseURL != "" && c.SupabaseAnonKey != "")
}

// CalcomConfigured reports whether the Cal.com API can be called.
func (c *Config) CalcomConfigured() bool {
	return c.CalcomAPIKey != ""
}

// AirtableConfigured reports whether the Airtable API can be called.
func (c *Config) AirtableConfigured() bool {
	return c.AirtableAPIKey != "" && c.AirtableBaseID != ""
}

// N8NConfigured reports whether the n8n API can be called.
func (c *Config) N8NConfigured() bool {
	return c.N8NAPIURL != "" && c.N8NAPIKey != ""
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
