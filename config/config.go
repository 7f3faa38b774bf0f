package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port        string
	Environment string

	Database  DatabaseConfig
	Redis     RedisConfig
	AI        AIConfig
	Sessions  SessionConfig
	Directory DirectoryConfig
	Triage    TriageConfig
	WhatsApp  WhatsAppConfig
	Security  SecurityConfig
}

type DatabaseConfig struct {
	Type     string // "mongodb" or "postgresql"
	URI      string
	Name     string
	Host     string
	Port     string
	Username string
	Password string

	// Connection pool settings
	MaxConnections int
	MinConnections int
	MaxIdleTime    time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type AIConfig struct {
	Provider        string // "ollama" or "openai"
	OllamaURL       string
	APIKey          string
	BaseURL         string
	Model           string
	WebTimeout      time.Duration
	WhatsAppTimeout time.Duration
}

type SessionConfig struct {
	Backend            string // "memory" or "redis", guest and WhatsApp sessions
	UserBackend        string // "none" or "mongodb", authenticated users
	GuestTTL           time.Duration
	HistoryLimit       int
	PromptHistoryTurns int
}

type DirectoryConfig struct {
	Backend  string // "static", "mongodb" or "postgresql"
	SeedFile string
}

type TriageConfig struct {
	DefaultCity              string
	EmergencyNumber          string
	AppointmentURL           string
	PreferredHospitalKeyword string
}

type WhatsAppConfig struct {
	AccessToken   string
	PhoneNumberID string
	BusinessID    string
	VerifyToken   string
	AppSecret     string
	APIURL        string
	APIVersion    string
}

type SecurityConfig struct {
	AllowedOrigins []string
	TrustedProxies []string
	// AdminToken guards the WhatsApp admin endpoints; they are not
	// registered while it is empty.
	AdminToken string
}

var cfg *Config

// Load initializes the configuration
func Load() error {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	c, err := FromEnv()
	if err != nil {
		return err
	}
	cfg = c
	return nil
}

// FromEnv builds and validates a Config from the process environment.
func FromEnv() (*Config, error) {
	c := &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),

		Database: DatabaseConfig{
			Type:     getEnv("DB_TYPE", "mongodb"),
			URI:      getEnv("DATABASE_URL", ""),
			Name:     getEnv("DB_NAME", "symptomwise"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "27017"),
			Username: getEnv("DB_USERNAME", ""),
			Password: getEnv("DB_PASSWORD", ""),

			MaxConnections: getEnvAsInt("DB_MAX_CONNECTIONS", 100),
			MinConnections: getEnvAsInt("DB_MIN_CONNECTIONS", 10),
			MaxIdleTime:    getEnvAsDuration("DB_MAX_IDLE_TIME", "30m"),
		},

		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},

		AI: AIConfig{
			Provider:        strings.ToLower(getEnv("AI_PROVIDER", "ollama")),
			OllamaURL:       getEnv("OLLAMA_URL", "http://localhost:11434"),
			APIKey:          getEnv("OPENAI_API_KEY", ""),
			BaseURL:         getEnv("OPENAI_BASE_URL", ""),
			Model:           getEnv("AI_MODEL", "symptomwise"),
			WebTimeout:      getEnvAsDuration("AI_WEB_TIMEOUT", "10s"),
			WhatsAppTimeout: getEnvAsDuration("AI_WHATSAPP_TIMEOUT", "30s"),
		},

		Sessions: SessionConfig{
			Backend:            strings.ToLower(getEnv("SESSION_BACKEND", "memory")),
			UserBackend:        strings.ToLower(getEnv("USER_SESSION_BACKEND", "none")),
			GuestTTL:           getEnvAsDuration("GUEST_SESSION_TTL", "240h"),
			HistoryLimit:       getEnvAsInt("HISTORY_LIMIT", 10),
			PromptHistoryTurns: getEnvAsInt("PROMPT_HISTORY_TURNS", 3),
		},

		Directory: DirectoryConfig{
			Backend:  strings.ToLower(getEnv("DIRECTORY_BACKEND", "static")),
			SeedFile: getEnv("DIRECTORY_SEED_FILE", ""),
		},

		Triage: TriageConfig{
			DefaultCity:              getEnv("DEFAULT_CITY", "Gorakhpur"),
			EmergencyNumber:          getEnv("EMERGENCY_NUMBER", "108"),
			AppointmentURL:           getEnv("APPOINTMENT_URL", "https://symptomwise.loca.lt/appointment/"),
			PreferredHospitalKeyword: getEnv("PREFERRED_HOSPITAL_KEYWORD", "jp"),
		},

		WhatsApp: WhatsAppConfig{
			AccessToken:   getEnv("WHATSAPP_ACCESS_TOKEN", ""),
			PhoneNumberID: getEnv("WHATSAPP_PHONE_NUMBER_ID", ""),
			BusinessID:    getEnv("WHATSAPP_BUSINESS_ID", ""),
			VerifyToken:   getEnv("WHATSAPP_VERIFY_TOKEN", ""),
			AppSecret:     getEnv("WHATSAPP_APP_SECRET", ""),
			APIURL:        getEnv("WHATSAPP_API_URL", "https://graph.facebook.com"),
			APIVersion:    getEnv("WHATSAPP_API_VERSION", "v18.0"),
		},

		Security: SecurityConfig{
			AllowedOrigins: getEnvAsSlice("ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://localhost:5173"}),
			TrustedProxies: getEnvAsSlice("TRUSTED_PROXIES", []string{}),
			AdminToken:     getEnv("ADMIN_API_TOKEN", ""),
		},
	}

	// Validate configuration
	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return c, nil
}

// Get returns the loaded configuration
func Get() *Config {
	if cfg == nil {
		log.Fatal("Configuration not loaded. Call Load() first")
	}
	return cfg
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// UsesMongo reports whether any component needs a MongoDB connection.
func (c *Config) UsesMongo() bool {
	return c.Sessions.UserBackend == "mongodb" || c.Directory.Backend == "mongodb"
}

// WhatsAppEnabled reports whether outbound WhatsApp messages can be sent.
func (c *Config) WhatsAppEnabled() bool {
	return c.WhatsApp.AccessToken != "" && c.WhatsApp.PhoneNumberID != ""
}

func (c *Config) validate() error {
	switch c.AI.Provider {
	case "ollama":
		if c.AI.OllamaURL == "" {
			return fmt.Errorf("OLLAMA_URL is required for the ollama provider")
		}
	case "openai":
		if c.AI.APIKey == "" {
			return fmt.Errorf("AI API key is required for the openai provider")
		}
	default:
		return fmt.Errorf("unsupported AI provider: %s", c.AI.Provider)
	}

	switch c.Sessions.Backend {
	case "memory":
	case "redis":
		if c.Redis.Addr == "" {
			return fmt.Errorf("REDIS_ADDR is required for the redis session backend")
		}
	default:
		return fmt.Errorf("unsupported session backend: %s", c.Sessions.Backend)
	}

	switch c.Sessions.UserBackend {
	case "none", "mongodb":
	default:
		return fmt.Errorf("unsupported user session backend: %s", c.Sessions.UserBackend)
	}

	switch c.Directory.Backend {
	case "static", "mongodb":
	case "postgresql":
		if c.Database.URI == "" && c.Database.Username == "" {
			return fmt.Errorf("database URI or credentials must be provided for postgresql")
		}
	default:
		return fmt.Errorf("unsupported directory backend: %s", c.Directory.Backend)
	}

	if c.UsesMongo() && c.Database.URI == "" {
		if c.Database.Host == "" || c.Database.Port == "" {
			return fmt.Errorf("database URI or host/port must be provided")
		}
	}

	if c.Triage.EmergencyNumber == "" {
		return fmt.Errorf("EMERGENCY_NUMBER must not be empty")
	}

	return nil
}

// BuildDatabaseURI constructs the database URI for dbType if not provided
func (c *Config) BuildDatabaseURI(dbType string) string {
	if c.Database.URI != "" {
		return c.Database.URI
	}

	switch dbType {
	case "mongodb":
		if c.Database.Username != "" && c.Database.Password != "" {
			return fmt.Sprintf("mongodb://%s:%s@%s:%s/%s",
				c.Database.Username,
				c.Database.Password,
				c.Database.Host,
				c.Database.Port,
				c.Database.Name,
			)
		}
		return fmt.Sprintf("mongodb://%s:%s/%s",
			c.Database.Host,
			c.Database.Port,
			c.Database.Name,
		)
	case "postgresql":
		return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
			c.Database.Username,
			c.Database.Password,
			c.Database.Host,
			c.Database.Port,
			c.Database.Name,
		)
	default:
		return ""
	}
}
