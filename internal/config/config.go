package config

import (
	"time"

	"github.com/caarlos0/env/v10"
)

// Config centraliza la configuración del servicio HTTP.
type Config struct {
	HTTPPort             string        `env:"HTTP_PORT" envDefault:"8080"`
	DatabaseURL          string        `env:"DATABASE_URL,required"`
	LLMAPIKey            string        `env:"LLM_API_KEY,required"`
	LLMBaseURL           string        `env:"LLM_BASE_URL" envDefault:"https://api.openai.com/v1"`
	LLMModel             string        `env:"LLM_MODEL" envDefault:"gpt-4o-mini"`
	LLMTimeout           time.Duration `env:"LLM_TIMEOUT" envDefault:"60s"`
	OCRCommand           string        `env:"OCR_COMMAND" envDefault:"tesseract"`
	OCRLanguage          string        `env:"OCR_LANGUAGE" envDefault:"eng"`
	JWTSecret            string        `env:"JWT_SECRET,required"`
	JWTAccessTTLMinutes  int           `env:"JWT_ACCESS_TTL_MINUTES" envDefault:"60"`
	JWTRefreshTTLMinutes int           `env:"JWT_REFRESH_TTL_MINUTES" envDefault:"43200"`
	CORSAllowOrigins     []string      `env:"CORS_ALLOW_ORIGINS" envSeparator:","`
	SMTPHost             string        `env:"SMTP_HOST"`
	SMTPPort             int           `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser             string        `env:"SMTP_USER"`
	SMTPPass             string        `env:"SMTP_PASS"`
	SMTPFrom             string        `env:"SMTP_FROM"`
	SMTPFromName         string        `env:"SMTP_FROM_NAME" envDefault:"Taste Test"`
	SMTPUseTLS           bool          `env:"SMTP_USE_TLS" envDefault:"false"`
	RedisAddr            string        `env:"REDIS_ADDR"`
	RedisPassword        string        `env:"REDIS_PASSWORD"`
	RedisDB              int           `env:"REDIS_DB" envDefault:"0"`
	SignInWindowMinutes  int           `env:"SIGNIN_WINDOW_MINUTES" envDefault:"10"`
	SignInMaxAttempts    int           `env:"SIGNIN_MAX_ATTEMPTS" envDefault:"5"`
}

// ClientConfig agrupa lo que necesita la app de terminal.
type ClientConfig struct {
	LLMAPIKey     string        `env:"LLM_API_KEY,required"`
	LLMBaseURL    string        `env:"LLM_BASE_URL" envDefault:"https://api.openai.com/v1"`
	LLMModel      string        `env:"LLM_MODEL" envDefault:"gpt-4o-mini"`
	LLMTimeout    time.Duration `env:"LLM_TIMEOUT" envDefault:"60s"`
	OCRCommand    string        `env:"OCR_COMMAND" envDefault:"tesseract"`
	OCRLanguage   string        `env:"OCR_LANGUAGE" envDefault:"eng"`
	BaaSURL       string        `env:"SUPABASE_URL,required"`
	BaaSAnonKey   string        `env:"SUPABASE_ANON_KEY,required"`
	SessionDBPath string        `env:"SESSION_DB_PATH" envDefault:"tastetest.db"`
}

// DatabaseConfig alcanza para correr migraciones.
type DatabaseConfig struct {
	DatabaseURL string `env:"DATABASE_URL,required"`
}

// LoadConfig carga la configuración desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadClientConfig carga la configuración del cliente desde variables de entorno.
func LoadClientConfig() (*ClientConfig, error) {
	var cfg ClientConfig
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func LoadDatabaseConfig() (*DatabaseConfig, error) {
	var cfg DatabaseConfig
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
