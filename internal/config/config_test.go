package config

import (
	"os"
	"testing"
	"time"
)

// unsetEnv elimina la variable y la restaura al terminar el test.
func unsetEnv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	if err := os.Unsetenv(key); err != nil {
		t.Fatalf("unset %s: %v", key, err)
	}
}

func TestLoadConfig_RequiresCredentials(t *testing.T) {
	unsetEnv(t, "DATABASE_URL")
	unsetEnv(t, "LLM_API_KEY")
	unsetEnv(t, "JWT_SECRET")

	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected error when credentials are missing")
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/tastetest")
	t.Setenv("LLM_API_KEY", "sk-test")
	t.Setenv("JWT_SECRET", "secret")
	unsetEnv(t, "HTTP_PORT")
	unsetEnv(t, "LLM_TIMEOUT")
	t.Setenv("CORS_ALLOW_ORIGINS", "http://a.test,http://b.test")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.HTTPPort != "8080" {
		t.Fatalf("expected default port 8080, got %q", cfg.HTTPPort)
	}
	if cfg.LLMTimeout != 60*time.Second {
		t.Fatalf("expected 60s llm timeout, got %v", cfg.LLMTimeout)
	}
	if len(cfg.CORSAllowOrigins) != 2 {
		t.Fatalf("expected two cors origins, got %v", cfg.CORSAllowOrigins)
	}
}

func TestLoadClientConfig_RequiresBaaS(t *testing.T) {
	t.Setenv("LLM_API_KEY", "sk-test")
	unsetEnv(t, "SUPABASE_URL")
	unsetEnv(t, "SUPABASE_ANON_KEY")

	if _, err := LoadClientConfig(); err == nil {
		t.Fatalf("expected error when supabase config is missing")
	}
}

func TestLoadClientConfig_Defaults(t *testing.T) {
	t.Setenv("LLM_API_KEY", "sk-test")
	t.Setenv("SUPABASE_URL", "https://project.supabase.co")
	t.Setenv("SUPABASE_ANON_KEY", "anon")
	unsetEnv(t, "OCR_COMMAND")

	cfg, err := LoadClientConfig()
	if err != nil {
		t.Fatalf("load client config: %v", err)
	}
	if cfg.OCRCommand != "tesseract" {
		t.Fatalf("expected tesseract default, got %q", cfg.OCRCommand)
	}
}

func TestLoadDatabaseConfig(t *testing.T) {
	unsetEnv(t, "DATABASE_URL")
	if _, err := LoadDatabaseConfig(); err == nil {
		t.Fatalf("expected error without DATABASE_URL")
	}
	t.Setenv("DATABASE_URL", "postgres://localhost/tastetest")
	cfg, err := LoadDatabaseConfig()
	if err != nil || cfg.DatabaseURL != "postgres://localhost/tastetest" {
		t.Fatalf("unexpected config %+v err=%v", cfg, err)
	}
}
