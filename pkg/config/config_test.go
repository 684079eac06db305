package config

import (
	"testing"
	"time"
)

func TestParseHours(t *testing.T) {
	hours, err := ParseHours(" 6, 14 ,22")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hours) != 3 || hours[0] != 6 || hours[1] != 14 || hours[2] != 22 {
		t.Fatalf("unexpected hours %v", hours)
	}
	for _, bad := range []string{"", "24", "6,x", "-1"} {
		if _, err := ParseHours(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("SESSION_SECRET", "")
	t.Setenv("DB_DRIVER", "sqlite")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !cfg.IsDevelopment() {
		t.Fatalf("expected development env")
	}
	if cfg.Session.Secret == "" {
		t.Fatalf("expected development fallback secret")
	}
	if cfg.Session.MaxAge != 24*time.Hour {
		t.Fatalf("max age = %s", cfg.Session.MaxAge)
	}
	if cfg.Gold.ManualLimit != 10 || cfg.Gold.Timezone != "Asia/Jakarta" {
		t.Fatalf("unexpected gold defaults %+v", cfg.Gold)
	}
}

func TestLoadRequiresSecretInProduction(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("SESSION_SECRET", "")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error without SESSION_SECRET")
	}
}

func TestNodeEnvAlias(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("NODE_ENV", "development")
	t.Setenv("SESSION_SECRET", "x")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !cfg.IsDevelopment() {
		t.Fatalf("NODE_ENV should set the environment, got %q", cfg.Server.Env)
	}
}

func TestLoadToolSkipsServerSecrets(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("SESSION_SECRET", "")
	t.Setenv("ENABLE_GOLD_SCHEDULER", "true")
	t.Setenv("METALS_API_KEY", "")
	t.Setenv("DB_DRIVER", "sqlite")
	cfg, err := LoadTool()
	if err != nil {
		t.Fatalf("load tool: %v", err)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Fatalf("driver = %q", cfg.Database.Driver)
	}

	t.Setenv("DB_DRIVER", "oracle")
	if _, err := LoadTool(); err == nil {
		t.Fatalf("expected error for unsupported driver")
	}
}
