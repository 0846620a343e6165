package config

import (
	"strings"
	"testing"
)

func validConfig() *Config {
	return &Config{
		Telegram: TelegramConfig{
			Token:    "123456:token",
			AdminIDs: []int64{1},
		},
	}
}

func TestNormalizeFillsDefaults(t *testing.T) {
	cfg := validConfig()
	if err := Normalize(cfg); err != nil {
		t.Fatalf("normalize: %v", err)
	}

	if cfg.Telegram.RunMode != RunModeLongpoll {
		t.Fatalf("run_mode = %q", cfg.Telegram.RunMode)
	}
	if cfg.Form.SessionTimeoutSeconds != 300 {
		t.Fatalf("session timeout = %d", cfg.Form.SessionTimeoutSeconds)
	}
	if cfg.Form.AdminTimeoutSeconds != cfg.Form.SessionTimeoutSeconds {
		t.Fatalf("admin timeout = %d", cfg.Form.AdminTimeoutSeconds)
	}
	if cfg.Settings.SupportFallback == "" || cfg.Settings.CardFallback == "" {
		t.Fatal("settings fallbacks not defaulted")
	}
	if len(cfg.Catalog.DefaultServices) == 0 {
		t.Fatal("default services not defaulted")
	}
	if cfg.Catalog.PlaceholderImage == "" {
		t.Fatal("placeholder image not defaulted")
	}
}

func TestNormalizeRequiresToken(t *testing.T) {
	cfg := validConfig()
	cfg.Telegram.Token = ""
	err := Normalize(cfg)
	if err == nil || !strings.Contains(err.Error(), "telegram.token") {
		t.Fatalf("err = %v", err)
	}
}

func TestNormalizeWebhookRequiresURL(t *testing.T) {
	cfg := validConfig()
	cfg.Telegram.RunMode = RunModeWebhook
	err := Normalize(cfg)
	if err == nil || !strings.Contains(err.Error(), "webhook.url") {
		t.Fatalf("err = %v", err)
	}
}

func TestIsAdmin(t *testing.T) {
	cfg := validConfig()
	if !cfg.IsAdmin(1) {
		t.Fatal("listed id not admin")
	}
	if cfg.IsAdmin(2) {
		t.Fatal("unlisted id treated as admin")
	}
}
