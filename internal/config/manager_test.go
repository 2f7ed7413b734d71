package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const yamlBody = `
kaggle:
  competition: drawing-with-llms
  direction: maximize
  language: python
telegram:
  chat_id: -100123456
watch:
  schedule: "1h"
  fetch_timeout: "30s"
logging:
  level: info
  console: true
  file: { enabled: false, path: "" }
storage:
  driver: file
  path: ./state
notifier:
  rate_per_sec: 3
  retry_max: 2
  retry_base: "500ms"
`

func TestLoadYAML(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, "config.yaml", yamlBody)
	cfg, err := NewManager(path).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Kaggle.Competition != "drawing-with-llms" {
		t.Fatalf("competition = %q", cfg.Kaggle.Competition)
	}
	if cfg.Telegram.ChatID != -100123456 {
		t.Fatalf("chat_id = %d", cfg.Telegram.ChatID)
	}
	if cfg.Storage == nil || cfg.Storage.Driver != "file" {
		t.Fatalf("storage = %+v", cfg.Storage)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestLoadJSON(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, "config.json", `{
		"kaggle": {"competition": "spaceship-titanic", "direction": "minimize"},
		"telegram": {"chat_id": 7},
		"watch": {"schedule": "30m"},
		"logging": {"level": "debug", "console": true, "file": {"enabled": false, "path": ""}}
	}`)
	cfg, err := NewManager(path).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Kaggle.Direction != "minimize" || cfg.Watch.Schedule != "30m" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, "config.json", `{
		"kaggle": {"competition": "x", "leaderboard": true},
		"telegram": {"chat_id": 7},
		"watch": {},
		"logging": {"level": "info", "console": true, "file": {"enabled": false, "path": ""}}
	}`)
	if _, err := NewManager(path).Load(); err == nil {
		t.Fatal("expected unknown-field error")
	}
}

func TestLoadRejectsTrailingData(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, "config.json",
		`{"kaggle":{"competition":"x"},"telegram":{"chat_id":7},"watch":{},"logging":{"level":"info","console":true,"file":{"enabled":false,"path":""}}}{}`)
	if _, err := NewManager(path).Load(); err == nil {
		t.Fatal("expected trailing-data error")
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()
	base := func() *Config {
		return &Config{
			Kaggle:   KaggleConfig{Competition: "x", Direction: "maximize"},
			Telegram: TelegramConfig{ChatID: 7},
		}
	}

	if err := base().Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	c := base()
	c.Kaggle.Competition = " "
	if err := c.Validate(); err == nil {
		t.Fatal("missing competition accepted")
	}

	c = base()
	c.Kaggle.Direction = "sideways"
	if err := c.Validate(); err == nil {
		t.Fatal("bad direction accepted")
	}

	c = base()
	c.Telegram.ChatID = 0
	if err := c.Validate(); err == nil {
		t.Fatal("missing chat_id accepted")
	}

	c = base()
	c.Watch.FetchTimeout = "soon"
	if err := c.Validate(); err == nil {
		t.Fatal("bad duration accepted")
	}
}

func TestParseDurationField(t *testing.T) {
	t.Parallel()
	d, err := ParseDurationField("x", " 90s ")
	if err != nil || d != 90*time.Second {
		t.Fatalf("got %v, %v", d, err)
	}
	if _, err := ParseDurationField("x", "-1s"); err == nil {
		t.Fatal("negative duration accepted")
	}
	d, err = ParseDurationOrDefault("x", "", time.Hour)
	if err != nil || d != time.Hour {
		t.Fatalf("default not applied: %v, %v", d, err)
	}
}
