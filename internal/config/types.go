package config

import (
	"fmt"
	"strings"

	"kernelwatch/internal/rank"
)

type Config struct {
	Kaggle   KaggleConfig   `json:"kaggle"`
	Telegram TelegramConfig `json:"telegram"`
	Watch    WatchConfig    `json:"watch"`
	Logging  LoggingConfig  `json:"logging"`

	Storage  *StorageConfig  `json:"storage,omitempty"`
	Notifier *NotifierConfig `json:"notifier,omitempty"`
}

// KaggleConfig selects the competition to monitor and how to reach the API.
//
// Credentials may be left out of the file; bootstrap falls back to the
// KAGGLE_USERNAME / KAGGLE_KEY environment variables (a .env file works).
type KaggleConfig struct {
	Competition string `json:"competition"`
	// Direction is "maximize" or "minimize" — whether larger or smaller
	// scores are better for this competition's metric.
	Direction string `json:"direction,omitempty"`
	// Language filters the listing ("python", "r", "all"). Default: all.
	Language string `json:"language,omitempty"`
	PageSize int    `json:"page_size,omitempty"`

	Username string `json:"username,omitempty"`
	Key      string `json:"key,omitempty"`

	// RatePerMin limits outgoing API calls. Default: 20.
	RatePerMin int `json:"rate_per_min,omitempty"`
}

// TelegramConfig is the notification channel. Token may come from the
// TELEGRAM_BOT_TOKEN environment variable instead of the file.
type TelegramConfig struct {
	Token    string `json:"token,omitempty"`
	ChatID   int64  `json:"chat_id"`
	ThreadID int    `json:"thread_id,omitempty"`
}

// WatchConfig controls the poll cadence.
//
// All durations are Go duration strings (e.g. "500ms", "10s", "1m").
type WatchConfig struct {
	// Schedule accepts a duration ("1h"), HH:MM ("02:30"), or a cron
	// expression ("@hourly", "0 * * * *"). Default: "1h".
	Schedule string `json:"schedule,omitempty"`

	FetchTimeout string `json:"fetch_timeout,omitempty"` // default "30s"
	SendTimeout  string `json:"send_timeout,omitempty"`  // default "15s"
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// StorageConfig controls the optional persistence layer.
//
// Example:
//
//	"storage": { "driver": "file", "path": "./kernelwatch_state" }
type StorageConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // Go duration string (sqlite)
}

// NotifierConfig controls delivery rate limiting and retry.
type NotifierConfig struct {
	RatePerSec int    `json:"rate_per_sec,omitempty"`
	RetryMax   int    `json:"retry_max,omitempty"`
	RetryBase  string `json:"retry_base,omitempty"` // Go duration string
}

// Validate checks everything that can be checked without the environment
// (credentials are resolved at bootstrap, where env vars are visible).
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Kaggle.Competition) == "" {
		return fmt.Errorf("kaggle.competition is required")
	}
	if _, err := rank.ParseDirection(c.Kaggle.Direction); err != nil {
		return fmt.Errorf("kaggle.direction: %w", err)
	}
	if c.Kaggle.PageSize < 0 {
		return fmt.Errorf("kaggle.page_size must be >= 0")
	}
	if c.Telegram.ChatID == 0 {
		return fmt.Errorf("telegram.chat_id is required")
	}
	if _, err := ParseDurationField("watch.fetch_timeout", c.Watch.FetchTimeout); err != nil {
		return err
	}
	if _, err := ParseDurationField("watch.send_timeout", c.Watch.SendTimeout); err != nil {
		return err
	}
	if c.Storage != nil {
		if _, err := ParseDurationField("storage.busy_timeout", c.Storage.BusyTimeout); err != nil {
			return err
		}
	}
	if c.Notifier != nil {
		if _, err := ParseDurationField("notifier.retry_base", c.Notifier.RetryBase); err != nil {
			return err
		}
	}
	return nil
}
