package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

type Config struct {
	API struct {
		BaseURL      string `yaml:"base_url"`
		WebsocketURL string `yaml:"websocket_url"`
		Token        string `yaml:"token"`
	} `yaml:"api"`
	User struct {
		ID string `yaml:"id"`
	} `yaml:"user"`
	Cache struct {
		Dir string `yaml:"dir"`
	} `yaml:"cache"`
	Polling struct {
		QRSeconds           int `yaml:"qr_seconds"`
		ResyncSeconds       int `yaml:"resync_seconds"`
		ReadySeconds        int `yaml:"ready_seconds"`
		ParticipantsSeconds int `yaml:"participants_seconds"`
	} `yaml:"polling"`
	Fallback struct {
		PrepMinutes       int `yaml:"prep_minutes"`
		DiscussionMinutes int `yaml:"discussion_minutes"`
	} `yaml:"fallback"`
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func loadConfig(path string) (*Config, error) {
	var config Config

	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Environment variables win over the file.
	config.API.BaseURL = getEnv("GD_API_BASE_URL", defaultString(config.API.BaseURL, "http://localhost:8000/api"))
	config.API.WebsocketURL = getEnv("GD_WS_URL", config.API.WebsocketURL)
	config.API.Token = getEnv("GD_API_TOKEN", config.API.Token)
	config.User.ID = getEnv("GD_USER_ID", config.User.ID)
	config.Cache.Dir = getEnv("GD_CACHE_DIR", defaultString(config.Cache.Dir, ".gdsync"))
	config.Polling.QRSeconds = getEnvAsInt("GD_QR_POLL_SECONDS", defaultInt(config.Polling.QRSeconds, 3))
	config.Polling.ResyncSeconds = getEnvAsInt("GD_RESYNC_SECONDS", defaultInt(config.Polling.ResyncSeconds, 10))
	config.Polling.ReadySeconds = getEnvAsInt("GD_READY_POLL_SECONDS", defaultInt(config.Polling.ReadySeconds, 3))
	config.Polling.ParticipantsSeconds = getEnvAsInt("GD_PARTICIPANTS_POLL_SECONDS", defaultInt(config.Polling.ParticipantsSeconds, 5))
	config.Fallback.PrepMinutes = getEnvAsInt("GD_FALLBACK_PREP_MINUTES", defaultInt(config.Fallback.PrepMinutes, 10))
	config.Fallback.DiscussionMinutes = getEnvAsInt("GD_FALLBACK_DISCUSSION_MINUTES", defaultInt(config.Fallback.DiscussionMinutes, 20))

	// Anonymous runs still need a stable identity for caching and seeding.
	if config.User.ID == "" {
		config.User.ID = uuid.NewString()
	}

	return &config, nil
}

func defaultString(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}

func defaultInt(value, fallback int) int {
	if value > 0 {
		return value
	}
	return fallback
}

func (c *Config) QRPollInterval() time.Duration {
	return time.Duration(c.Polling.QRSeconds) * time.Second
}

func (c *Config) ResyncInterval() time.Duration {
	return time.Duration(c.Polling.ResyncSeconds) * time.Second
}

func (c *Config) ReadyPollInterval() time.Duration {
	return time.Duration(c.Polling.ReadySeconds) * time.Second
}

func (c *Config) ParticipantsPollInterval() time.Duration {
	return time.Duration(c.Polling.ParticipantsSeconds) * time.Second
}
