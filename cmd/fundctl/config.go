package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// config is the resolved CLI configuration: defaults, then the YAML file, then the
// environment, then flags.
type config struct {
	APIURL     string
	Token      string
	DBPath     string
	ListenAddr string
	RedisURL   string
	Currency   string
	Locale     string
	Debug      bool
	ChartTTL   time.Duration
	SigningKey string
}

type configFile struct {
	API struct {
		URL   string `yaml:"url"`
		Token string `yaml:"token"`
	} `yaml:"api"`
	Session struct {
		DBPath string `yaml:"db_path"`
	} `yaml:"session"`
	Server struct {
		Listen          string `yaml:"listen"`
		RedisURL        string `yaml:"redis_url"`
		ChartTTLSeconds int    `yaml:"chart_ttl_seconds"`
	} `yaml:"server"`
	Display struct {
		Currency string `yaml:"currency"`
		Locale   string `yaml:"locale"`
	} `yaml:"display"`
	MockBackend struct {
		SigningKey string `yaml:"signing_key"`
	} `yaml:"mock_backend"`
	Debug bool `yaml:"debug"`
}

func defaultConfigDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".fundboard"
	}
	return filepath.Join(dir, "fundboard")
}

func defaultConfigPath() string {
	return filepath.Join(defaultConfigDir(), "config.yaml")
}

// loadConfig reads path if it exists and applies environment overrides. A missing
// file is not an error.
func loadConfig(path string) (config, error) {
	cfg := config{
		APIURL:     "http://localhost:4000",
		DBPath:     filepath.Join(defaultConfigDir(), "session.db"),
		ListenAddr: ":8080",
		Currency:   "jpy",
		Locale:     "ja_JP",
		ChartTTL:   5 * time.Minute,
	}
	if path == "" {
		path = defaultConfigPath()
	}

	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		var f configFile
		if err := yaml.Unmarshal(raw, &f); err != nil {
			return config{}, fmt.Errorf("fundctl: parse config %s: %w", path, err)
		}
		cfg.APIURL = orDefault(f.API.URL, cfg.APIURL)
		cfg.Token = orDefault(f.API.Token, cfg.Token)
		cfg.DBPath = orDefault(f.Session.DBPath, cfg.DBPath)
		cfg.ListenAddr = orDefault(f.Server.Listen, cfg.ListenAddr)
		cfg.RedisURL = orDefault(f.Server.RedisURL, cfg.RedisURL)
		cfg.Currency = orDefault(f.Display.Currency, cfg.Currency)
		cfg.Locale = orDefault(f.Display.Locale, cfg.Locale)
		cfg.SigningKey = orDefault(f.MockBackend.SigningKey, cfg.SigningKey)
		if f.Server.ChartTTLSeconds > 0 {
			cfg.ChartTTL = time.Duration(f.Server.ChartTTLSeconds) * time.Second
		}
		cfg.Debug = f.Debug
	case errors.Is(err, os.ErrNotExist):
	default:
		return config{}, fmt.Errorf("fundctl: read config %s: %w", path, err)
	}

	cfg.APIURL = envOrDefault("NEXT_PUBLIC_API_URL", cfg.APIURL)
	cfg.Token = envOrDefault("FUNDBOARD_TOKEN", cfg.Token)
	cfg.DBPath = envOrDefault("FUNDBOARD_DB_PATH", cfg.DBPath)
	cfg.ListenAddr = envOrDefault("FUNDBOARD_LISTEN", cfg.ListenAddr)
	cfg.RedisURL = envOrDefault("FUNDBOARD_REDIS_URL", cfg.RedisURL)
	cfg.Currency = envOrDefault("FUNDBOARD_CURRENCY", cfg.Currency)
	cfg.Locale = envOrDefault("FUNDBOARD_LOCALE", cfg.Locale)
	cfg.SigningKey = envOrDefault("FUNDBOARD_SIGNING_KEY", cfg.SigningKey)
	cfg.ChartTTL = time.Duration(envInt("FUNDBOARD_CHART_TTL_SECONDS", int(cfg.ChartTTL.Seconds()))) * time.Second
	cfg.Debug = envBool("FUNDBOARD_DEBUG", cfg.Debug)
	return cfg, nil
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

func envOrDefault(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}

func envInt(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func envBool(name string, fallback bool) bool {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return v
}
