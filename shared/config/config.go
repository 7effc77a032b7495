package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Station         StationConfig    `yaml:"station"`
	Enrichment      EnrichmentConfig `yaml:"enrichment"`
	Upload          UploadConfig     `yaml:"upload"`
	IntervalSeconds int              `yaml:"interval_seconds" env:"INTERVAL_SECONDS"`
	Schedule        string           `yaml:"schedule"`
	Logging         LoggingConfig    `yaml:"logging"`
	Monitoring      MonitoringConfig `yaml:"monitoring"`
	MQTT            MQTTConfig       `yaml:"mqtt"`
}

// StationConfig locates the local sensor gateway.
type StationConfig struct {
	Host           string `yaml:"host" env:"STATION_HOST"`
	Port           int    `yaml:"port" env:"STATION_PORT"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// EnrichmentConfig configures the cloud coverage source.
type EnrichmentConfig struct {
	APIKey         string  `yaml:"api_key" env:"OWM_API_KEY"`
	BaseURL        string  `yaml:"base_url"`
	Latitude       float64 `yaml:"latitude" env:"STATION_LATITUDE"`
	Longitude      float64 `yaml:"longitude" env:"STATION_LONGITUDE"`
	TimeoutSeconds int     `yaml:"timeout_seconds"`
}

// UploadConfig configures the personal weather station upload target.
type UploadConfig struct {
	StationID       string `yaml:"station_id" env:"WU_STATION_ID"`
	StationKey      string `yaml:"station_key" env:"WU_STATION_KEY"`
	BaseURL         string `yaml:"base_url"`
	UpdateFrequency int    `yaml:"update_frequency"`
	TimeoutSeconds  int    `yaml:"timeout_seconds"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL"`
	AppEnv string `yaml:"app_env" env:"APP_ENV"`
	level  slog.Level
}

type MonitoringConfig struct {
	HealthPort int `yaml:"health_port"`
}

// MQTTConfig enables the optional reading mirror when Broker is set.
type MQTTConfig struct {
	Broker      string `yaml:"broker" env:"MQTT_BROKER"`
	Port        int    `yaml:"port"`
	ClientID    string `yaml:"client_id"`
	TopicPrefix string `yaml:"topic_prefix"`
}

const (
	DefaultStationPort     = 8000
	DefaultEnrichmentURL   = "https://api.openweathermap.org"
	DefaultUploadURL       = "https://weatherstation.wunderground.com"
	DefaultUpdateFrequency = 2880
	DefaultTimeoutSeconds  = 10
)

func Load() (*Config, error) {
	_ = godotenv.Load()

	configFile, explicit := os.LookupEnv("CONFIG_FILE")
	if configFile == "" {
		configFile = "config.yaml"
	}

	var cfg Config
	data, err := os.ReadFile(configFile)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", configFile, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
		// Environment-only configuration
	default:
		return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyEnv() error {
	if c.Station.Host == "" {
		c.Station.Host = strings.TrimSpace(os.Getenv("STATION_HOST"))
	}
	if c.Station.Port == 0 {
		if v := strings.TrimSpace(os.Getenv("STATION_PORT")); v != "" {
			port, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid STATION_PORT %q: %w", v, err)
			}
			c.Station.Port = port
		}
	}
	if c.Enrichment.APIKey == "" {
		c.Enrichment.APIKey = os.Getenv("OWM_API_KEY")
	}
	if c.Enrichment.Latitude == 0 {
		lat, err := envFloat("STATION_LATITUDE")
		if err != nil {
			return err
		}
		c.Enrichment.Latitude = lat
	}
	if c.Enrichment.Longitude == 0 {
		lon, err := envFloat("STATION_LONGITUDE")
		if err != nil {
			return err
		}
		c.Enrichment.Longitude = lon
	}
	if c.Upload.StationID == "" {
		c.Upload.StationID = os.Getenv("WU_STATION_ID")
	}
	if c.Upload.StationKey == "" {
		c.Upload.StationKey = os.Getenv("WU_STATION_KEY")
	}
	if c.IntervalSeconds == 0 {
		if v := strings.TrimSpace(os.Getenv("INTERVAL_SECONDS")); v != "" {
			interval, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid INTERVAL_SECONDS %q: %w", v, err)
			}
			c.IntervalSeconds = interval
		}
	}
	if c.Logging.Level == "" {
		c.Logging.Level = strings.TrimSpace(os.Getenv("LOG_LEVEL"))
	}
	if c.Logging.AppEnv == "" {
		c.Logging.AppEnv = strings.TrimSpace(os.Getenv("APP_ENV"))
	}
	if c.MQTT.Broker == "" {
		c.MQTT.Broker = strings.TrimSpace(os.Getenv("MQTT_BROKER"))
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Station.Port == 0 {
		c.Station.Port = DefaultStationPort
	}
	if c.Station.TimeoutSeconds == 0 {
		c.Station.TimeoutSeconds = DefaultTimeoutSeconds
	}
	if c.Enrichment.BaseURL == "" {
		c.Enrichment.BaseURL = DefaultEnrichmentURL
	}
	if c.Enrichment.TimeoutSeconds == 0 {
		c.Enrichment.TimeoutSeconds = DefaultTimeoutSeconds
	}
	if c.Upload.BaseURL == "" {
		c.Upload.BaseURL = DefaultUploadURL
	}
	if c.Upload.UpdateFrequency == 0 {
		c.Upload.UpdateFrequency = DefaultUpdateFrequency
	}
	if c.Upload.TimeoutSeconds == 0 {
		c.Upload.TimeoutSeconds = DefaultTimeoutSeconds
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.AppEnv == "" {
		c.Logging.AppEnv = "dev"
	}
	if c.MQTT.Port == 0 {
		c.MQTT.Port = 1883
	}
	if c.MQTT.ClientID == "" {
		c.MQTT.ClientID = "weather-relay"
	}
	if c.MQTT.TopicPrefix == "" {
		c.MQTT.TopicPrefix = "stations"
	}
}

func (c *Config) validate() error {
	if c.Station.Host == "" {
		return fmt.Errorf("gateway host is required (set STATION_HOST or station.host)")
	}
	if c.Station.Port <= 0 || c.Station.Port > 65535 {
		return fmt.Errorf("gateway port %d is out of range", c.Station.Port)
	}
	if c.Enrichment.APIKey == "" || isPlaceholder(c.Enrichment.APIKey) {
		return fmt.Errorf("OpenWeatherMap API key is required (set OWM_API_KEY or enrichment.api_key)")
	}
	if c.Enrichment.Latitude == 0 || c.Enrichment.Longitude == 0 {
		return fmt.Errorf("station coordinates must be configured (enrichment.latitude and enrichment.longitude)")
	}
	if c.Enrichment.Latitude < -90 || c.Enrichment.Latitude > 90 {
		return fmt.Errorf("latitude %.4f is out of range", c.Enrichment.Latitude)
	}
	if c.Enrichment.Longitude < -180 || c.Enrichment.Longitude > 180 {
		return fmt.Errorf("longitude %.4f is out of range", c.Enrichment.Longitude)
	}
	if c.Upload.StationID == "" || isPlaceholder(c.Upload.StationID) {
		return fmt.Errorf("upload station ID is required (set WU_STATION_ID or upload.station_id)")
	}
	if c.Upload.StationKey == "" || isPlaceholder(c.Upload.StationKey) {
		return fmt.Errorf("upload station key is required (set WU_STATION_KEY or upload.station_key)")
	}
	if c.IntervalSeconds < 0 {
		return fmt.Errorf("interval_seconds must be positive, got %d", c.IntervalSeconds)
	}
	if c.IntervalSeconds == 0 && c.Schedule == "" {
		return fmt.Errorf("cycle interval is required (set INTERVAL_SECONDS, interval_seconds or schedule)")
	}

	level, err := parseLogLevel(c.Logging.Level)
	if err != nil {
		return err
	}
	c.Logging.level = level

	switch c.Logging.AppEnv {
	case "dev", "prod":
	default:
		return fmt.Errorf("invalid APP_ENV %q (allowed: dev, prod)", c.Logging.AppEnv)
	}
	return nil
}

// Interval returns the pause between the end of one cycle and the start of the next.
func (c *Config) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}

// SlogLevel returns the parsed log level.
func (l LoggingConfig) SlogLevel() slog.Level {
	return l.level
}

func envFloat(name string) (float64, error) {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, v, err)
	}
	return f, nil
}

// Unedited sample values contain "your_".
func isPlaceholder(v string) bool {
	return strings.Contains(strings.ToLower(v), "your_")
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", s)
	}
}
