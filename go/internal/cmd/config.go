package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mcdev12/wordquest/go/internal/session"
	"github.com/mcdev12/wordquest/go/internal/words"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

const (
	wordsSourcePostgres = "postgres"
	wordsSourceSupabase = "supabase"
)

type Config struct {
	LogLevel string        `yaml:"log_level"`
	NATSURL  string        `yaml:"nats_url"`
	Server   ServerConfig  `yaml:"server"`
	Words    WordsConfig   `yaml:"words"`
	Session  SessionConfig `yaml:"session"`
}

type ServerConfig struct {
	Port           string   `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type WordsConfig struct {
	Source          string `yaml:"source"`
	DefaultLimit    int    `yaml:"default_limit"`
	MaxLimit        int    `yaml:"max_limit"`
	RPCName         string `yaml:"rpc_name"`
	SupabaseURL     string `yaml:"supabase_url"`
	SupabaseAnonKey string `yaml:"-"`
}

type SessionConfig struct {
	TypingTimeLimitSec int           `yaml:"typing_time_limit_sec"`
	EchoCountdownSec   float64       `yaml:"echo_countdown_sec"`
	MemoryCountdownSec float64       `yaml:"memory_countdown_sec"`
	Retention          time.Duration `yaml:"retention"`
	ReapInterval       time.Duration `yaml:"reap_interval"`
	NATSSubjectPrefix  string        `yaml:"nats_subject_prefix"`
}

func defaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Server: ServerConfig{
			Port:           "8080",
			AllowedOrigins: []string{"*"},
		},
		Words: WordsConfig{
			Source:       wordsSourcePostgres,
			DefaultLimit: words.DefaultLimit,
			MaxLimit:     words.DefaultMaxLimit,
			RPCName:      "get_random_words",
		},
		Session: SessionConfig{
			TypingTimeLimitSec: session.DefaultTypingTimeLimit,
			EchoCountdownSec:   5,
			MemoryCountdownSec: 5,
			Retention:          session.DefaultRetention,
			ReapInterval:       session.DefaultReapInterval,
			NATSSubjectPrefix:  "wordquest.sessions",
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// loadConfig overlays the YAML file at path on the defaults. A missing file
// leaves the defaults in place.
func loadConfig(path string) (*Config, error) {
	config := defaultConfig()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return config, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return config, nil
}

// applyEnv lets the environment override the file.
func (c *Config) applyEnv() {
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.NATSURL = getEnv("NATS_URL", c.NATSURL)
	c.Server.Port = getEnv("PORT", c.Server.Port)
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		c.Server.AllowedOrigins = strings.Split(origins, ",")
	}
	c.Words.Source = strings.ToLower(getEnv("WORDS_SOURCE", c.Words.Source))
	c.Words.SupabaseURL = getEnv("SUPABASE_URL", c.Words.SupabaseURL)
	c.Words.SupabaseAnonKey = getEnv("SUPABASE_ANON_KEY", c.Words.SupabaseAnonKey)
	if v, err := strconv.Atoi(os.Getenv("TYPING_TIME_LIMIT_SEC")); err == nil && v > 0 {
		c.Session.TypingTimeLimitSec = v
	}
}

func (c *Config) validate() error {
	switch c.Words.Source {
	case wordsSourcePostgres:
	case wordsSourceSupabase:
		if c.Words.SupabaseURL == "" || c.Words.SupabaseAnonKey == "" {
			return errors.New("SUPABASE_URL and SUPABASE_ANON_KEY are required when the words source is supabase")
		}
	default:
		return fmt.Errorf("unknown words source %q", c.Words.Source)
	}
	if c.Words.RPCName == "" {
		return errors.New("words.rpc_name must not be empty")
	}
	if c.Server.Port == "" {
		return errors.New("server.port must not be empty")
	}
	return nil
}

func (c *Config) logLevel() zerolog.Level {
	level, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return level
}

func (s SessionConfig) managerConfig() session.Config {
	return session.Config{
		TypingTimeLimit: s.TypingTimeLimitSec,
		EchoCountdown:   seconds(s.EchoCountdownSec),
		MemoryCountdown: seconds(s.MemoryCountdownSec),
		Retention:       s.Retention,
		ReapInterval:    s.ReapInterval,
	}
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
