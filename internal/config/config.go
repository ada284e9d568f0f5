package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// DefaultControlToken is the shared secret used when none is configured.
const DefaultControlToken = "your-ai-token-here-change-in-production"

// Config defines server configuration.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Auth        AuthConfig        `yaml:"auth"`
	DB          DBConfig          `yaml:"db"`
	Log         LogConfig         `yaml:"log"`
	Relay       RelayConfig       `yaml:"relay"`
	Attachments AttachmentsConfig `yaml:"attachments"`
}

type ServerConfig struct {
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	PublicURL string `yaml:"public_url"`
}

type AuthConfig struct {
	ControlToken string `yaml:"control_token"`
}

type DBConfig struct {
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type RelayConfig struct {
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval"`
	WriteTimeout      time.Duration `yaml:"write_timeout"`
	SendBuffer        int           `yaml:"send_buffer"`
}

type AttachmentsConfig struct {
	Backend        string   `yaml:"backend"`
	Dir            string   `yaml:"dir"`
	MaxUploadBytes int64    `yaml:"max_upload_bytes"`
	S3             S3Config `yaml:"s3"`
}

type S3Config struct {
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Prefix    string `yaml:"prefix"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 3000,
		},
		Auth: AuthConfig{
			ControlToken: DefaultControlToken,
		},
		DB: DBConfig{
			Path: "./data/ai-screen.db",
		},
		Log: LogConfig{
			Level: "info",
		},
		Relay: RelayConfig{
			HeartbeatInterval: 30 * time.Second,
			WriteTimeout:      10 * time.Second,
			SendBuffer:        256,
		},
		Attachments: AttachmentsConfig{
			Backend:        "fs",
			Dir:            "./static/attachments",
			MaxUploadBytes: 50 << 20,
			S3: S3Config{
				Region: "us-east-1",
				Prefix: "attachments",
			},
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file, environment
// variables and finally command-line flags, each layer overriding the previous one.
func Load(args []string) (Config, error) {
	cfg := Default()

	flags := pflag.NewFlagSet("screen-relay", pflag.ContinueOnError)
	configPath := flags.String("config", "", "path to a YAML config file")
	host := flags.String("host", cfg.Server.Host, "listen address")
	port := flags.Int("port", cfg.Server.Port, "listen port")
	publicURL := flags.String("public-url", "", "external base URL used in attachment links")
	dbPath := flags.String("db", cfg.DB.Path, "SQLite database path")
	logLevel := flags.String("log-level", cfg.Log.Level, "log level (debug, info, warn, error)")
	backend := flags.String("attachments-backend", cfg.Attachments.Backend, "attachment storage backend (fs, s3)")
	attachmentsDir := flags.String("attachments-dir", cfg.Attachments.Dir, "directory for the fs attachment backend")
	if err := flags.Parse(args); err != nil {
		return Config{}, err
	}

	path := *configPath
	if path == "" {
		path = os.Getenv("SCREENRELAY_CONFIG_PATH")
	}
	if path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	if flags.Changed("host") {
		cfg.Server.Host = *host
	}
	if flags.Changed("port") {
		cfg.Server.Port = *port
	}
	if flags.Changed("public-url") {
		cfg.Server.PublicURL = *publicURL
	}
	if flags.Changed("db") {
		cfg.DB.Path = *dbPath
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = *logLevel
	}
	if flags.Changed("attachments-backend") {
		cfg.Attachments.Backend = *backend
	}
	if flags.Changed("attachments-dir") {
		cfg.Attachments.Dir = *attachmentsDir
	}

	return cfg, nil
}

func applyEnv(cfg *Config) error {
	setString := func(dst *string, keys ...string) {
		for _, key := range keys {
			if v := os.Getenv(key); v != "" {
				*dst = v
			}
		}
	}

	setString(&cfg.Server.Host, "SCREENRELAY_SERVER_HOST")
	setString(&cfg.Server.PublicURL, "SCREENRELAY_PUBLIC_URL")
	setString(&cfg.Auth.ControlToken, "AI_TOKEN", "SCREENRELAY_CONTROL_TOKEN")
	setString(&cfg.DB.Path, "SCREENRELAY_DB_PATH")
	setString(&cfg.Log.Level, "SCREENRELAY_LOG_LEVEL")
	setString(&cfg.Attachments.Backend, "SCREENRELAY_ATTACHMENTS_BACKEND")
	setString(&cfg.Attachments.Dir, "SCREENRELAY_ATTACHMENTS_DIR")
	setString(&cfg.Attachments.S3.Bucket, "SCREENRELAY_S3_BUCKET")
	setString(&cfg.Attachments.S3.Region, "SCREENRELAY_S3_REGION")
	setString(&cfg.Attachments.S3.Endpoint, "SCREENRELAY_S3_ENDPOINT")
	setString(&cfg.Attachments.S3.AccessKey, "SCREENRELAY_S3_ACCESS_KEY")
	setString(&cfg.Attachments.S3.SecretKey, "SCREENRELAY_S3_SECRET_KEY")

	for _, key := range []string{"PORT", "SCREENRELAY_SERVER_PORT"} {
		portStr := os.Getenv(key)
		if portStr == "" {
			continue
		}
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
		cfg.Server.Port = port
	}

	if v := os.Getenv("SCREENRELAY_HEARTBEAT_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid SCREENRELAY_HEARTBEAT_INTERVAL: %w", err)
		}
		cfg.Relay.HeartbeatInterval = d
	}
	if v := os.Getenv("SCREENRELAY_MAX_UPLOAD_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid SCREENRELAY_MAX_UPLOAD_BYTES: %w", err)
		}
		cfg.Attachments.MaxUploadBytes = n
	}

	return nil
}

// Validate checks settings that would otherwise fail at first use.
func (c Config) Validate() error {
	if c.Auth.ControlToken == "" {
		return errors.New("auth.control_token must not be empty")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	switch c.Attachments.Backend {
	case "fs":
		if c.Attachments.Dir == "" {
			return errors.New("attachments.dir is required for the fs backend")
		}
	case "s3":
		if c.Attachments.S3.Bucket == "" {
			return errors.New("attachments.s3.bucket is required for the s3 backend")
		}
	default:
		return fmt.Errorf("unknown attachments.backend %q", c.Attachments.Backend)
	}
	return nil
}

// UsesDefaultToken reports whether the control plane is protected by the built-in secret.
func (c Config) UsesDefaultToken() bool {
	return c.Auth.ControlToken == DefaultControlToken
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}
