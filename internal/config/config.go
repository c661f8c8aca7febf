package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Database    DatabaseConfig    `yaml:"database"`
	MinIO       MinIOConfig       `yaml:"minio"`
	NATS        NATSConfig        `yaml:"nats"`
	Recognition RecognitionConfig `yaml:"recognition"`
	Pipeline    PipelineConfig    `yaml:"pipeline"`
	Variants    VariantsConfig    `yaml:"variants"`
	Logging     LoggingConfig     `yaml:"logging"`
}

type ServerConfig struct {
	Port   int    `yaml:"port"`
	APIKey string `yaml:"api_key"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	MaxConns int    `yaml:"max_conns"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name)
}

type MinIOConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
}

type NATSConfig struct {
	URL string `yaml:"url"`
}

// RecognitionConfig describes the remote face recognition capability.
type RecognitionConfig struct {
	BaseURL        string        `yaml:"base_url"`
	MatchThreshold float64       `yaml:"match_threshold"`
	Timeout        time.Duration `yaml:"timeout"`
}

type PipelineConfig struct {
	MaxBatchSize int `yaml:"max_batch_size"`
}

// VariantsConfig controls the derived image encodings served by the API.
type VariantsConfig struct {
	SmallSize     int `yaml:"small_size"`     // square edge of the thumbnail crop
	SmallQuality  int `yaml:"small_quality"`  // JPEG quality for thumbnails
	MediumBound   int `yaml:"medium_bound"`   // max dimension of the medium variant
	MediumQuality int `yaml:"medium_quality"` // JPEG quality for the medium variant
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads config from YAML file and applies environment variable overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyEnvOverrides(cfg)
	setDefaults(cfg)

	return cfg, nil
}

func setDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.MaxConns == 0 {
		cfg.Database.MaxConns = 20
	}
	if cfg.Recognition.MatchThreshold == 0 {
		cfg.Recognition.MatchThreshold = 0.35
	}
	if cfg.Recognition.Timeout == 0 {
		cfg.Recognition.Timeout = 30 * time.Second
	}
	if cfg.Pipeline.MaxBatchSize == 0 {
		cfg.Pipeline.MaxBatchSize = 50
	}
	if cfg.Variants.SmallSize == 0 {
		cfg.Variants.SmallSize = 300
	}
	if cfg.Variants.SmallQuality == 0 {
		cfg.Variants.SmallQuality = 50
	}
	if cfg.Variants.MediumBound == 0 {
		cfg.Variants.MediumBound = 1200
	}
	if cfg.Variants.MediumQuality == 0 {
		cfg.Variants.MediumQuality = 70
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PS_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("PS_API_KEY"); v != "" {
		cfg.Server.APIKey = v
	}
	if v := os.Getenv("PS_DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("PS_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("PS_DB_NAME"); v != "" {
		cfg.Database.Name = v
	}
	if v := os.Getenv("PS_DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("PS_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("PS_NATS_URL"); v != "" {
		cfg.NATS.URL = v
	}
	if v := os.Getenv("PS_MINIO_ENDPOINT"); v != "" {
		cfg.MinIO.Endpoint = v
	}
	if v := os.Getenv("PS_MINIO_ACCESS_KEY"); v != "" {
		cfg.MinIO.AccessKey = v
	}
	if v := os.Getenv("PS_MINIO_SECRET_KEY"); v != "" {
		cfg.MinIO.SecretKey = v
	}
	if v := os.Getenv("PS_MINIO_BUCKET"); v != "" {
		cfg.MinIO.Bucket = v
	}
	if v := os.Getenv("PS_RECOGNITION_URL"); v != "" {
		cfg.Recognition.BaseURL = v
	}
	if v := os.Getenv("PS_MATCH_THRESHOLD"); v != "" {
		if t, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Recognition.MatchThreshold = t
		}
	}
	if v := os.Getenv("PS_MAX_BATCH_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Pipeline.MaxBatchSize = n
		}
	}
}
