package config

import (
	"errors"
	"os"

	"github.com/joeshaw/envdecode"
)

// Config holds the full environment configuration for the portal backend.
type Config struct {
	Port      string `env:"PORT,default=8080"`
	DBPath    string `env:"DB_PATH,default=data/portal.db"`
	JWTSecret string `env:"JWT_SECRET"`
	UploadDir string `env:"UPLOAD_DIR,default=uploads"`

	SMTP SMTPConfig
	AWS  AWSConfig
}

// SMTPConfig configures the outbound mail transport.
type SMTPConfig struct {
	Host     string `env:"SMTP_HOST"`
	Port     int    `env:"SMTP_PORT,default=587"`
	User     string `env:"SMTP_USER"`
	Password string `env:"SMTP_PASS"`
	From     string `env:"SMTP_FROM,default=Evolvia <noreply@evolvia.com>"`
}

// Configured reports whether an SMTP host has been set.
func (c SMTPConfig) Configured() bool { return c.Host != "" }

// AWSConfig configures the S3 document store. All four values are required
// together: a partial configuration counts as not configured and uploads
// fall back to the local filesystem.
type AWSConfig struct {
	AccessKeyID     string `env:"AWS_ACCESS_KEY_ID"`
	SecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY"`
	Region          string `env:"AWS_REGION"`
	BucketName      string `env:"AWS_S3_BUCKET_NAME"`
}

// Configured reports whether every S3 setting is present.
func (c AWSConfig) Configured() bool {
	return c.AccessKeyID != "" && c.SecretAccessKey != "" && c.Region != "" && c.BucketName != ""
}

// Load decodes the configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil {
		// envdecode errors on structs with no required fields only when
		// nothing at all is set; treat that as an all-defaults config.
		if err != envdecode.ErrNoTargetFieldsAreSet {
			return nil, err
		}
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.DBPath == "" {
		cfg.DBPath = "data/portal.db"
	}
	if cfg.UploadDir == "" {
		cfg.UploadDir = "uploads"
	}
	if cfg.JWTSecret == "" {
		if os.Getenv("GIN_MODE") == "release" {
			return nil, errors.New("JWT_SECRET environment variable is required in production mode")
		}
		cfg.JWTSecret = "default_super_secret_key" // Development fallback only — DO NOT use in production
	}
	return &cfg, nil
}
