// Package config loads run-time defaults from the environment and an
// optional .env file.
package config

import (
	"fmt"
	"os"

	env "github.com/Netflix/go-env"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds defaults for CLI flags.
type Config struct {
	Floor           int    `env:"APKFEAT_FLOOR,default=5" validate:"gte=0"`
	Ceiling         int    `env:"APKFEAT_CEILING,default=1" validate:"gte=0"`
	Mode            string `env:"APKFEAT_MODE,default=binary" validate:"oneof=binary count tfidf"`
	CheckpointEvery int    `env:"APKFEAT_CHECKPOINT_EVERY,default=500" validate:"gte=1"`
	CacheSize       int    `env:"APKFEAT_CACHE_SIZE,default=65536" validate:"gte=1"`
	DottedRules     string `env:"APKFEAT_DOTTED_RULES,default=truncate" validate:"oneof=truncate package"`
	CollapseURLs    bool   `env:"APKFEAT_COLLAPSE_URLS,default=false"`

	S3 S3
}

// S3 configures the artifact store.
type S3 struct {
	Endpoint  string `env:"APKFEAT_S3_ENDPOINT"`
	Region    string `env:"APKFEAT_S3_REGION,default=us-east-1"`
	AccessKey string `env:"APKFEAT_S3_ACCESS_KEY"`
	SecretKey string `env:"APKFEAT_S3_SECRET_KEY"`
	Bucket    string `env:"APKFEAT_S3_BUCKET,default=apkfeat"`
	UseSSL    bool   `env:"APKFEAT_S3_USE_SSL,default=false"`
}

// Configured reports whether an endpoint and credentials are set.
func (s S3) Configured() bool {
	return s.Endpoint != "" && s.AccessKey != "" && s.SecretKey != ""
}

var validate = validator.New()

// Load reads .env (when present) into the environment, then the
// environment into a Config.
func Load() (*Config, error) {
	_ = godotenv.Load()
	es, err := env.EnvironToEnvSet(os.Environ())
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return FromEnvSet(es)
}

// FromEnvSet builds a Config from explicit variables.
func FromEnvSet(es env.EnvSet) (*Config, error) {
	var cfg Config
	if err := env.Unmarshal(es, &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}
