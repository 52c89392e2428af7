package config

import (
	"testing"

	env "github.com/Netflix/go-env"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	req := require.New(t)
	cfg, err := FromEnvSet(env.EnvSet{})
	req.NoError(err)
	req.Equal(5, cfg.Floor)
	req.Equal(1, cfg.Ceiling)
	req.Equal("binary", cfg.Mode)
	req.Equal(500, cfg.CheckpointEvery)
	req.Equal(65536, cfg.CacheSize)
	req.Equal("truncate", cfg.DottedRules)
	req.False(cfg.CollapseURLs)
	req.Equal("apkfeat", cfg.S3.Bucket)
	req.False(cfg.S3.Configured())
}

func TestOverrides(t *testing.T) {
	req := require.New(t)
	cfg, err := FromEnvSet(env.EnvSet{
		"APKFEAT_FLOOR":         "0",
		"APKFEAT_MODE":          "tfidf",
		"APKFEAT_COLLAPSE_URLS": "true",
		"APKFEAT_S3_ENDPOINT":   "localhost:9000",
		"APKFEAT_S3_ACCESS_KEY": "minio",
		"APKFEAT_S3_SECRET_KEY": "minio123",
	})
	req.NoError(err)
	req.Equal(0, cfg.Floor)
	req.Equal("tfidf", cfg.Mode)
	req.True(cfg.CollapseURLs)
	req.True(cfg.S3.Configured())
}

func TestValidation(t *testing.T) {
	for _, es := range []env.EnvSet{
		{"APKFEAT_FLOOR": "-1"},
		{"APKFEAT_MODE": "onehot"},
		{"APKFEAT_CHECKPOINT_EVERY": "0"},
		{"APKFEAT_DOTTED_RULES": "none"},
		{"APKFEAT_CEILING": "many"},
	} {
		_, err := FromEnvSet(es)
		require.Error(t, err, "%v", es)
	}
}
