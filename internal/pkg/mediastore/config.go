package mediastore

import (
	"errors"
	"fmt"
	"strings"

	"github.com/trendhack/dashboard/internal/pkg/env"
)

// Config holds the S3 settings for mirrored media
type Config struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	BucketName      string
	EndpointURL     string // Optional for S3-compatible services
	PublicBaseURL   string
	Enabled         bool
}

// LoadConfig loads S3 configuration from environment variables
func LoadConfig() (*Config, error) {
	config := &Config{
		AccessKeyID:     env.GetEnv("S3_ACCESS_KEY_ID", ""),
		SecretAccessKey: env.GetEnv("S3_SECRET_ACCESS_KEY", ""),
		Region:          env.GetEnv("S3_REGION", "us-east-1"),
		BucketName:      env.GetEnv("S3_BUCKET_NAME", ""),
		EndpointURL:     env.GetEnv("S3_ENDPOINT_URL", ""),
		PublicBaseURL:   env.GetEnv("S3_PUBLIC_BASE_URL", ""),
		Enabled:         env.GetEnvBool("S3_MIRROR_ENABLED", false),
	}

	// Validate required fields if mirroring is enabled
	if config.Enabled {
		if config.AccessKeyID == "" {
			return nil, errors.New("S3_ACCESS_KEY_ID is required when S3 mirroring is enabled")
		}
		if config.SecretAccessKey == "" {
			return nil, errors.New("S3_SECRET_ACCESS_KEY is required when S3 mirroring is enabled")
		}
		if config.BucketName == "" {
			return nil, errors.New("S3_BUCKET_NAME is required when S3 mirroring is enabled")
		}
	}

	return config, nil
}

// IsEnabled returns true if mirroring is enabled
func (c *Config) IsEnabled() bool {
	return c != nil && c.Enabled
}

// ObjectKey is the bucket key of a mirrored item: media/<kind>/<id>.jpg
func (c *Config) ObjectKey(kind string, id uint) string {
	return fmt.Sprintf("media/%s/%d.jpg", kind, id)
}

// BaseURL is the public prefix every mirrored URL starts with.
func (c *Config) BaseURL() string {
	if c.PublicBaseURL != "" {
		return strings.TrimRight(c.PublicBaseURL, "/")
	}
	if c.EndpointURL != "" {
		return strings.TrimRight(c.EndpointURL, "/") + "/" + c.BucketName
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", c.BucketName, c.Region)
}

// PublicURL is where key is served from.
func (c *Config) PublicURL(key string) string {
	return c.BaseURL() + "/" + key
}
