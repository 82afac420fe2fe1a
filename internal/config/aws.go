package config

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/pkg/errors"
)

// LoadAWS resolves the default AWS credential chain for the configured region.
func LoadAWS(ctx context.Context, cfg *Config) (aws.Config, error) {
	if cfg.AWSRegion == "" {
		return aws.Config{}, errors.New("AWS_REGION is empty")
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		return aws.Config{}, errors.Wrap(err, "load AWS SDK config")
	}
	return awsCfg, nil
}
