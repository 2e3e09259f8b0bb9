// Package awsclient builds aws.Config for the DynamoDB, S3 and CloudWatch Logs
// adapters the same way: region, optional static credentials.
package awsclient

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
)

type Options struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

// Load returns an aws.Config. Static credentials are used only when both
// keys are set; otherwise the default chain (env, shared config, IMDS) applies.
func Load(ctx context.Context, service string, opts Options) (aws.Config, error) {
	if strings.TrimSpace(opts.Region) == "" {
		opts.Region = "us-east-1"
	}

	loadOptions := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(opts.Region),
	}

	accessKeyID := strings.TrimSpace(opts.AccessKeyID)
	secretAccessKey := strings.TrimSpace(opts.SecretAccessKey)
	if accessKeyID != "" || secretAccessKey != "" {
		if accessKeyID == "" || secretAccessKey == "" {
			return aws.Config{}, fmt.Errorf("both %s access key id and secret access key are required for static credentials", service)
		}
		loadOptions = append(loadOptions, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKeyID, secretAccessKey, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOptions...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to create aws config for %s: %w", service, err)
	}
	return cfg, nil
}

// Endpoint returns a pointer for BaseEndpoint, nil when unset.
func Endpoint(raw string) *string {
	endpoint := strings.TrimSpace(raw)
	if endpoint == "" {
		return nil
	}
	return &endpoint
}
