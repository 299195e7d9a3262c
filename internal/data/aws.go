package data

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"

	"github.com/yixianOu/moviestore/internal/conf"
)

const defaultRegion = "us-east-1"

// NewAWSConfig loads the default credential chain for the ingest region.
func NewAWSConfig(c *conf.Ingest) (aws.Config, error) {
	if c == nil {
		return aws.Config{}, errors.New("ingest is not configured")
	}
	region := c.Region
	if region == "" {
		region = defaultRegion
	}
	return awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(region))
}

// endpointOverride returns c.Endpoint as an SDK base endpoint, or nil.
func endpointOverride(c *conf.Ingest) *string {
	if c == nil || c.Endpoint == "" {
		return nil
	}
	return aws.String(c.Endpoint)
}
