package r2

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/mfigueroa/retailhub-backend/pkg/config"
)

// Client uploads objects to Cloudflare R2 through its S3-compatible API.
type Client struct {
	s3            *s3.Client
	bucket        string
	publicBaseURL string
}

// New builds an R2 client from static credentials. Returns nil when storage is
// not configured; callers treat a nil client as uploads-disabled.
func New(ctx context.Context, cfg config.R2Config) (*Client, error) {
	if !cfg.Configured() {
		return nil, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion("auto"),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID, cfg.SecretAccessKey, "",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("loading r2 credentials: %w", err)
	}

	endpoint := cfg.EndpointURL()
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	})

	return &Client{
		s3:            client,
		bucket:        cfg.Bucket,
		publicBaseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
	}, nil
}

// Enabled reports whether uploads can be served.
func (c *Client) Enabled() bool {
	return c != nil && c.s3 != nil && c.bucket != ""
}

// Upload stores the object under key and returns its public URL.
func (c *Client) Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error) {
	if !c.Enabled() {
		return "", fmt.Errorf("object storage not configured")
	}

	_, err := c.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("putting object %q: %w", key, err)
	}

	return c.PublicURL(key), nil
}

// Delete removes the object addressed by its public URL. Unknown URLs are a
// no-op so callers can pass through whatever was stored.
func (c *Client) Delete(ctx context.Context, fileURL string) error {
	if !c.Enabled() {
		return fmt.Errorf("object storage not configured")
	}

	key := c.keyFromURL(fileURL)
	if key == "" {
		return nil
	}

	_, err := c.s3.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("deleting object %q: %w", key, err)
	}
	return nil
}

// PublicURL returns the CDN-facing URL for a stored key.
func (c *Client) PublicURL(key string) string {
	if c.publicBaseURL == "" {
		return fmt.Sprintf("s3://%s/%s", c.bucket, key)
	}
	return fmt.Sprintf("%s/%s", c.publicBaseURL, key)
}

func (c *Client) keyFromURL(fileURL string) string {
	if c.publicBaseURL != "" && strings.HasPrefix(fileURL, c.publicBaseURL+"/") {
		return strings.TrimPrefix(fileURL, c.publicBaseURL+"/")
	}
	prefix := fmt.Sprintf("s3://%s/", c.bucket)
	if strings.HasPrefix(fileURL, prefix) {
		return strings.TrimPrefix(fileURL, prefix)
	}
	return ""
}
