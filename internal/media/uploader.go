// Package media hosts uploaded files on S3-compatible object storage and
// returns publicly reachable URLs for them.
package media

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// Config holds the object-storage settings. It is passed in explicitly at
// construction; there is no process-wide storage configuration.
type Config struct {
	Endpoint      string
	Region        string
	Bucket        string
	AccessKey     string
	SecretKey     string
	PublicBaseURL string
}

// Uploader stores objects in a single bucket.
type Uploader struct {
	client        *s3.Client
	bucket        string
	publicBaseURL string
	clock         func() time.Time
}

// NewUploader builds the S3 client from the supplied config. A non-empty
// Endpoint switches to path-style addressing for MinIO-style deployments.
func NewUploader(ctx context.Context, cfg Config) (*Uploader, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("media: bucket required")
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("media: loading storage config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	base := strings.TrimRight(cfg.PublicBaseURL, "/")
	if base == "" {
		base = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
	}

	return &Uploader{
		client:        client,
		bucket:        cfg.Bucket,
		publicBaseURL: base,
		clock:         time.Now,
	}, nil
}

// Upload stores the content under a fresh date-partitioned key and returns
// its public URL.
func (u *Uploader) Upload(ctx context.Context, body io.Reader, contentType string) (string, error) {
	key := u.storageKey()
	input := &s3.PutObjectInput{
		Bucket: aws.String(u.bucket),
		Key:    aws.String(key),
		Body:   body,
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	if _, err := u.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("media: uploading object: %w", err)
	}
	return u.publicBaseURL + "/" + key, nil
}

func (u *Uploader) storageKey() string {
	d := u.clock().UTC()
	return fmt.Sprintf("uploads/%d/%02d/%02d/%s", d.Year(), d.Month(), d.Day(), uuid.NewString())
}
