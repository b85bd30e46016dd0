// Package publish uploads run output to object storage.
package publish

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"github.com/ppiankov/carescope/internal/model"
)

// File is one rendered output to upload.
type File struct {
	Name        string
	Body        []byte
	ContentType string
}

// Config holds explicit construction parameters. Credentials come from the
// default AWS chain (env, shared config, instance role).
type Config struct {
	Bucket    string
	Prefix    string
	Region    string
	Endpoint  string // optional; set for S3-compatible stores such as MinIO
	PathStyle bool
}

// ConfigFromModel converts the application config.
func ConfigFromModel(cfg model.S3Config) Config {
	return Config{
		Bucket:    cfg.Bucket,
		Prefix:    cfg.Prefix,
		Region:    cfg.Region,
		Endpoint:  cfg.Endpoint,
		PathStyle: cfg.UsePathStyle,
	}
}

// objectPutter is the part of *s3.Client the publisher needs.
type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Publisher writes each file twice: once under runs/<run id>/ as an
// archive, and once at the prefix root, replacing the previous run.
type S3Publisher struct {
	client objectPutter
	bucket string
	prefix string
	log    *zap.Logger
}

// NewS3Publisher creates a publisher for an AWS S3 or S3-compatible bucket.
func NewS3Publisher(ctx context.Context, cfg Config, log *zap.Logger) (*S3Publisher, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.PathStyle {
			o.UsePathStyle = true
		}
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return newS3Publisher(client, cfg, log), nil
}

func newS3Publisher(client objectPutter, cfg Config, log *zap.Logger) *S3Publisher {
	if log == nil {
		log = zap.NewNop()
	}
	return &S3Publisher{
		client: client,
		bucket: cfg.Bucket,
		prefix: strings.TrimPrefix(cfg.Prefix, "/"),
		log:    log,
	}
}

// Publish uploads files and returns the keys written, in upload order.
// The archive copy goes first so the root copy never points at a run that
// was not stored.
func (p *S3Publisher) Publish(ctx context.Context, runID string, files []File) ([]string, error) {
	if runID == "" {
		return nil, errors.New("run id required")
	}
	var keys []string
	for _, f := range files {
		for _, key := range []string{p.key("runs", runID, f.Name), p.key(f.Name)} {
			if err := p.put(ctx, key, runID, f); err != nil {
				return keys, err
			}
			keys = append(keys, key)
		}
	}
	return keys, nil
}

func (p *S3Publisher) put(ctx context.Context, key, runID string, f File) error {
	input := &s3.PutObjectInput{
		Bucket:   aws.String(p.bucket),
		Key:      aws.String(key),
		Body:     bytes.NewReader(f.Body),
		Metadata: map[string]string{"run-id": runID},
	}
	if f.ContentType != "" {
		input.ContentType = aws.String(f.ContentType)
	}
	if _, err := p.client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("put s3://%s/%s: %w", p.bucket, key, err)
	}
	p.log.Debug("published object",
		zap.String("bucket", p.bucket),
		zap.String("key", key),
		zap.Int("bytes", len(f.Body)))
	return nil
}

func (p *S3Publisher) key(parts ...string) string {
	return path.Join(append([]string{p.prefix}, parts...)...)
}
