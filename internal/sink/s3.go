// Package sink holds the archival backends for accepted messages: a durable
// object store addressed by key and a content-addressed store addressed by
// the payload itself.
package sink

import (
	"bytes"
	"context"
	"fmt"
	"path"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog"
)

// S3Config selects an S3-compatible endpoint and bucket. Credentials are
// supplied externally, typically through the environment.
type S3Config struct {
	Endpoint  string `mapstructure:"endpoint" yaml:"endpoint"`
	Bucket    string `mapstructure:"bucket" yaml:"bucket"`
	AccessKey string `mapstructure:"access_key" yaml:"access_key"`
	SecretKey string `mapstructure:"secret_key" yaml:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl" yaml:"use_ssl"`
}

// S3Sink writes opaque payloads under caller-chosen keys to one bucket.
type S3Sink struct {
	client *minio.Client
	bucket string
	log    *zerolog.Logger
}

// NewS3Sink builds the sink. The connection is lazy; the first Put surfaces
// endpoint or credential problems.
func NewS3Sink(cfg S3Config, logger *zerolog.Logger) (*S3Sink, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("s3: endpoint is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3: bucket is required")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("s3: init client: %w", err)
	}

	return &S3Sink{client: client, bucket: cfg.Bucket, log: logger}, nil
}

// Put stores payload under key and returns its bucket-qualified location.
func (s *S3Sink) Put(ctx context.Context, key string, payload []byte, contentType string) (string, error) {
	info, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(payload), int64(len(payload)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("s3: put %s: %w", key, err)
	}

	s.log.Debug().Str("bucket", info.Bucket).Str("key", info.Key).Int("bytes", len(payload)).Msg("snapshot stored")
	return path.Join(info.Bucket, info.Key), nil
}
