// Package archive copies production snapshots to S3-compatible object storage.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/rpggio/photobook/internal/domain/version"
)

// Options configures the bucket and credentials. Endpoint is optional and
// points at a MinIO or other S3-compatible server.
type Options struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
	Prefix    string
}

type putter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

var loadDefaultAWSConfig = config.LoadDefaultConfig

// S3Archiver implements version.Archiver.
type S3Archiver struct {
	client putter
	bucket string
	prefix string
	logger *slog.Logger
}

// NewS3Archiver builds an S3 client from opts. Static credentials are used
// when both keys are set, otherwise the default AWS credential chain.
func NewS3Archiver(ctx context.Context, opts Options, logger *slog.Logger) (*S3Archiver, error) {
	if opts.Bucket == "" {
		return nil, errors.New("archive bucket is required")
	}

	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(opts.Region)}
	if opts.AccessKey != "" && opts.SecretKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, ""),
		))
	}
	cfg, err := loadDefaultAWSConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})
	return newArchiver(client, opts.Bucket, opts.Prefix, logger), nil
}

func newArchiver(client putter, bucket, prefix string, logger *slog.Logger) *S3Archiver {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &S3Archiver{client: client, bucket: bucket, prefix: prefix, logger: logger}
}

// ArchiveSnapshot writes rec as JSON under a key derived from its tenant,
// project and version number.
func (a *S3Archiver) ArchiveSnapshot(ctx context.Context, rec *version.Record) error {
	body, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	key := ObjectKey(a.prefix, rec)
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
		Metadata: map[string]string{
			"project-id":     rec.ProjectID,
			"version-number": fmt.Sprintf("%d", rec.VersionNumber),
		},
	})
	if err != nil {
		return fmt.Errorf("uploading %s: %w", key, err)
	}

	a.logger.Info("production snapshot archived", "bucket", a.bucket, "key", key)
	return nil
}

// ObjectKey returns where a record is stored in the bucket.
func ObjectKey(prefix string, rec *version.Record) string {
	name := fmt.Sprintf("v%06d-%s.json", rec.VersionNumber, rec.ID)
	return path.Join(prefix, rec.TenantID, rec.ProjectID, name)
}
