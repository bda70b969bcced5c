// Package s3store implements services.ObjectStore on any S3-compatible endpoint
// (AWS S3, MinIO, Supabase Storage's S3 gateway).
package s3store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"nodestore/internal/domain/services"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// ErrCapability is returned when an operation needs more access than the store was built with
var ErrCapability = errors.New("operation requires elevated storage capability")

// Config holds connection settings for both credential sets
type Config struct {
	Endpoint     string // empty = AWS default endpoint resolution
	Region       string
	Bucket       string
	UsePathStyle bool

	// Standard credentials. Empty falls back to the default AWS credential chain.
	AccessKeyID     string
	SecretAccessKey string

	// Service-role credentials, required for CapabilityElevated
	ServiceAccessKeyID     string
	ServiceSecretAccessKey string

	// RetryMaxAttempts overrides the SDK default when > 0
	RetryMaxAttempts int
}

// Store is an S3-backed object store bound to one bucket and one capability
type Store struct {
	client     *s3.Client
	presign    *s3.PresignClient
	bucket     string
	capability services.StorageCapability
	logger     *slog.Logger
}

// New builds a store with the credentials matching capability.
// Elevated construction fails if no service credentials are configured.
func New(ctx context.Context, cfg Config, capability services.StorageCapability, logger *slog.Logger) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3 bucket cannot be empty")
	}

	opts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
	}

	keyID, secret := cfg.AccessKeyID, cfg.SecretAccessKey
	if capability == services.CapabilityElevated {
		keyID, secret = cfg.ServiceAccessKeyID, cfg.ServiceSecretAccessKey
		if keyID == "" || secret == "" {
			return nil, fmt.Errorf("elevated storage access requested but service credentials are not configured")
		}
	}
	if keyID != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(keyID, secret, ""),
		))
	}

	awsCfg, err := loadDefaultAWSConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load s3 config: %w", err)
	}

	client := newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
		if cfg.RetryMaxAttempts > 0 {
			o.RetryMaxAttempts = cfg.RetryMaxAttempts
		}
	})

	logger.Info("object store initialized",
		"bucket", cfg.Bucket,
		"endpoint", cfg.Endpoint,
		"capability", capability.String(),
	)

	return &Store{
		client:     client,
		presign:    s3.NewPresignClient(client),
		bucket:     cfg.Bucket,
		capability: capability,
		logger:     logger,
	}, nil
}

// Capability reports which credential set the store was built with
func (s *Store) Capability() services.StorageCapability {
	return s.capability
}

// SignedUploadURL presigns a PUT. The client must send the same Content-Type when one is given.
func (s *Store) SignedUploadURL(ctx context.Context, key, contentType string, ttl time.Duration) (*services.SignedUpload, error) {
	in := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}
	if contentType != "" {
		in.ContentType = aws.String(contentType)
	}

	req, err := presignPutObject(s.presign, ctx, in, s3.WithPresignExpires(ttl))
	if err != nil {
		return nil, fmt.Errorf("presign put %s: %w", key, err)
	}

	return &services.SignedUpload{
		Key:       key,
		URL:       req.URL,
		ExpiresAt: time.Now().Add(ttl),
	}, nil
}

// SignedReadURL presigns a GET for an existing object.
// Presigning alone never fails for a missing key, so the object is checked first.
func (s *Store) SignedReadURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return "", fmt.Errorf("head %s: %w", key, err)
	}

	req, err := presignGetObject(s.presign, ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("presign get %s: %w", key, err)
	}
	return req.URL, nil
}

// List returns objects directly under prefix; deeper keys are grouped away by the delimiter
func (s *Store) List(ctx context.Context, prefix string) ([]services.ObjectEntry, error) {
	dir := strings.TrimSuffix(prefix, "/") + "/"

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket:    aws.String(s.bucket),
		Prefix:    aws.String(dir),
		Delimiter: aws.String("/"),
	})

	var entries []services.ObjectEntry
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", dir, err)
		}
		for _, obj := range page.Contents {
			name := strings.TrimPrefix(aws.ToString(obj.Key), dir)
			if name == "" {
				continue
			}
			entries = append(entries, services.ObjectEntry{
				Name:      name,
				Size:      aws.ToInt64(obj.Size),
				UpdatedAt: aws.ToTime(obj.LastModified),
			})
		}
	}
	return entries, nil
}

// Delete removes key
func (s *Store) Delete(ctx context.Context, key string) error {
	if s.capability != services.CapabilityElevated {
		return ErrCapability
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}

	s.logger.Debug("object deleted", "key", key)
	return nil
}

// Put writes body to key. Used by the seed tool; requires CapabilityElevated.
func (s *Store) Put(ctx context.Context, key, contentType string, body []byte) error {
	if s.capability != services.CapabilityElevated {
		return ErrCapability
	}

	in := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(body),
	}
	if contentType != "" {
		in.ContentType = aws.String(contentType)
	}
	if _, err := s.client.PutObject(ctx, in); err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}
