// Package storage persists generated media (artwork, vinyl disks, audio)
// and hands back publicly reachable URLs.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go/aws"         //nolint:staticcheck // TODO: Migrate to aws-sdk-go-v2
	"github.com/aws/aws-sdk-go/aws/session" //nolint:staticcheck
	"github.com/aws/aws-sdk-go/service/s3"  //nolint:staticcheck
)

// Storage uploads media objects and returns their public URLs
type Storage interface {
	Upload(ctx context.Context, key string, contentType string, data []byte) (string, error)
}

// S3Storage stores objects in an S3 bucket
type S3Storage struct {
	client    *s3.S3
	bucket    string
	publicURL string
}

// NewS3Storage builds the bucket-backed store. An empty endpoint uses the
// default AWS endpoint; a non-empty one targets S3-compatible services.
func NewS3Storage(bucket, region, endpoint string) *S3Storage {
	awsCfg := &aws.Config{
		Region: aws.String(region),
	}
	if endpoint != "" {
		awsCfg.Endpoint = aws.String(endpoint)
		awsCfg.S3ForcePathStyle = aws.Bool(true)
	}
	sess := session.Must(session.NewSession(awsCfg))

	publicURL := fmt.Sprintf("https://%s.s3.%s.amazonaws.com", bucket, region)
	if endpoint != "" {
		publicURL = fmt.Sprintf("%s/%s", strings.TrimSuffix(endpoint, "/"), bucket)
	}

	return &S3Storage{
		client:    s3.New(sess),
		bucket:    bucket,
		publicURL: publicURL,
	}
}

// Upload writes the object and returns its public URL
func (s *S3Storage) Upload(ctx context.Context, key string, contentType string, data []byte) (string, error) {
	_, err := s.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return fmt.Sprintf("%s/%s", s.publicURL, key), nil
}
