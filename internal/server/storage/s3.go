// Package storage hands out presigned S3 URLs for media uploads. Browsers
// upload directly to the bucket; the server never proxies file bytes.
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/lakelandsports/cms/internal/server/config"
)

// presignValidity bounds how long a handed-out URL stays usable.
const presignValidity = 15 * time.Minute

// Hooks below are swappable in tests, mirroring how the rest of the AWS
// plumbing is stubbed without a live endpoint.
var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// MediaStore presigns upload and download URLs against the configured
// bucket.
type MediaStore struct {
	config *config.Config
}

func NewMediaStore(cfg *config.Config) *MediaStore {
	return &MediaStore{config: cfg}
}

// RandomObjectKey partitions uploads by date so bucket listings stay
// manageable.
func RandomObjectKey() string {
	d := time.Now()
	return fmt.Sprintf("media/%d/%02d/%02d/%v", d.Year(), d.Month(), d.Day(), uuid.New())
}

func (m *MediaStore) presignClient(ctx context.Context) (*s3.PresignClient, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		awsconfig.WithRegion(m.config.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			m.config.S3RootUser,
			m.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(m.config.S3BaseEndpoint)
	})

	return newS3PresignClient(client), nil
}

// PresignedPutURL returns a fresh object key and a URL the browser can PUT
// the file to.
func (m *MediaStore) PresignedPutURL(ctx context.Context) (key, url string, err error) {
	pc, err := m.presignClient(ctx)
	if err != nil {
		return "", "", err
	}

	bucket := m.config.S3Bucket
	key = RandomObjectKey()

	req, err := presignPutObject(pc, ctx, &s3.PutObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(presignValidity))
	if err != nil {
		return "", "", err
	}

	return key, req.URL, nil
}

// PresignedGetURL returns a time-limited download URL for key.
func (m *MediaStore) PresignedGetURL(ctx context.Context, key string) (string, error) {
	pc, err := m.presignClient(ctx)
	if err != nil {
		return "", err
	}

	bucket := m.config.S3Bucket

	req, err := presignGetObject(pc, ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(presignValidity))
	if err != nil {
		return "", err
	}

	return req.URL, nil
}
