package storage

import (
	"bytes"
	"context"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/pkg/errors"
)

const PathAvatars = "avatars/"

type S3Client interface {
	// UploadFile stores data under key and returns the key.
	UploadFile(ctx context.Context, data []byte, key string) (string, error)

	// DeleteFile removes the object. Missing objects are not an error.
	DeleteFile(ctx context.Context, key string) error

	// URL returns the public address of the object stored under key.
	URL(key string) string
}

type storageClient struct {
	bucket  string
	baseURL string
	client  *s3.Client
}

// NewStorageClient creates an S3 client for bucket. When baseURL is empty,
// object URLs point at the bucket's virtual-hosted endpoint.
func NewStorageClient(ctx context.Context, region, bucket, baseURL string) (S3Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, errors.Wrap(err, "loading aws config for s3")
	}

	if baseURL == "" {
		baseURL = "https://" + bucket + ".s3." + region + ".amazonaws.com"
	}

	return &storageClient{
		bucket:  bucket,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  s3.NewFromConfig(cfg),
	}, nil
}

func (s *storageClient) UploadFile(ctx context.Context, data []byte, key string) (string, error) {
	if key == "" {
		return "", errors.New("key is empty")
	}

	mimeType := mime.TypeByExtension(filepath.Ext(key))
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(mimeType),
	})
	if err != nil {
		return "", errors.Wrapf(err, "uploading %s", key)
	}
	return key, nil
}

func (s *storageClient) DeleteFile(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})

	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return nil
	}
	return errors.Wrapf(err, "deleting %s", key)
}

func (s *storageClient) URL(key string) string {
	return s.baseURL + "/" + key
}
