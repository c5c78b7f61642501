package aws

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// S3API is the subset of the S3 client the document store uses.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// DocumentStore puts supporting documents in a bucket and hands back the
// public URL they are served from.
type DocumentStore struct {
	client  S3API
	bucket  string
	baseURL string
	newID   func() string
}

func NewDocumentStore(cfg aws.Config, bucket, baseURL string) *DocumentStore {
	return &DocumentStore{
		client:  s3.NewFromConfig(cfg),
		bucket:  bucket,
		baseURL: strings.TrimRight(baseURL, "/"),
		newID:   uuid.NewString,
	}
}

// Put stores body under applications/<uuid><ext> and returns its URL.
func (s *DocumentStore) Put(ctx context.Context, filename, contentType string, body io.Reader) (string, error) {
	key := "applications/" + s.newID() + strings.ToLower(path.Ext(filename))

	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   body,
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("s3 put %s: %w", key, err)
	}
	return s.baseURL + "/" + key, nil
}
