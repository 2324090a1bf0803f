package storage

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ObjectStorage handles image objects in an S3 bucket, keyed by
// hierarchical paths like projects/{projectId}/images/{filename}.
type ObjectStorage struct {
	client    *s3.Client
	presigner *s3.PresignClient

	bucketName    string
	publicBaseURL string
}

func NewObjectStorage(client *s3.Client, bucketName, publicBaseURL string) *ObjectStorage {
	if publicBaseURL == "" {
		publicBaseURL = fmt.Sprintf("https://%s.s3.amazonaws.com", bucketName)
	}

	return &ObjectStorage{
		client:        client,
		presigner:     s3.NewPresignClient(client),
		bucketName:    bucketName,
		publicBaseURL: publicBaseURL,
	}
}

// Upload stores an object and returns its public URL. onProgress, when
// non-nil, receives the fraction of bytes transferred in [0, 1].
func (s *ObjectStorage) Upload(ctx context.Context, key string, data []byte, contentType string, onProgress func(float64)) (string, error) {

	body := newProgressReader(data, onProgress)

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucketName),
		Key:           aws.String(key),
		Body:          body,
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload object %s: %w", key, err)
	}

	return s.PublicURL(key), nil
}

// DeleteObject removes a stored object by its key.
func (s *ObjectStorage) DeleteObject(ctx context.Context, key string) error {

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object %s: %w", key, err)
	}

	return nil
}

// PublicURL returns the retrievable URL for a stored object.
func (s *ObjectStorage) PublicURL(key string) string {
	return fmt.Sprintf("%s/%s", s.publicBaseURL, key)
}

// PresignGet returns a short-lived download URL for a stored object.
func (s *ObjectStorage) PresignGet(ctx context.Context, key string, expires time.Duration) (string, error) {

	out, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(expires))
	if err != nil {
		return "", fmt.Errorf("failed to presign object %s: %w", key, err)
	}

	return out.URL, nil
}

// progressReader reports the fraction of the payload consumed as the
// SDK reads it. Seeks during request signing may replay bytes; the
// reported fraction is clamped so callers only ever see [0, 1].
type progressReader struct {
	*bytes.Reader
	total    int64
	read     int64
	callback func(float64)
}

func newProgressReader(data []byte, callback func(float64)) *progressReader {
	return &progressReader{
		Reader:   bytes.NewReader(data),
		total:    int64(len(data)),
		callback: callback,
	}
}

func (r *progressReader) Read(p []byte) (int, error) {
	n, err := r.Reader.Read(p)
	if n > 0 && r.callback != nil && r.total > 0 {
		r.read += int64(n)
		fraction := float64(r.read) / float64(r.total)
		if fraction > 1 {
			fraction = 1
		}
		r.callback(fraction)
	}
	return n, err
}
