package imagegen

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/storage"
)

// GCSArchive copies inline image payloads into a bucket so results carry a stable URL.
type GCSArchive struct {
	client *storage.Client
	bucket string
	prefix string
}

func NewGCSArchive(client *storage.Client, bucket, prefix string) *GCSArchive {
	return &GCSArchive{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/")}
}

func NewGCSArchiveFromEnv(ctx context.Context, bucket, prefix string) (*GCSArchive, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return NewGCSArchive(client, bucket, prefix), nil
}

func (a *GCSArchive) Store(ctx context.Context, name, contentType string, data []byte) (string, error) {
	object := a.objectName(name)
	w := a.client.Bucket(a.bucket).Object(object).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := w.Write(data); err != nil {
		w.Close()
		return "", fmt.Errorf("write gs://%s/%s: %w", a.bucket, object, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("close gs://%s/%s: %w", a.bucket, object, err)
	}
	return PublicURL(a.bucket, object), nil
}

func (a *GCSArchive) objectName(name string) string {
	if a.prefix == "" {
		return name
	}
	return a.prefix + "/" + name
}

func (a *GCSArchive) Close() error {
	return a.client.Close()
}

func PublicURL(bucket, object string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", bucket, object)
}
