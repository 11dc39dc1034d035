// internal/adapters/out/gcs/descriptor_store_gcs.go
package gcs

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"

	"cloud.google.com/go/storage"
)

// DescriptorStoreGCS stores asset descriptors (JSON) in a public bucket.
// - object name == key
// - 返す URI は https://storage.googleapis.com/<bucket>/<key>
type DescriptorStoreGCS struct {
	Client *storage.Client
	Bucket string
}

const defaultDescriptorBucket = "solana_bridge_descriptors"

func NewDescriptorStoreGCS(client *storage.Client, bucket string) *DescriptorStoreGCS {
	b := strings.TrimSpace(bucket)
	if b == "" {
		b = defaultDescriptorBucket
	}
	return &DescriptorStoreGCS{Client: client, Bucket: b}
}

func (r *DescriptorStoreGCS) bucket() string {
	b := strings.TrimSpace(r.Bucket)
	if b == "" {
		return defaultDescriptorBucket
	}
	return b
}

// PutDescriptor uploads body and returns its public URL.
func (r *DescriptorStoreGCS) PutDescriptor(ctx context.Context, key string, body []byte) (string, error) {
	if r == nil || r.Client == nil {
		return "", errors.New("descriptor_store_gcs: nil storage client")
	}
	obj := strings.TrimLeft(strings.TrimSpace(key), "/")
	if obj == "" {
		return "", errors.New("descriptor_store_gcs: key is empty")
	}

	w := r.Client.Bucket(r.bucket()).Object(obj).NewWriter(ctx)
	w.ContentType = "application/json; charset=utf-8"
	w.CacheControl = "public, max-age=300"

	if _, err := w.Write(body); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("descriptor_store_gcs: write %s: %w", obj, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("descriptor_store_gcs: close %s: %w", obj, err)
	}

	u := PublicURL(r.bucket(), obj)
	log.Printf("[descriptor_store_gcs] uploaded bytes=%d url=%s", len(body), u)
	return u, nil
}

// PublicURL builds https://storage.googleapis.com/<bucket>/<object>,
// escaping each path segment of object.
func PublicURL(bucket, object string) string {
	segs := strings.Split(strings.TrimLeft(object, "/"), "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", strings.TrimSpace(bucket), strings.Join(segs, "/"))
}
