// Package storage turns stored object paths into time-limited display URLs.
package storage

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type Signer interface {
	Sign(ctx context.Context, path string) (string, error)
}

type MinioOptions struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	TTL       time.Duration
}

type MinioSigner struct {
	client *minio.Client
	bucket string
	ttl    time.Duration
}

func NewMinioSigner(opts MinioOptions) (*MinioSigner, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	return &MinioSigner{client: client, bucket: opts.Bucket, ttl: opts.TTL}, nil
}

func (s *MinioSigner) Sign(ctx context.Context, path string) (string, error) {
	key := NormalizeKey(path, s.bucket)
	if key == "" {
		return "", fmt.Errorf("empty object key")
	}
	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, s.ttl, url.Values{})
	if err != nil {
		return "", fmt.Errorf("presign %s/%s: %w", s.bucket, key, err)
	}
	return u.String(), nil
}

var objectURLPrefix = regexp.MustCompile(`(?i)^https?://[^/]+/storage/v1/object/(?:public|sign)/[^/]+/`)

// NormalizeKey reduces a stored path or a previously issued public/signed URL
// to the object key inside bucket.
func NormalizeKey(input, bucket string) string {
	key := strings.TrimSpace(input)
	if loc := objectURLPrefix.FindStringIndex(key); loc != nil {
		key = key[loc[1]:]
		// signed URLs carry the token as a query string
		if i := strings.IndexByte(key, '?'); i >= 0 {
			key = key[:i]
		}
	}
	key = strings.TrimLeft(key, "/")
	key = strings.TrimPrefix(key, bucket+"/")
	return key
}
