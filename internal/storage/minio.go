package storage

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioConfig holds connection settings for an S3-compatible server.
type MinioConfig struct {
	// Endpoint is host:port without a scheme.
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Region    string
}

// MinioBackend talks to S3-compatible servers through minio-go.
type MinioBackend struct {
	client *miniogo.Client
	creds  *credentials.Credentials
}

var _ Backend = (*MinioBackend)(nil)

// NewMinioBackend creates a minio-go client. No request is made until the
// first call.
func NewMinioBackend(cfg MinioConfig) (*MinioBackend, error) {
	endpoint := strings.TrimPrefix(strings.TrimPrefix(cfg.Endpoint, "https://"), "http://")
	creds := credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, "")
	client, err := miniogo.New(endpoint, &miniogo.Options{
		Creds:  creds,
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}
	return &MinioBackend{client: client, creds: creds}, nil
}

// Name identifies the backend in logs.
func (b *MinioBackend) Name() string {
	return "minio"
}

// AccessKeyID returns the configured static key id.
func (b *MinioBackend) AccessKeyID(_ context.Context) (string, error) {
	v, err := b.creds.Get()
	if err != nil {
		return "", b.wrapError("Credentials", "", "", err)
	}
	if v.AccessKeyID == "" {
		return "", ErrNoCredentials
	}
	return v.AccessKeyID, nil
}

// ListBuckets lists every bucket visible to the credentials.
func (b *MinioBackend) ListBuckets(ctx context.Context) ([]Bucket, error) {
	raw, err := b.client.ListBuckets(ctx)
	if err != nil {
		return nil, b.wrapError("ListBuckets", "", "", err)
	}
	buckets := make([]Bucket, len(raw))
	for i, bk := range raw {
		buckets[i] = Bucket{Name: bk.Name, Created: bk.CreationDate}
	}
	return buckets, nil
}

// ListPage reads one page from minio-go's listing channel. The continuation
// token is the last key or prefix returned, resumed with StartAfter.
func (b *MinioBackend) ListPage(ctx context.Context, in ListInput) (Page, error) {
	maxKeys := in.MaxKeys
	if maxKeys <= 0 {
		maxKeys = DefaultPageSize
	}

	// Cancelling stops the listing goroutine once the page is full.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	opts := miniogo.ListObjectsOptions{
		Prefix:     in.Prefix,
		Recursive:  in.Delimiter == "",
		StartAfter: in.ContinuationToken,
		MaxKeys:    maxKeys,
	}

	var (
		page  Page
		count int
		last  string
	)
	for obj := range b.client.ListObjects(ctx, in.Bucket, opts) {
		if obj.Err != nil {
			return Page{}, b.wrapError("List", in.Bucket, in.Prefix, obj.Err)
		}
		if count == maxKeys {
			page.NextToken = last
			break
		}
		count++
		last = obj.Key
		if !opts.Recursive && strings.HasSuffix(obj.Key, in.Delimiter) && obj.Size == 0 && obj.ETag == "" {
			page.CommonPrefixes = append(page.CommonPrefixes, obj.Key)
			continue
		}
		page.Objects = append(page.Objects, Object{
			Key:          obj.Key,
			Size:         obj.Size,
			LastModified: obj.LastModified,
		})
	}
	return page, nil
}

// HeadObject stats one object.
func (b *MinioBackend) HeadObject(ctx context.Context, bucket, key string) (Object, error) {
	stat, err := b.client.StatObject(ctx, bucket, key, miniogo.StatObjectOptions{})
	if err != nil {
		return Object{}, b.wrapError("Head", bucket, key, err)
	}
	return Object{Key: stat.Key, Size: stat.Size, LastModified: stat.LastModified}, nil
}

// DeleteObject removes one object.
func (b *MinioBackend) DeleteObject(ctx context.Context, bucket, key string) error {
	if err := b.client.RemoveObject(ctx, bucket, key, miniogo.RemoveObjectOptions{}); err != nil {
		return b.wrapError("DeleteObject", bucket, key, err)
	}
	return nil
}

// DeleteObjects removes keys through minio-go's multi-object delete.
func (b *MinioBackend) DeleteObjects(ctx context.Context, bucket string, keys []string) (DeleteResult, error) {
	if len(keys) > MaxDeleteBatch {
		return DeleteResult{}, fmt.Errorf("delete batch of %d keys exceeds limit of %d", len(keys), MaxDeleteBatch)
	}

	objects := make(chan miniogo.ObjectInfo, len(keys))
	for _, k := range keys {
		objects <- miniogo.ObjectInfo{Key: k}
	}
	close(objects)

	result := DeleteResult{Deleted: len(keys)}
	for rerr := range b.client.RemoveObjects(ctx, bucket, objects, miniogo.RemoveObjectsOptions{}) {
		result.Deleted--
		result.Failed = append(result.Failed, KeyError{
			Key: rerr.ObjectName,
			Err: b.wrapError("DeleteObjects", bucket, rerr.ObjectName, rerr.Err),
		})
	}
	return result, nil
}

func (b *MinioBackend) wrapError(op, bucket, key string, err error) error {
	return &Error{
		Op:      op,
		Backend: b.Name(),
		Bucket:  bucket,
		Key:     key,
		Kind:    classifyMinioError(err),
		Err:     err,
	}
}

func classifyMinioError(err error) error {
	var resp miniogo.ErrorResponse
	if !errors.As(err, &resp) {
		return nil
	}

	switch resp.Code {
	case "NoSuchBucket":
		return ErrBucketNotFound
	case "NoSuchKey":
		return ErrNotFound
	case "AccessDenied":
		return ErrAccessDenied
	case "InvalidAccessKeyId", "SignatureDoesNotMatch":
		return ErrInvalidCredentials
	case "SlowDown":
		return ErrThrottled
	}

	switch resp.StatusCode {
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusForbidden, http.StatusUnauthorized:
		return ErrAccessDenied
	case http.StatusServiceUnavailable:
		return ErrUnavailable
	}
	return nil
}
