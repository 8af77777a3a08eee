package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// S3Config holds what the AWS backend needs to build its client.
type S3Config struct {
	Profile         string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
}

// S3API is the subset of *s3.Client the backend calls.
type S3API interface {
	ListBuckets(ctx context.Context, in *s3.ListBucketsInput, optFns ...func(*s3.Options)) (*s3.ListBucketsOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	DeleteObjects(ctx context.Context, in *s3.DeleteObjectsInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error)
}

// S3Backend talks to AWS S3 or an S3-compatible endpoint through AWS SDK v2.
type S3Backend struct {
	api   S3API
	creds aws.CredentialsProvider
}

var _ Backend = (*S3Backend)(nil)

// NewS3Backend builds the SDK configuration from cfg. The profile and region
// are passed through; credential resolution is left to the SDK chain unless
// static keys are given.
func NewS3Backend(ctx context.Context, cfg S3Config) (*S3Backend, error) {
	var opts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}
	if cfg.Profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(cfg.Profile))
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	return &S3Backend{api: client, creds: awsCfg.Credentials}, nil
}

// NewS3BackendWithAPI wraps an existing client.
func NewS3BackendWithAPI(api S3API, creds aws.CredentialsProvider) *S3Backend {
	return &S3Backend{api: api, creds: creds}
}

// Name identifies the backend in logs.
func (b *S3Backend) Name() string {
	return "s3"
}

// AccessKeyID resolves credentials through the SDK chain.
func (b *S3Backend) AccessKeyID(ctx context.Context) (string, error) {
	if b.creds == nil {
		return "", ErrNoCredentials
	}
	creds, err := b.creds.Retrieve(ctx)
	if err != nil {
		return "", b.wrapError("Credentials", "", "", err)
	}
	return creds.AccessKeyID, nil
}

// ListBuckets lists every bucket visible to the credentials.
func (b *S3Backend) ListBuckets(ctx context.Context) ([]Bucket, error) {
	var (
		buckets []Bucket
		token   *string
	)
	for {
		out, err := b.api.ListBuckets(ctx, &s3.ListBucketsInput{ContinuationToken: token})
		if err != nil {
			return nil, b.wrapError("ListBuckets", "", "", err)
		}
		for _, bk := range out.Buckets {
			buckets = append(buckets, Bucket{
				Name:    aws.ToString(bk.Name),
				Created: aws.ToTime(bk.CreationDate),
			})
		}
		if aws.ToString(out.ContinuationToken) == "" {
			return buckets, nil
		}
		token = out.ContinuationToken
	}
}

// ListPage returns one ListObjectsV2 page.
func (b *S3Backend) ListPage(ctx context.Context, in ListInput) (Page, error) {
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(in.Bucket),
	}
	if in.Prefix != "" {
		input.Prefix = aws.String(in.Prefix)
	}
	if in.Delimiter != "" {
		input.Delimiter = aws.String(in.Delimiter)
	}
	if in.ContinuationToken != "" {
		input.ContinuationToken = aws.String(in.ContinuationToken)
	}
	if in.MaxKeys > 0 {
		input.MaxKeys = aws.Int32(int32(in.MaxKeys))
	}

	out, err := b.api.ListObjectsV2(ctx, input)
	if err != nil {
		return Page{}, b.wrapError("List", in.Bucket, in.Prefix, err)
	}

	page := Page{
		Objects:        make([]Object, 0, len(out.Contents)),
		CommonPrefixes: make([]string, 0, len(out.CommonPrefixes)),
	}
	for _, cp := range out.CommonPrefixes {
		page.CommonPrefixes = append(page.CommonPrefixes, aws.ToString(cp.Prefix))
	}
	for _, obj := range out.Contents {
		page.Objects = append(page.Objects, Object{
			Key:          aws.ToString(obj.Key),
			Size:         aws.ToInt64(obj.Size),
			LastModified: aws.ToTime(obj.LastModified),
		})
	}
	if aws.ToBool(out.IsTruncated) {
		page.NextToken = aws.ToString(out.NextContinuationToken)
	}
	return page, nil
}

// HeadObject fetches metadata without the body.
func (b *S3Backend) HeadObject(ctx context.Context, bucket, key string) (Object, error) {
	out, err := b.api.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return Object{}, b.wrapError("Head", bucket, key, err)
	}
	return Object{
		Key:          key,
		Size:         aws.ToInt64(out.ContentLength),
		LastModified: aws.ToTime(out.LastModified),
	}, nil
}

// DeleteObject deletes one object.
func (b *S3Backend) DeleteObject(ctx context.Context, bucket, key string) error {
	_, err := b.api.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return b.wrapError("DeleteObject", bucket, key, err)
	}
	return nil
}

// DeleteObjects issues one quiet multi-object delete.
func (b *S3Backend) DeleteObjects(ctx context.Context, bucket string, keys []string) (DeleteResult, error) {
	if len(keys) == 0 {
		return DeleteResult{}, nil
	}
	if len(keys) > MaxDeleteBatch {
		return DeleteResult{}, fmt.Errorf("delete batch of %d keys exceeds limit of %d", len(keys), MaxDeleteBatch)
	}

	ids := make([]types.ObjectIdentifier, 0, len(keys))
	for _, k := range keys {
		ids = append(ids, types.ObjectIdentifier{Key: aws.String(k)})
	}

	out, err := b.api.DeleteObjects(ctx, &s3.DeleteObjectsInput{
		Bucket: aws.String(bucket),
		Delete: &types.Delete{Objects: ids, Quiet: aws.Bool(true)},
	})
	if err != nil {
		return DeleteResult{}, b.wrapError("DeleteObjects", bucket, "", err)
	}

	result := DeleteResult{Deleted: len(keys) - len(out.Errors)}
	for _, e := range out.Errors {
		result.Failed = append(result.Failed, KeyError{
			Key: aws.ToString(e.Key),
			Err: fmt.Errorf("%s: %s", aws.ToString(e.Code), aws.ToString(e.Message)),
		})
	}
	return result, nil
}

// wrapError classifies SDK errors into the sentinel kinds.
func (b *S3Backend) wrapError(op, bucket, key string, err error) error {
	return &Error{
		Op:      op,
		Backend: b.Name(),
		Bucket:  bucket,
		Key:     key,
		Kind:    classifyS3Error(err),
		Err:     err,
	}
}

func classifyS3Error(err error) error {
	var notFound *types.NotFound
	var noSuchKey *types.NoSuchKey
	var noSuchBucket *types.NoSuchBucket

	switch {
	case errors.As(err, &noSuchBucket):
		return ErrBucketNotFound
	case errors.As(err, &notFound), errors.As(err, &noSuchKey):
		return ErrNotFound
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return ErrNotFound
		case "NoSuchBucket":
			return ErrBucketNotFound
		case "AccessDenied", "Forbidden", "AllAccessDisabled":
			return ErrAccessDenied
		case "InvalidAccessKeyId", "SignatureDoesNotMatch", "ExpiredToken", "InvalidToken":
			return ErrInvalidCredentials
		case "SlowDown", "Throttling", "RequestLimitExceeded":
			return ErrThrottled
		case "ServiceUnavailable", "InternalError":
			return ErrUnavailable
		}
		return nil
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "failed to refresh cached credentials"),
		strings.Contains(msg, "failed to retrieve credentials"),
		strings.Contains(msg, "no EC2 IMDS role found"):
		return ErrNoCredentials
	case strings.Contains(msg, "NoSuchBucket"):
		return ErrBucketNotFound
	case strings.Contains(msg, "AccessDenied"), strings.Contains(msg, "403"):
		return ErrAccessDenied
	case strings.Contains(msg, "503"):
		return ErrUnavailable
	}
	return nil
}
