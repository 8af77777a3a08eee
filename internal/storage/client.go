package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/slmtnm/s3nav/internal/model"
)

// Messages used for Info banners.
const (
	NoBucketsMessage   = "No buckets found"
	EmptyBucketMessage = "Bucket is empty"
)

// Options tunes a Client.
type Options struct {
	// RequestsPerSecond paces remote calls. Zero disables pacing.
	RequestsPerSecond float64
	// Timeout bounds every remote call. Zero means no timeout.
	Timeout  time.Duration
	PageSize int
	Logger   *zap.Logger
	// Now stamps directory entries, which have no modification time of their own.
	Now func() time.Time
}

// Client is the storage collaborator the navigator consumes. Listing calls
// never return errors: failures become a single Error item and empty results
// a single Info item.
type Client struct {
	backend  Backend
	limiter  *rate.Limiter
	timeout  time.Duration
	pageSize int
	log      *zap.Logger
	now      func() time.Time
}

// NewClient wraps backend.
func NewClient(backend Backend, opts Options) *Client {
	c := &Client{
		backend:  backend,
		timeout:  opts.Timeout,
		pageSize: opts.PageSize,
		log:      opts.Logger,
		now:      opts.Now,
	}
	if opts.RequestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}
	if c.pageSize <= 0 || c.pageSize > DefaultPageSize {
		c.pageSize = DefaultPageSize
	}
	if c.log == nil {
		c.log = zap.NewNop()
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

// Backend returns the wrapped backend name.
func (c *Client) Backend() string {
	return c.backend.Name()
}

// AccessKeyID returns the resolved access key id, or "" when credentials
// cannot be resolved.
func (c *Client) AccessKeyID(ctx context.Context) string {
	var id string
	err := c.call(ctx, func(ctx context.Context) error {
		var err error
		id, err = c.backend.AccessKeyID(ctx)
		return err
	})
	if err != nil {
		c.log.Debug("Could not resolve access key id", zap.Error(err))
		return ""
	}
	return id
}

// call paces and bounds one remote call.
func (c *Client) call(ctx context.Context, fn func(context.Context) error) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	return fn(ctx)
}

// walk feeds every page of a listing to fn.
func (c *Client) walk(ctx context.Context, bucket, prefix, delimiter string, fn func(Page) error) error {
	token := ""
	for {
		var page Page
		err := c.call(ctx, func(ctx context.Context) error {
			var err error
			page, err = c.backend.ListPage(ctx, ListInput{
				Bucket:            bucket,
				Prefix:            prefix,
				Delimiter:         delimiter,
				ContinuationToken: token,
				MaxKeys:           c.pageSize,
			})
			return err
		})
		if err != nil {
			return err
		}
		if err := fn(page); err != nil {
			return err
		}
		if page.NextToken == "" {
			return nil
		}
		token = page.NextToken
	}
}

// ListContainers lists buckets as Container items with pending sizes.
func (c *Client) ListContainers(ctx context.Context) []model.Item {
	var buckets []Bucket
	err := c.call(ctx, func(ctx context.Context) error {
		var err error
		buckets, err = c.backend.ListBuckets(ctx)
		return err
	})
	if err != nil {
		c.log.Warn("Failed to list buckets", zap.Error(err))
		return []model.Item{model.NewError("Error listing buckets: " + Describe(err))}
	}
	if len(buckets) == 0 {
		return []model.Item{model.NewInfo(NoBucketsMessage)}
	}

	items := make([]model.Item, 0, len(buckets))
	for _, b := range buckets {
		items = append(items, model.NewContainer(b.Name, b.Created))
	}
	return items
}

// ListItems lists one level below prefix. Common prefixes become Directory
// items with pending sizes, and a ".." entry leads non-root listings.
func (c *Client) ListItems(ctx context.Context, bucket, prefix string) []model.Item {
	now := c.now()
	var items []model.Item
	if prefix != "" {
		items = append(items, model.NewParent(now))
	}
	// A directory shadows an object of the same name. Keys sort "foo" before
	// "foo/", so across pages the object can arrive first and is replaced.
	seen := make(map[string]int)

	err := c.walk(ctx, bucket, prefix, model.Separator, func(page Page) error {
		for _, cp := range page.CommonPrefixes {
			name := strings.TrimSuffix(strings.TrimPrefix(cp, prefix), model.Separator)
			if name == "" || strings.Contains(name, model.Separator) {
				continue
			}
			if i, ok := seen[name]; ok {
				if items[i].Kind == model.KindFile {
					c.log.Debug("Skipping object shadowed by directory",
						zap.String("bucket", bucket), zap.String("key", prefix+name))
					items[i] = model.NewDirectory(name, now)
				}
				continue
			}
			seen[name] = len(items)
			items = append(items, model.NewDirectory(name, now))
		}
		for _, obj := range page.Objects {
			if obj.Key == prefix || strings.HasSuffix(obj.Key, model.Separator) {
				continue
			}
			name := strings.TrimPrefix(obj.Key, prefix)
			if name == "" || strings.Contains(name, model.Separator) {
				continue
			}
			if _, ok := seen[name]; ok {
				c.log.Debug("Skipping object shadowed by directory",
					zap.String("bucket", bucket), zap.String("key", obj.Key))
				continue
			}
			seen[name] = len(items)
			items = append(items, model.NewFile(name, obj.Size, obj.LastModified))
		}
		return nil
	})
	if err != nil {
		c.log.Warn("Failed to list objects",
			zap.String("bucket", bucket), zap.String("prefix", prefix), zap.Error(err))
		return []model.Item{model.NewError("Error listing objects: " + Describe(err))}
	}
	if len(items) == 0 {
		return []model.Item{model.NewInfo(EmptyBucketMessage)}
	}
	return items
}

// ComputeRecursiveSize sums the size of every key under prefix. A prefix with
// no keys has size zero.
func (c *Client) ComputeRecursiveSize(ctx context.Context, bucket, prefix string) (int64, error) {
	var total int64
	err := c.walk(ctx, bucket, prefix, "", func(page Page) error {
		for _, obj := range page.Objects {
			total += obj.Size
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to compute size of %s/%s: %w", bucket, prefix, err)
	}
	return total, nil
}

// CollectForDeletion enumerates every key under prefix with their total size.
func (c *Client) CollectForDeletion(ctx context.Context, bucket, prefix string) ([]string, int64, error) {
	var (
		keys  []string
		total int64
	)
	err := c.walk(ctx, bucket, prefix, "", func(page Page) error {
		for _, obj := range page.Objects {
			keys = append(keys, obj.Key)
			total += obj.Size
		}
		return nil
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to enumerate %s/%s: %w", bucket, prefix, err)
	}
	return keys, total, nil
}

// GetObjectSize fetches the size of one object. The boolean is false when
// the object does not exist.
func (c *Client) GetObjectSize(ctx context.Context, bucket, key string) (int64, bool, error) {
	var obj Object
	err := c.call(ctx, func(ctx context.Context) error {
		var err error
		obj, err = c.backend.HeadObject(ctx, bucket, key)
		return err
	})
	if errors.Is(err, ErrNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return obj.Size, true, nil
}

// DeleteSingle deletes one object.
func (c *Client) DeleteSingle(ctx context.Context, bucket, key string) error {
	return c.call(ctx, func(ctx context.Context) error {
		return c.backend.DeleteObject(ctx, bucket, key)
	})
}

// DeleteBatch deletes keys in requests of at most MaxDeleteBatch keys. A
// failed request marks its keys as failed and the remaining requests still
// run; the returned error joins every request failure.
func (c *Client) DeleteBatch(ctx context.Context, bucket string, keys []string) (DeleteResult, error) {
	var (
		result DeleteResult
		errs   []error
	)
	for start := 0; start < len(keys); start += MaxDeleteBatch {
		end := min(start+MaxDeleteBatch, len(keys))
		chunk := keys[start:end]

		var res DeleteResult
		err := c.call(ctx, func(ctx context.Context) error {
			var err error
			res, err = c.backend.DeleteObjects(ctx, bucket, chunk)
			return err
		})
		if err != nil {
			c.log.Warn("Batch delete failed",
				zap.String("bucket", bucket), zap.Int("keys", len(chunk)), zap.Error(err))
			for _, k := range chunk {
				result.Failed = append(result.Failed, KeyError{Key: k, Err: err})
			}
			errs = append(errs, err)
			continue
		}
		result.merge(res)
	}
	return result, errors.Join(errs...)
}

// DeletePrefix deletes every key under prefix, streaming the listing and
// flushing a batch each time MaxDeleteBatch keys have accumulated.
func (c *Client) DeletePrefix(ctx context.Context, bucket, prefix string) (DeleteResult, error) {
	var (
		result DeleteResult
		errs   []error
		buf    = make([]string, 0, MaxDeleteBatch)
	)
	flush := func() {
		if len(buf) == 0 {
			return
		}
		res, err := c.DeleteBatch(ctx, bucket, buf)
		result.merge(res)
		if err != nil {
			errs = append(errs, err)
		}
		buf = make([]string, 0, MaxDeleteBatch)
	}

	err := c.walk(ctx, bucket, prefix, "", func(page Page) error {
		for _, obj := range page.Objects {
			buf = append(buf, obj.Key)
			if len(buf) == MaxDeleteBatch {
				flush()
			}
		}
		return nil
	})
	flush()
	if err != nil {
		errs = append(errs, fmt.Errorf("failed to enumerate %s/%s: %w", bucket, prefix, err))
	}
	return result, errors.Join(errs...)
}
