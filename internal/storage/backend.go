// Package storage adapts remote object stores to the flat records the
// navigator works with. A Backend speaks one SDK; Client layers pagination,
// batching, pacing and error-to-item conversion on top of any Backend.
package storage

import (
	"context"
	"time"
)

const (
	// MaxDeleteBatch is the per-request object ceiling of multi-object delete.
	MaxDeleteBatch = 1000
	// DefaultPageSize is the MaxKeys sent with every list request.
	DefaultPageSize = 1000
)

// Bucket is a top-level container.
type Bucket struct {
	Name    string
	Created time.Time
}

// Object is a single stored key.
type Object struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// ListInput selects one page of a listing. An empty Delimiter lists every key
// under Prefix recursively.
type ListInput struct {
	Bucket            string
	Prefix            string
	Delimiter         string
	ContinuationToken string
	MaxKeys           int
}

// Page is one listing response. An empty NextToken means the listing is
// exhausted.
type Page struct {
	Objects        []Object
	CommonPrefixes []string
	NextToken      string
}

// KeyError is a key that could not be deleted.
type KeyError struct {
	Key string
	Err error
}

// DeleteResult summarizes a delete request.
type DeleteResult struct {
	Deleted int
	Failed  []KeyError
}

func (r *DeleteResult) merge(other DeleteResult) {
	r.Deleted += other.Deleted
	r.Failed = append(r.Failed, other.Failed...)
}

// Backend is the minimal set of remote calls the Client needs.
type Backend interface {
	// Name identifies the backend in errors and logs.
	Name() string
	ListBuckets(ctx context.Context) ([]Bucket, error)
	ListPage(ctx context.Context, in ListInput) (Page, error)
	HeadObject(ctx context.Context, bucket, key string) (Object, error)
	DeleteObject(ctx context.Context, bucket, key string) error
	// DeleteObjects removes at most MaxDeleteBatch keys in one request.
	// Per-key failures are reported in the result, not as an error.
	DeleteObjects(ctx context.Context, bucket string, keys []string) (DeleteResult, error)
	// AccessKeyID returns the key id of the resolved credentials.
	AccessKeyID(ctx context.Context) (string, error)
}
