// Package storagetest provides an in-memory storage.Backend with pagination,
// call recording and failure injection.
package storagetest

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/slmtnm/s3nav/internal/storage"
)

// Call records one backend request.
type Call struct {
	Op     string
	Bucket string
	Prefix string
	Keys   []string
}

// Memory is a storage.Backend over maps. It is safe for concurrent use.
type Memory struct {
	mu sync.Mutex

	// PageSize caps every listing page below the requested MaxKeys.
	PageSize int
	// KeyID is returned by AccessKeyID.
	KeyID string

	buckets map[string]*memBucket
	calls   []Call

	listBucketsErr error
	listErr        map[string]error
	headErr        map[string]error
	deleteErr      map[string]error
}

type memBucket struct {
	created time.Time
	objects map[string]storage.Object
}

var _ storage.Backend = (*Memory)(nil)

// NewMemory returns an empty store.
func NewMemory() *Memory {
	return &Memory{
		KeyID:     "AKIAMEMORYTEST000001",
		buckets:   make(map[string]*memBucket),
		listErr:   make(map[string]error),
		headErr:   make(map[string]error),
		deleteErr: make(map[string]error),
	}
}

// AddBucket creates an empty bucket.
func (m *Memory) AddBucket(name string, created time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.buckets[name]; !ok {
		m.buckets[name] = &memBucket{created: created, objects: make(map[string]storage.Object)}
	}
}

// Put stores an object, creating the bucket if needed.
func (m *Memory) Put(bucket, key string, size int64, modified time.Time) {
	m.AddBucket(bucket, modified)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.buckets[bucket].objects[key] = storage.Object{Key: key, Size: size, LastModified: modified}
}

// Keys returns the keys of bucket in lexical order.
func (m *Memory) Keys(bucket string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.buckets[bucket]
	if !ok {
		return nil
	}
	return sortedKeys(b.objects)
}

// FailListBuckets makes ListBuckets return err.
func (m *Memory) FailListBuckets(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listBucketsErr = err
}

// FailList makes listings of bucket under prefix return err.
func (m *Memory) FailList(bucket, prefix string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listErr[bucket+"/"+prefix] = err
}

// FailHead makes HeadObject of bucket/key return err.
func (m *Memory) FailHead(bucket, key string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.headErr[bucket+"/"+key] = err
}

// FailDelete makes every delete of bucket/key fail with err.
func (m *Memory) FailDelete(bucket, key string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteErr[bucket+"/"+key] = err
}

// Calls returns the recorded requests, optionally filtered by operation.
func (m *Memory) Calls(ops ...string) []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Call
	for _, c := range m.calls {
		if len(ops) == 0 || contains(ops, c.Op) {
			out = append(out, c)
		}
	}
	return out
}

// ResetCalls forgets recorded requests.
func (m *Memory) ResetCalls() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}

// Name identifies the backend in logs.
func (m *Memory) Name() string {
	return "memory"
}

// AccessKeyID returns KeyID, or ErrNoCredentials when it is unset.
func (m *Memory) AccessKeyID(context.Context) (string, error) {
	if m.KeyID == "" {
		return "", storage.ErrNoCredentials
	}
	return m.KeyID, nil
}

// ListBuckets returns the buckets in name order.
func (m *Memory) ListBuckets(ctx context.Context) ([]storage.Bucket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, Call{Op: "ListBuckets"})
	if m.listBucketsErr != nil {
		return nil, m.listBucketsErr
	}

	names := make([]string, 0, len(m.buckets))
	for name := range m.buckets {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]storage.Bucket, 0, len(names))
	for _, name := range names {
		out = append(out, storage.Bucket{Name: name, Created: m.buckets[name].created})
	}
	return out, nil
}

type entry struct {
	name   string
	prefix bool
	obj    storage.Object
}

// ListPage returns one page of keys, honoring PageSize and the delimiter.
func (m *Memory) ListPage(ctx context.Context, in storage.ListInput) (storage.Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, Call{Op: "List", Bucket: in.Bucket, Prefix: in.Prefix})

	if err := m.listErr[in.Bucket+"/"+in.Prefix]; err != nil {
		return storage.Page{}, err
	}
	b, ok := m.buckets[in.Bucket]
	if !ok {
		return storage.Page{}, &storage.Error{Op: "List", Backend: "memory", Bucket: in.Bucket, Kind: storage.ErrBucketNotFound}
	}

	var entries []entry
	for _, key := range sortedKeys(b.objects) {
		if !strings.HasPrefix(key, in.Prefix) {
			continue
		}
		rest := key[len(in.Prefix):]
		if in.Delimiter != "" {
			if idx := strings.Index(rest, in.Delimiter); idx >= 0 {
				cp := in.Prefix + rest[:idx+len(in.Delimiter)]
				if len(entries) == 0 || entries[len(entries)-1].name != cp {
					entries = append(entries, entry{name: cp, prefix: true})
				}
				continue
			}
		}
		entries = append(entries, entry{name: key, obj: b.objects[key]})
	}

	start := 0
	if in.ContinuationToken != "" {
		start = sort.Search(len(entries), func(i int) bool { return entries[i].name > in.ContinuationToken })
	}

	limit := in.MaxKeys
	if limit <= 0 {
		limit = storage.DefaultPageSize
	}
	if m.PageSize > 0 && m.PageSize < limit {
		limit = m.PageSize
	}
	end := min(start+limit, len(entries))

	var page storage.Page
	for _, e := range entries[start:end] {
		if e.prefix {
			page.CommonPrefixes = append(page.CommonPrefixes, e.name)
		} else {
			page.Objects = append(page.Objects, e.obj)
		}
	}
	if end < len(entries) {
		page.NextToken = entries[end-1].name
	}
	return page, nil
}

// HeadObject returns the metadata of one key.
func (m *Memory) HeadObject(ctx context.Context, bucket, key string) (storage.Object, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, Call{Op: "Head", Bucket: bucket, Keys: []string{key}})

	if err := m.headErr[bucket+"/"+key]; err != nil {
		return storage.Object{}, err
	}
	b, ok := m.buckets[bucket]
	if !ok {
		return storage.Object{}, &storage.Error{Op: "Head", Backend: "memory", Bucket: bucket, Kind: storage.ErrBucketNotFound}
	}
	obj, ok := b.objects[key]
	if !ok {
		return storage.Object{}, &storage.Error{Op: "Head", Backend: "memory", Bucket: bucket, Key: key, Kind: storage.ErrNotFound}
	}
	return obj, nil
}

// DeleteObject removes one key. Missing keys are not an error.
func (m *Memory) DeleteObject(ctx context.Context, bucket, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, Call{Op: "DeleteObject", Bucket: bucket, Keys: []string{key}})

	if err := m.deleteErr[bucket+"/"+key]; err != nil {
		return err
	}
	if b, ok := m.buckets[bucket]; ok {
		delete(b.objects, key)
	}
	return nil
}

// DeleteObjects removes keys, reporting injected failures per key.
func (m *Memory) DeleteObjects(ctx context.Context, bucket string, keys []string) (storage.DeleteResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, Call{Op: "DeleteObjects", Bucket: bucket, Keys: append([]string(nil), keys...)})

	if len(keys) > storage.MaxDeleteBatch {
		return storage.DeleteResult{}, fmt.Errorf("MalformedXML: %d keys exceeds %d", len(keys), storage.MaxDeleteBatch)
	}

	var result storage.DeleteResult
	b := m.buckets[bucket]
	for _, k := range keys {
		if err := m.deleteErr[bucket+"/"+k]; err != nil {
			result.Failed = append(result.Failed, storage.KeyError{Key: k, Err: err})
			continue
		}
		if b != nil {
			delete(b.objects, k)
		}
		result.Deleted++
	}
	return result, nil
}

func sortedKeys(objects map[string]storage.Object) []string {
	keys := make([]string, 0, len(objects))
	for k := range objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
