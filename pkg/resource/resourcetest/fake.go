// File: pkg/resource/resourcetest/fake.go

// Package resourcetest provides an in-memory resource.Provider for tests.
package resourcetest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"lakehouse/pkg/common"
	"lakehouse/pkg/resource"
)

// FakeProvider keeps buckets and datasets in memory. Errors can be injected
// per operation and resource, e.g. Fail("CreateBucket", "landing", err).
type FakeProvider struct {
	mu       sync.Mutex
	project  string
	buckets  map[string]resource.Bucket
	objects  map[string]int
	datasets map[string]resource.Dataset
	tables   map[string]int
	usage    map[string]int64
	failures map[string]error
	calls    []string
	closed   bool
	now      func() time.Time
}

var _ resource.Provider = (*FakeProvider)(nil)

func NewFakeProvider(project string) *FakeProvider {
	return &FakeProvider{
		project:  project,
		buckets:  make(map[string]resource.Bucket),
		objects:  make(map[string]int),
		datasets: make(map[string]resource.Dataset),
		tables:   make(map[string]int),
		usage:    make(map[string]int64),
		failures: make(map[string]error),
		now:      func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) },
	}
}

func key(op, name string) string {
	return op + ":" + name
}

func datasetKey(project, id string) string {
	return project + ":" + id
}

// Fail makes the next and every following call of op on name return err
func (f *FakeProvider) Fail(op, name string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[key(op, name)] = err
}

// PutBucket seeds a bucket as if it already existed remotely
func (f *FakeProvider) PutBucket(b resource.Bucket) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.buckets[b.Name] = b
}

// PutObjects sets how many objects a bucket holds
func (f *FakeProvider) PutObjects(bucket string, n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[bucket] = n
}

func (f *FakeProvider) SetUsage(bucket string, bytes int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.usage[bucket] = bytes
}

// PutDataset seeds a dataset as if it already existed remotely
func (f *FakeProvider) PutDataset(ds resource.Dataset) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ds.Project == "" {
		ds.Project = f.project
	}
	f.datasets[datasetKey(ds.Project, ds.ID)] = ds
}

func (f *FakeProvider) PutTables(project, dataset string, n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tables[datasetKey(project, dataset)] = n
}

func (f *FakeProvider) HasBucket(name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.buckets[name]
	return ok
}

func (f *FakeProvider) Bucket(name string) (resource.Bucket, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.buckets[name]
	return b, ok
}

func (f *FakeProvider) HasDataset(project, id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.datasets[datasetKey(project, id)]
	return ok
}

// Calls returns the mutating calls in sorted order, e.g. "CreateBucket:landing"
func (f *FakeProvider) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := append([]string(nil), f.calls...)
	sort.Strings(out)
	return out
}

func (f *FakeProvider) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *FakeProvider) record(op, name string) error {
	if op != "GetBucket" && op != "GetDataset" && op != "BucketUsage" {
		f.calls = append(f.calls, key(op, name))
	}
	return f.failures[key(op, name)]
}

func (f *FakeProvider) ProviderName() common.Provider {
	return common.Google
}

func (f *FakeProvider) Project() string {
	return f.project
}

func (f *FakeProvider) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *FakeProvider) GetBucket(ctx context.Context, name string) (resource.Bucket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("GetBucket", name); err != nil {
		return resource.Bucket{}, err
	}
	b, ok := f.buckets[name]
	if !ok {
		return resource.Bucket{}, fmt.Errorf("bucket %s: %w", name, resource.ErrNotFound)
	}
	b.UsageBytes = -1
	b.ForceDestroy = false
	return b, nil
}

func (f *FakeProvider) CreateBucket(ctx context.Context, b resource.Bucket) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("CreateBucket", b.Name); err != nil {
		return err
	}
	if _, ok := f.buckets[b.Name]; ok {
		return fmt.Errorf("bucket name %q is already taken", b.Name)
	}
	b.Provider = common.Google
	b.CreatedAt = f.now()
	b.UpdatedAt = f.now()
	f.buckets[b.Name] = b
	return nil
}

func (f *FakeProvider) UpdateBucket(ctx context.Context, b resource.Bucket) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("UpdateBucket", b.Name); err != nil {
		return err
	}
	cur, ok := f.buckets[b.Name]
	if !ok {
		return fmt.Errorf("bucket %s: %w", b.Name, resource.ErrNotFound)
	}
	b.Provider = common.Google
	b.Location = cur.Location
	b.CreatedAt = cur.CreatedAt
	b.UpdatedAt = f.now()
	f.buckets[b.Name] = b
	return nil
}

func (f *FakeProvider) DeleteBucket(ctx context.Context, name string, force bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("DeleteBucket", name); err != nil {
		return err
	}
	if _, ok := f.buckets[name]; !ok {
		return fmt.Errorf("bucket %s: %w", name, resource.ErrNotFound)
	}
	if f.objects[name] > 0 && !force {
		return fmt.Errorf("bucket %s: %w", name, resource.ErrBucketNotEmpty)
	}
	delete(f.buckets, name)
	delete(f.objects, name)
	return nil
}

func (f *FakeProvider) BucketUsage(ctx context.Context, name string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("BucketUsage", name); err != nil {
		return -1, err
	}
	if u, ok := f.usage[name]; ok {
		return u, nil
	}
	return -1, nil
}

func (f *FakeProvider) GetDataset(ctx context.Context, project, id string) (resource.Dataset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("GetDataset", id); err != nil {
		return resource.Dataset{}, err
	}
	ds, ok := f.datasets[datasetKey(project, id)]
	if !ok {
		return resource.Dataset{}, fmt.Errorf("dataset %s: %w", id, resource.ErrNotFound)
	}
	ds.DeleteContentsOnDestroy = false
	return ds, nil
}

func (f *FakeProvider) CreateDataset(ctx context.Context, ds resource.Dataset) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("CreateDataset", ds.ID); err != nil {
		return err
	}
	k := datasetKey(ds.Project, ds.ID)
	if _, ok := f.datasets[k]; ok {
		return fmt.Errorf("dataset %q already exists", ds.ID)
	}
	ds.Provider = common.Google
	ds.CreatedAt = f.now()
	ds.UpdatedAt = f.now()
	f.datasets[k] = ds
	return nil
}

func (f *FakeProvider) UpdateDataset(ctx context.Context, ds resource.Dataset) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("UpdateDataset", ds.ID); err != nil {
		return err
	}
	k := datasetKey(ds.Project, ds.ID)
	cur, ok := f.datasets[k]
	if !ok {
		return fmt.Errorf("dataset %s: %w", ds.ID, resource.ErrNotFound)
	}
	ds.Provider = common.Google
	ds.Location = cur.Location
	ds.CreatedAt = cur.CreatedAt
	ds.UpdatedAt = f.now()
	f.datasets[k] = ds
	return nil
}

func (f *FakeProvider) DeleteDataset(ctx context.Context, project, id string, deleteContents bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("DeleteDataset", id); err != nil {
		return err
	}
	k := datasetKey(project, id)
	if _, ok := f.datasets[k]; !ok {
		return fmt.Errorf("dataset %s: %w", id, resource.ErrNotFound)
	}
	if f.tables[k] > 0 && !deleteContents {
		return fmt.Errorf("dataset %s still contains %d tables", id, f.tables[k])
	}
	delete(f.datasets, k)
	delete(f.tables, k)
	return nil
}
