// File: pkg/resource/resource.go
package resource

import (
	"context"
	"errors"
	"lakehouse/pkg/common"
)

var (
	// ErrNotFound is returned by Get* when the resource does not exist remotely
	ErrNotFound = errors.New("resource not found")
	// ErrBucketNotEmpty is returned when deleting a bucket that still holds objects and force was not requested
	ErrBucketNotEmpty = errors.New("bucket is not empty and force_destroy is not set")
)

type BucketClient interface {
	GetBucket(ctx context.Context, name string) (Bucket, error)
	CreateBucket(ctx context.Context, bucket Bucket) error
	UpdateBucket(ctx context.Context, bucket Bucket) error
	DeleteBucket(ctx context.Context, name string, force bool) error
	// Returns -1 with a nil error when no usage figure is available yet
	BucketUsage(ctx context.Context, name string) (int64, error)
}

type DatasetClient interface {
	GetDataset(ctx context.Context, project, id string) (Dataset, error)
	CreateDataset(ctx context.Context, dataset Dataset) error
	UpdateDataset(ctx context.Context, dataset Dataset) error
	DeleteDataset(ctx context.Context, project, id string, deleteContents bool) error
}

// Provider is a client bound to one project and region of a cloud
type Provider interface {
	BucketClient
	DatasetClient
	ProviderName() common.Provider
	Project() string
	Close() error
}
