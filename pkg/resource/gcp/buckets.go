// File: pkg/resource/gcp/buckets.go
package gcp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lakehouse/internal/retry"
	"lakehouse/pkg/resource"

	gcpstorage "cloud.google.com/go/storage"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/iterator"
)

// Bounds concurrent object deletions while emptying a bucket
const emptyBucketConcurrency = 16

func (g *GCPProvider) GetBucket(ctx context.Context, bucketName string) (resource.Bucket, error) {
	g.logger.Debug("Starting GCP GetBucket operation", "bucket", bucketName)

	attrs, err := g.storage.Bucket(bucketName).Attrs(ctx)
	if err != nil {
		if errors.Is(err, gcpstorage.ErrBucketNotExist) || isNotFound(err) {
			return resource.Bucket{}, fmt.Errorf("bucket %s: %w", bucketName, resource.ErrNotFound)
		}
		return resource.Bucket{}, fmt.Errorf("error getting bucket attributes: %w", err)
	}

	return mapBucketAttrs(attrs), nil
}

func (g *GCPProvider) CreateBucket(ctx context.Context, bucket resource.Bucket) error {
	g.logger.Debug("Starting GCP CreateBucket operation", "bucket", bucket.Name, "location", bucket.Location)

	err := retry.WithExponentialBackoff(ctx, func() error {
		return g.storage.Bucket(bucket.Name).Create(ctx, g.projectID, toBucketAttrs(bucket))
	}, retry.WithMaxRetries(3), retry.WithRetryable(isTransient))
	if err != nil {
		if isConflict(err) {
			return fmt.Errorf("bucket name %q is already taken (bucket names are globally unique): %w", bucket.Name, err)
		}
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

func (g *GCPProvider) UpdateBucket(ctx context.Context, bucket resource.Bucket) error {
	g.logger.Debug("Starting GCP UpdateBucket operation", "bucket", bucket.Name)

	handle := g.storage.Bucket(bucket.Name)
	current, err := handle.Attrs(ctx)
	if err != nil {
		return fmt.Errorf("error getting bucket attributes: %w", err)
	}

	update := gcpstorage.BucketAttrsToUpdate{
		StorageClass:      bucket.StorageClass,
		VersioningEnabled: bucket.Versioning,
		UniformBucketLevelAccess: &gcpstorage.UniformBucketLevelAccess{
			Enabled: bucket.UniformBucketLevelAccess,
		},
		Lifecycle: &gcpstorage.Lifecycle{Rules: toLifecycleRules(bucket.LifecycleRules)},
	}

	set, remove := labelChanges(current.Labels, bucket.Labels)
	for k, v := range set {
		update.SetLabel(k, v)
	}
	for _, k := range remove {
		update.DeleteLabel(k)
	}

	// Metageneration precondition guards against a concurrent writer
	conds := gcpstorage.BucketConditions{MetagenerationMatch: current.MetaGeneration}
	if _, err := handle.If(conds).Update(ctx, update); err != nil {
		return fmt.Errorf("failed to update bucket: %w", err)
	}
	return nil
}

// DeleteBucket removes a bucket. With force every object version is deleted
// first; without it a non-empty bucket yields resource.ErrBucketNotEmpty.
func (g *GCPProvider) DeleteBucket(ctx context.Context, bucketName string, force bool) error {
	g.logger.Debug("Starting GCP DeleteBucket operation", "bucket", bucketName, "force", force)
	handle := g.storage.Bucket(bucketName)

	if force {
		deleted, err := g.emptyBucket(ctx, handle)
		if errors.Is(err, gcpstorage.ErrBucketNotExist) || isNotFound(err) {
			return fmt.Errorf("bucket %s: %w", bucketName, resource.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to empty bucket %s: %w", bucketName, err)
		}
		if deleted > 0 {
			g.logger.Info("Deleted bucket contents", "bucket", bucketName, "objects", deleted)
		}
	}

	err := retry.WithExponentialBackoff(ctx, func() error {
		err := handle.Delete(ctx)
		switch {
		case err == nil:
			return nil
		case isConflict(err) && !force:
			return retry.Fatal(resource.ErrBucketNotEmpty)
		case isConflict(err), isTransient(err):
			// Object deletions may take a moment to be reflected in the bucket listing
			return err
		default:
			return retry.Fatal(err)
		}
	}, retry.WithMaxRetries(5), retry.WithInitialDelay(2*time.Second))

	if err != nil {
		if errors.Is(err, gcpstorage.ErrBucketNotExist) || isNotFound(err) {
			return fmt.Errorf("bucket %s: %w", bucketName, resource.ErrNotFound)
		}
		if errors.Is(err, resource.ErrBucketNotEmpty) {
			return fmt.Errorf("bucket %s: %w", bucketName, resource.ErrBucketNotEmpty)
		}
		return fmt.Errorf("failed to delete bucket: %w", err)
	}
	return nil
}

// Deletes every object generation in the bucket and returns how many were removed
func (g *GCPProvider) emptyBucket(ctx context.Context, handle *gcpstorage.BucketHandle) (int, error) {
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(emptyBucketConcurrency)

	count := 0
	// A failed delete cancels egCtx, which also stops the listing
	it := handle.Objects(egCtx, &gcpstorage.Query{Versions: true})
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			if deleteErr := eg.Wait(); deleteErr != nil {
				return count, deleteErr
			}
			return count, fmt.Errorf("error iterating objects: %w", err)
		}

		name, generation := attrs.Name, attrs.Generation
		count++
		eg.Go(func() error {
			err := handle.Object(name).Generation(generation).Delete(egCtx)
			if err != nil && !errors.Is(err, gcpstorage.ErrObjectNotExist) {
				return fmt.Errorf("deleting %s#%d: %w", name, generation, err)
			}
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return count, err
	}
	return count, nil
}
