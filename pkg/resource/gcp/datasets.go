// File: pkg/resource/gcp/datasets.go
package gcp

import (
	"context"
	"fmt"

	"lakehouse/internal/retry"
	"lakehouse/pkg/resource"

	"cloud.google.com/go/bigquery"
)

func (g *GCPProvider) dataset(project, id string) *bigquery.Dataset {
	if project == "" {
		project = g.projectID
	}
	return g.bigquery.DatasetInProject(project, id)
}

func (g *GCPProvider) GetDataset(ctx context.Context, project, id string) (resource.Dataset, error) {
	g.logger.Debug("Starting BigQuery GetDataset operation", "dataset", id, "dataset_project", project)

	md, err := g.dataset(project, id).Metadata(ctx)
	if err != nil {
		if isNotFound(err) {
			return resource.Dataset{}, fmt.Errorf("dataset %s: %w", id, resource.ErrNotFound)
		}
		return resource.Dataset{}, fmt.Errorf("error getting dataset metadata: %w", err)
	}

	ds := mapDatasetMetadata(md)
	ds.ID = id
	ds.Project = project
	if ds.Project == "" {
		ds.Project = g.projectID
	}
	return ds, nil
}

func (g *GCPProvider) CreateDataset(ctx context.Context, ds resource.Dataset) error {
	g.logger.Debug("Starting BigQuery CreateDataset operation", "dataset", ds.ID, "location", ds.Location)

	// A dataset that was just deleted during a replace can report a conflict for a short while
	err := retry.WithExponentialBackoff(ctx, func() error {
		return g.dataset(ds.Project, ds.ID).Create(ctx, toDatasetMetadata(ds))
	}, retry.WithMaxRetries(3), retry.WithRetryable(func(err error) bool {
		return isTransient(err) || isConflict(err)
	}))
	if err != nil {
		if isConflict(err) {
			return fmt.Errorf("dataset %q already exists in project %s: %w", ds.ID, ds.Project, err)
		}
		return fmt.Errorf("failed to create dataset: %w", err)
	}
	return nil
}

func (g *GCPProvider) UpdateDataset(ctx context.Context, ds resource.Dataset) error {
	g.logger.Debug("Starting BigQuery UpdateDataset operation", "dataset", ds.ID)

	handle := g.dataset(ds.Project, ds.ID)
	current, err := handle.Metadata(ctx)
	if err != nil {
		return fmt.Errorf("error getting dataset metadata: %w", err)
	}

	update := bigquery.DatasetMetadataToUpdate{
		Name:                   ds.FriendlyName,
		Description:            ds.Description,
		DefaultTableExpiration: ds.DefaultTableExpiration,
	}

	set, remove := labelChanges(current.Labels, ds.Labels)
	for k, v := range set {
		update.SetLabel(k, v)
	}
	for _, k := range remove {
		update.DeleteLabel(k)
	}

	// The etag makes the update fail if someone else modified the dataset since it was read
	if _, err := handle.Update(ctx, update, current.ETag); err != nil {
		return fmt.Errorf("failed to update dataset: %w", err)
	}
	return nil
}

func (g *GCPProvider) DeleteDataset(ctx context.Context, project, id string, deleteContents bool) error {
	g.logger.Debug("Starting BigQuery DeleteDataset operation", "dataset", id, "delete_contents", deleteContents)

	handle := g.dataset(project, id)

	var err error
	if deleteContents {
		err = handle.DeleteWithContents(ctx)
	} else {
		err = handle.Delete(ctx)
	}

	if err != nil {
		if isNotFound(err) {
			return fmt.Errorf("dataset %s: %w", id, resource.ErrNotFound)
		}
		if !deleteContents {
			return fmt.Errorf("failed to delete dataset %s (set delete_contents_on_destroy to remove its tables): %w", id, err)
		}
		return fmt.Errorf("failed to delete dataset: %w", err)
	}
	return nil
}
