// File: pkg/resource/gcp/client.go
package gcp

import (
	"context"
	"fmt"
	"log/slog"

	"lakehouse/internal/config"
	"lakehouse/internal/provider/registry"
	"lakehouse/pkg/common"
	"lakehouse/pkg/resource"

	"cloud.google.com/go/bigquery"
	gcpstorage "cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

func init() {
	registry.RegisterProvider(string(common.Google), registry.ProviderRegistration{
		ConfigCheck: isConfigured,
		Initializer: initialize,
	})
}

// Checks that a project is known; region and credentials have usable fallbacks
func isConfigured(settings config.ProviderSettings) bool {
	return settings.Project != ""
}

func initialize(ctx context.Context, settings config.ProviderSettings, logger *slog.Logger) (resource.Provider, error) {
	if !isConfigured(settings) {
		return nil, fmt.Errorf("GCP configuration missing or incomplete")
	}
	return NewGCPProvider(ctx, settings, logger)
}

type GCPProvider struct {
	storage    *gcpstorage.Client
	bigquery   *bigquery.Client
	clientOpts []option.ClientOption
	projectID  string
	logger     *slog.Logger
}

var _ resource.Provider = (*GCPProvider)(nil)

func NewGCPProvider(ctx context.Context, settings config.ProviderSettings, logger *slog.Logger) (*GCPProvider, error) {
	var opts []option.ClientOption
	if settings.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(settings.CredentialsFile))
	}

	storageClient, err := gcpstorage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCP storage client: %w", err)
	}

	bqClient, err := bigquery.NewClient(ctx, settings.Project, opts...)
	if err != nil {
		storageClient.Close()
		return nil, fmt.Errorf("failed to create BigQuery client: %w", err)
	}

	return &GCPProvider{
		storage:    storageClient,
		bigquery:   bqClient,
		clientOpts: opts,
		projectID:  settings.Project,
		logger:     logger,
	}, nil
}

func (g *GCPProvider) ProviderName() common.Provider {
	return common.Google
}

func (g *GCPProvider) Project() string {
	return g.projectID
}

func (g *GCPProvider) Close() error {
	var firstErr error
	if g.storage != nil {
		firstErr = g.storage.Close()
	}
	if g.bigquery != nil {
		if err := g.bigquery.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
