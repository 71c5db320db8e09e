// File: internal/provider/factory/factory.go
package factory

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"lakehouse/internal/config"
	"lakehouse/internal/descriptor"
	"lakehouse/internal/provider/registry"
	"lakehouse/pkg/resource"
)

type Factory struct {
	cfg    *config.Config
	logger *slog.Logger
}

func NewFactory(cfg *config.Config, logger *slog.Logger) *Factory {
	return &Factory{
		cfg:    cfg,
		logger: logger,
	}
}

// Resolves provider settings: descriptor values first, then the user config.
// The credential path comes from the environment variable the descriptor names,
// falling back to gcp.credentials.
func (f *Factory) Settings(block descriptor.ProviderBlock) config.ProviderSettings {
	settings := config.ProviderSettings{
		Name:    strings.ToLower(block.Name),
		Project: block.Project,
		Region:  block.Region,
	}

	if settings.Project == "" {
		settings.Project = f.cfg.GCP.Project
	}
	if settings.Region == "" {
		settings.Region = f.cfg.GCP.Region
	}

	if block.CredentialsEnv != "" {
		settings.CredentialsFile = os.Getenv(block.CredentialsEnv)
	}
	if settings.CredentialsFile == "" {
		settings.CredentialsFile = f.cfg.GCP.Credentials
	}

	return settings
}

// Initializes and returns the client for the descriptor's provider block
func (f *Factory) GetProvider(ctx context.Context, block descriptor.ProviderBlock) (resource.Provider, error) {
	settings := f.Settings(block)
	providerLogger := f.logger.With("provider", settings.Name, "project", settings.Project)

	registration, exists := registry.GetRegistration(settings.Name)
	if !exists {
		return nil, fmt.Errorf("unsupported provider: %s. Supported providers are: %v", block.Name, registry.GetSupportedProviders())
	}

	if !registration.ConfigCheck(settings) {
		return nil, fmt.Errorf("provider '%s' is not configured. Set provider.project in the descriptor or use 'lakehouse config set gcp.project <project-id>'", settings.Name)
	}

	if settings.CredentialsFile != "" {
		providerLogger.Debug("Using credentials file", "path", settings.CredentialsFile)
	} else {
		providerLogger.Debug("No credentials file configured, falling back to application default credentials")
	}

	client, err := registration.Initializer(ctx, settings, providerLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize provider %s: %w", settings.Name, err)
	}

	return client, nil
}
