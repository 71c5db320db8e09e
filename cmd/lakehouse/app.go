// File: cmd/lakehouse/app.go
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"lakehouse/internal/config"
	"lakehouse/internal/descriptor"
	"lakehouse/internal/provider/factory"
	"lakehouse/internal/service"
	"lakehouse/internal/state"
	"lakehouse/internal/ui/prompt"
	"lakehouse/pkg/formatter"
)

type globalFlags struct {
	file  string
	vars  []string
	debug bool
}

// appContainer holds all the shared dependencies for the application
// This includes configuration, provider access, formatters, and the logger
type appContainer struct {
	Config            *config.Config
	ConfigManager     *config.ConfigManager
	ProviderFactory   *factory.Factory
	Providers         service.ProviderSource
	PlanFormatter     *formatter.PlanFormatter
	ResourceFormatter *formatter.ResourceFormatter
	Prompter          prompt.Prompter
	Logger            *slog.Logger

	flags    globalFlags
	exitCode int
	// Set when the config could not be parsed at startup
	configErr error
}

// Creates and initializes a new application container
func newApp(logger *slog.Logger) (*appContainer, error) {
	cfgManager, err := config.NewConfigManager()
	if err != nil {
		return nil, err
	}

	// A broken config must not lock out the 'config' commands that repair it
	cfg, cfgErr := cfgManager.LoadConfig()
	if cfgErr != nil {
		cfg = &config.Config{}
	}

	providerFactory := factory.NewFactory(cfg, logger)

	return &appContainer{
		Config:            cfg,
		ConfigManager:     cfgManager,
		ProviderFactory:   providerFactory,
		Providers:         providerFactory,
		PlanFormatter:     formatter.NewPlanFormatter(),
		ResourceFormatter: formatter.NewResourceFormatter(),
		Prompter:          prompt.New(os.Stdin, os.Stdout),
		Logger:            logger,
		configErr:         cfgErr,
	}, nil
}

// checkConfig reports a config that commands other than 'config' cannot run with
func (app *appContainer) checkConfig() error {
	if app.configErr != nil {
		return app.configErr
	}
	return app.Config.Validate()
}

// parseVars turns repeated --var key=value flags into an override map
func parseVars(vars []string) (map[string]string, error) {
	overrides := make(map[string]string, len(vars))
	for _, v := range vars {
		key, value, ok := strings.Cut(v, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --var %q, expected key=value", v)
		}
		overrides[key] = value
	}
	return overrides, nil
}

// readDescriptor loads the descriptor named by --file and fills provider defaults from the user config
func (app *appContainer) readDescriptor() (*descriptor.Descriptor, error) {
	overrides, err := parseVars(app.flags.vars)
	if err != nil {
		return nil, err
	}

	d, err := descriptor.Load(app.flags.file, overrides)
	if err != nil {
		return nil, err
	}

	d.ApplyProviderDefaults(descriptor.ProviderDefaults{
		Project: app.Config.GCP.Project,
		Region:  app.Config.GCP.Region,
	})
	return d, nil
}

// loadDescriptor reads and validates the descriptor; warnings are logged, errors abort
func (app *appContainer) loadDescriptor() (*descriptor.Descriptor, error) {
	d, err := app.readDescriptor()
	if err != nil {
		return nil, err
	}

	results := descriptor.Validate(d)
	for _, w := range results.Warnings() {
		app.Logger.Warn("Descriptor warning", "field", w.Field, "message", w.Message)
	}
	if err := results.Err(); err != nil {
		return nil, err
	}
	return d, nil
}

// openBackend opens the configured state backend. The descriptor, when given,
// decides which credentials the gcs backend uses.
func (app *appContainer) openBackend(ctx context.Context, d *descriptor.Descriptor) (state.Backend, error) {
	credentials := app.Config.GCP.Credentials
	if d != nil {
		credentials = app.ProviderFactory.Settings(d.Provider).CredentialsFile
	}
	return state.Open(ctx, app.Config, credentials, app.Logger)
}

// newProvisionService wires a service to the state backend; the returned func releases the backend
func (app *appContainer) newProvisionService(ctx context.Context, d *descriptor.Descriptor, parallelism int) (*service.ProvisionService, func(), error) {
	backend, err := app.openBackend(ctx, d)
	if err != nil {
		return nil, nil, err
	}

	if parallelism <= 0 {
		parallelism = app.Config.Apply.Parallelism
	}

	closeFn := func() {
		if err := backend.Close(); err != nil {
			app.Logger.Warn("Failed to close state backend", "error", err)
		}
	}
	return service.NewProvisionService(app.Providers, backend, parallelism, app.Logger), closeFn, nil
}
