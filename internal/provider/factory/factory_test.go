package factory

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"lakehouse/internal/config"
	"lakehouse/internal/descriptor"
	"lakehouse/internal/provider/registry"
	"lakehouse/pkg/resource"
	"lakehouse/pkg/resource/resourcetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSettings_Precedence(t *testing.T) {
	cfg := &config.Config{GCP: config.GCPConfig{
		Project:     "config-project",
		Region:      "config-region",
		Credentials: "/config/key.json",
	}}
	f := NewFactory(cfg, testLogger())

	t.Run("descriptor values win", func(t *testing.T) {
		t.Setenv("LAKEHOUSE_TEST_CREDS", "/env/key.json")
		s := f.Settings(descriptor.ProviderBlock{
			Name:           "Google",
			Project:        "descriptor-project",
			Region:         "europe-west6",
			CredentialsEnv: "LAKEHOUSE_TEST_CREDS",
		})
		assert.Equal(t, config.ProviderSettings{
			Name:            "google",
			Project:         "descriptor-project",
			Region:          "europe-west6",
			CredentialsFile: "/env/key.json",
		}, s)
	})

	t.Run("config fills the gaps", func(t *testing.T) {
		t.Setenv("LAKEHOUSE_TEST_CREDS", "")
		s := f.Settings(descriptor.ProviderBlock{Name: "google", CredentialsEnv: "LAKEHOUSE_TEST_CREDS"})
		assert.Equal(t, "config-project", s.Project)
		assert.Equal(t, "config-region", s.Region)
		assert.Equal(t, "/config/key.json", s.CredentialsFile)
	})
}

var (
	factoryFake     = resourcetest.NewFakeProvider("taxi-rides-ny")
	factoryReceived config.ProviderSettings
)

// Registered once per test binary, the same way provider packages self-register
func init() {
	registry.RegisterProvider("factorytest", registry.ProviderRegistration{
		ConfigCheck: func(s config.ProviderSettings) bool { return s.Project != "" },
		Initializer: func(ctx context.Context, s config.ProviderSettings, logger *slog.Logger) (resource.Provider, error) {
			factoryReceived = s
			if s.Project == "broken" {
				return nil, errors.New("no credentials")
			}
			return factoryFake, nil
		},
	})
}

func TestGetProvider(t *testing.T) {
	fake := factoryFake

	f := NewFactory(&config.Config{}, testLogger())
	ctx := context.Background()

	client, err := f.GetProvider(ctx, descriptor.ProviderBlock{Name: "factorytest", Project: "taxi-rides-ny", Region: "us-central1"})
	require.NoError(t, err)
	assert.Same(t, fake, client)
	assert.Equal(t, "taxi-rides-ny", factoryReceived.Project)

	_, err = f.GetProvider(ctx, descriptor.ProviderBlock{Name: "factorytest"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is not configured")

	_, err = f.GetProvider(ctx, descriptor.ProviderBlock{Name: "factorytest", Project: "broken"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no credentials")

	_, err = f.GetProvider(ctx, descriptor.ProviderBlock{Name: "azure", Project: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported provider")
}
