package registry

import (
	"context"
	"log/slog"
	"strings"
	"testing"

	"lakehouse/internal/config"
	"lakehouse/pkg/resource"

	"github.com/stretchr/testify/assert"
)

func noopRegistration() ProviderRegistration {
	return ProviderRegistration{
		ConfigCheck: func(config.ProviderSettings) bool { return true },
		Initializer: func(context.Context, config.ProviderSettings, *slog.Logger) (resource.Provider, error) {
			return nil, nil
		},
	}
}

func unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(providerRegistry, strings.ToLower(name))
}

func TestRegisterProvider(t *testing.T) {
	RegisterProvider("RegistryTest", noopRegistration())
	t.Cleanup(func() { unregister("registrytest") })

	assert.True(t, IsSupported("registrytest"))
	assert.True(t, IsSupported("REGISTRYTEST"))
	assert.Contains(t, GetSupportedProviders(), "registrytest")

	_, ok := GetRegistration("registrytest")
	assert.True(t, ok)
	_, ok = GetRegistration("unknown")
	assert.False(t, ok)
}

func TestRegisterProvider_Panics(t *testing.T) {
	RegisterProvider("registrydup", noopRegistration())
	t.Cleanup(func() { unregister("registrydup") })

	assert.Panics(t, func() { RegisterProvider("registrydup", noopRegistration()) })
	assert.Panics(t, func() { RegisterProvider("registrynil", ProviderRegistration{}) })
	assert.False(t, IsSupported("registrynil"))
}
