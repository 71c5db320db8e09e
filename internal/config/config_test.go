package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) *ConfigManager {
	t.Helper()
	m, err := NewConfigManagerAt(filepath.Join(t.TempDir(), "lakehouse", ConfigFileName))
	require.NoError(t, err)
	return m
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := newTestManager(t).LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "local", cfg.State.Backend)
	assert.Equal(t, "lakehouse.state.yaml", cfg.State.Path)
	assert.Equal(t, 4, cfg.Apply.Parallelism)
	assert.Empty(t, cfg.GCP.Project)
}

func TestSetValue_PersistsAndReloads(t *testing.T) {
	m := newTestManager(t)

	require.NoError(t, m.SetValue("gcp.project", "taxi-rides-ny"))
	require.NoError(t, m.SetValue("APPLY.PARALLELISM", "8"))

	reopened, err := NewConfigManagerAt(m.Path())
	require.NoError(t, err)
	cfg, err := reopened.LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "taxi-rides-ny", cfg.GCP.Project)
	assert.Equal(t, 8, cfg.Apply.Parallelism)

	value, known := reopened.GetValue("gcp.project")
	assert.True(t, known)
	assert.Equal(t, "taxi-rides-ny", value)
}

func TestSetValue_Rejects(t *testing.T) {
	m := newTestManager(t)

	err := m.SetValue("gcp.zone", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown config key")

	err = m.SetValue("apply.parallelism", "many")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expects an integer")
}

func TestValidate(t *testing.T) {
	m := newTestManager(t)

	cfg, err := m.LoadConfig()
	require.NoError(t, err)
	assert.NoError(t, cfg.Validate())

	// An incomplete backend switch still loads so that 'config set' can finish it
	require.NoError(t, m.SetValue("state.backend", "gcs"))
	cfg, err = m.LoadConfig()
	require.NoError(t, err)
	err = cfg.Validate()
	require.Error(t, err, "gcs backend without a bucket")
	assert.Contains(t, err.Error(), "Bucket")

	require.NoError(t, m.SetValue("state.bucket", "taxi-rides-ny-state"))
	cfg, err = m.LoadConfig()
	require.NoError(t, err)
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, "gcs", cfg.State.Backend)

	require.NoError(t, m.SetValue("apply.parallelism", "64"))
	cfg, err = m.LoadConfig()
	require.NoError(t, err)
	assert.Error(t, cfg.Validate())
}

func TestLoadConfig_UnparsableEnvironment(t *testing.T) {
	m := newTestManager(t)
	t.Setenv("LAKEHOUSE_APPLY_PARALLELISM", "lots")

	_, err := m.LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LAKEHOUSE_")

	// The file itself stays editable
	require.NoError(t, m.SetValue("gcp.project", "taxi-rides-ny"))
	value, known := m.GetValue("gcp.project")
	assert.True(t, known)
	assert.Equal(t, "taxi-rides-ny", value)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, m.SetValue("gcp.region", "us-central1"))
	t.Setenv("LAKEHOUSE_GCP_REGION", "europe-west6")

	cfg, err := m.LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "europe-west6", cfg.GCP.Region)

	value, _ := m.GetValue("gcp.region")
	assert.Equal(t, "europe-west6", value)
}

func TestDeleteValue(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, m.SetValue("gcp.project", "taxi-rides-ny"))

	deleted, err := m.DeleteValue("gcp.project")
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.Empty(t, m.GetAllSettings())

	deleted, err = m.DeleteValue("gcp.project")
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestSupportedKeys(t *testing.T) {
	keys := SupportedKeys()
	assert.Contains(t, keys, "state.backend")
	assert.IsIncreasing(t, keys)
}
