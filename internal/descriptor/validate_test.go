package descriptor

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validDescriptor() *Descriptor {
	enabled := true
	return &Descriptor{
		Version: 1,
		Provider: ProviderBlock{
			Name:           "google",
			Project:        "taxi-rides-ny",
			Region:         "us-central1",
			CredentialsEnv: DefaultCredentialsEnv,
		},
		Buckets: []Bucket{{
			Name:                     "taxi-rides-ny-landing",
			Location:                 "US",
			StorageClass:             "STANDARD",
			UniformBucketLevelAccess: &enabled,
			LifecycleRules:           []LifecycleRule{{Action: "Delete", AgeDays: 3}},
		}},
		Datasets: []Dataset{{
			ID:       "trips_data_all",
			Project:  "taxi-rides-ny",
			Location: "US",
		}},
	}
}

func fieldsOf(errs ValidationErrors) []string {
	var fields []string
	for _, e := range errs {
		fields = append(fields, e.Field)
	}
	return fields
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(d *Descriptor)
		wantField string
		wantMsg   string
	}{
		{
			name:      "missing bucket name",
			mutate:    func(d *Descriptor) { d.Buckets[0].Name = "" },
			wantField: "buckets[0].name",
			wantMsg:   "is required",
		},
		{
			name:      "missing dataset id",
			mutate:    func(d *Descriptor) { d.Datasets[0].ID = "" },
			wantField: "datasets[0].id",
			wantMsg:   "is required",
		},
		{
			name:      "missing project",
			mutate:    func(d *Descriptor) { d.Provider.Project = "" },
			wantField: "provider.project",
			wantMsg:   "is required",
		},
		{
			name:      "missing bucket location",
			mutate:    func(d *Descriptor) { d.Buckets[0].Location = "" },
			wantField: "buckets[0].location",
		},
		{
			name:      "missing dataset location",
			mutate:    func(d *Descriptor) { d.Datasets[0].Location = "" },
			wantField: "datasets[0].location",
		},
		{
			name:      "zero lifecycle age",
			mutate:    func(d *Descriptor) { d.Buckets[0].LifecycleRules[0].AgeDays = 0 },
			wantField: "buckets[0].lifecycle_rules[0].age_days",
			wantMsg:   "greater than 0",
		},
		{
			name:      "negative lifecycle age",
			mutate:    func(d *Descriptor) { d.Buckets[0].LifecycleRules[0].AgeDays = -4 },
			wantField: "buckets[0].lifecycle_rules[0].age_days",
		},
		{
			name:      "unknown lifecycle action",
			mutate:    func(d *Descriptor) { d.Buckets[0].LifecycleRules[0].Action = "Archive" },
			wantField: "buckets[0].lifecycle_rules[0].action",
			wantMsg:   "must be one of",
		},
		{
			name: "set storage class without target",
			mutate: func(d *Descriptor) {
				d.Buckets[0].LifecycleRules[0] = LifecycleRule{Action: "SetStorageClass", AgeDays: 30}
			},
			wantField: "buckets[0].lifecycle_rules[0].storage_class",
			wantMsg:   "required for SetStorageClass",
		},
		{
			name:      "target class on delete rule",
			mutate:    func(d *Descriptor) { d.Buckets[0].LifecycleRules[0].StorageClass = "ARCHIVE" },
			wantField: "buckets[0].lifecycle_rules[0].storage_class",
		},
		{
			name:      "unknown storage class",
			mutate:    func(d *Descriptor) { d.Buckets[0].StorageClass = "GLACIER" },
			wantField: "buckets[0].storage_class",
		},
		{
			name:      "invalid bucket name",
			mutate:    func(d *Descriptor) { d.Buckets[0].Name = "Taxi_Bucket" },
			wantField: "buckets[0].name",
			wantMsg:   "not a valid bucket name",
		},
		{
			name:      "invalid dataset id",
			mutate:    func(d *Descriptor) { d.Datasets[0].ID = "trips-data" },
			wantField: "datasets[0].id",
		},
		{
			name:      "dataset id too long",
			mutate:    func(d *Descriptor) { d.Datasets[0].ID = strings.Repeat("t", 1025) },
			wantField: "datasets[0].id",
		},
		{
			name: "duplicate bucket names",
			mutate: func(d *Descriptor) {
				d.Buckets = append(d.Buckets, d.Buckets[0])
			},
			wantField: "buckets",
			wantMsg:   "duplicate",
		},
		{
			name:      "unsupported provider",
			mutate:    func(d *Descriptor) { d.Provider.Name = "aws" },
			wantField: "provider.name",
		},
		{
			name:      "bad provider version pin",
			mutate:    func(d *Descriptor) { d.Provider.Version = "latest" },
			wantField: "provider.version",
			wantMsg:   "semantic version",
		},
		{
			name:      "unsupported descriptor version",
			mutate:    func(d *Descriptor) { d.Version = 2 },
			wantField: "version",
		},
		{
			name: "no resources",
			mutate: func(d *Descriptor) {
				d.Buckets = nil
				d.Datasets = nil
			},
			wantField: "buckets",
			wantMsg:   "at least one",
		},
		{
			name:      "invalid label key",
			mutate:    func(d *Descriptor) { d.Buckets[0].Labels = map[string]string{"Team": "x"} },
			wantField: "buckets[0].labels[Team]",
		},
		{
			name:      "invalid credentials env name",
			mutate:    func(d *Descriptor) { d.Provider.CredentialsEnv = "/path/to/key.json" },
			wantField: "provider.credentials_env",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validDescriptor()
			tt.mutate(d)

			errs := Validate(d).Errors()
			require.NotEmpty(t, errs)
			assert.Contains(t, fieldsOf(errs), tt.wantField)
			if tt.wantMsg != "" {
				found := false
				for _, e := range errs {
					if e.Field == tt.wantField && strings.Contains(e.Message, tt.wantMsg) {
						found = true
					}
				}
				assert.True(t, found, "expected message %q for %s, got %v", tt.wantMsg, tt.wantField, errs)
			}
			assert.Error(t, Validate(d).Err())
		})
	}
}

func TestValidate_ValidDescriptor(t *testing.T) {
	errs := Validate(validDescriptor())
	assert.Empty(t, errs)
	assert.NoError(t, errs.Err())
}

func TestValidate_LocationMismatchIsWarning(t *testing.T) {
	d := validDescriptor()
	d.Datasets[0].Location = "EU"

	errs := Validate(d)
	assert.Empty(t, errs.Errors())
	require.Len(t, errs.Warnings(), 1)
	assert.Equal(t, "location", errs.Warnings()[0].Field)
	assert.Contains(t, errs.Warnings()[0].Message, "dataset/taxi-rides-ny.trips_data_all")
	assert.NoError(t, errs.Err())
}

func TestValidate_LocationComparisonIgnoresCase(t *testing.T) {
	d := validDescriptor()
	d.Datasets[0].Location = "us"
	assert.Empty(t, Validate(d))
}

func TestIsValidBucketName(t *testing.T) {
	tests := []struct {
		name  string
		valid bool
	}{
		{"taxi-rides-ny-landing", true},
		{"a.b.c", true},
		{"ab", false},
		{"-leading-dash", false},
		{"trailing-dash-", false},
		{"UPPER", false},
		{"goog-bucket", false},
		{"my-google-bucket", false},
		{"192.168.5.4", false},
		{strings.Repeat("a", 64), false},
		{strings.Repeat("a", 63), true},
		{"double..dot", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, IsValidBucketName(tt.name))
		})
	}
}

func TestIsValidDatasetID(t *testing.T) {
	tests := []struct {
		name  string
		id    string
		valid bool
	}{
		{"plain", "trips_data_all", true},
		{"mixed case and digits", "Trips2024", true},
		{"dash", "trips-data", false},
		{"dot", "trips.data", false},
		{"empty", "", false},
		{"at length limit", strings.Repeat("a", 1024), true},
		{"over length limit", strings.Repeat("a", 1025), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, IsValidDatasetID(tt.id))
		})
	}
}

func TestValidationError(t *testing.T) {
	ve := ValidationError{Field: "buckets[0].name", Message: "is required", Severity: SeverityError}
	assert.Equal(t, "[error] buckets[0].name: is required", ve.Error())
	assert.True(t, ve.IsError())
	assert.False(t, ValidationError{Severity: SeverityWarning}.IsError())
}

func TestExampleDescriptorIsValid(t *testing.T) {
	d, err := Load(filepath.Join("..", "..", "lakehouse.yaml"), nil)
	require.NoError(t, err)

	results := Validate(d)
	assert.Empty(t, results.Errors())
	assert.Equal(t, "taxi-rides-ny-dev-data-lake", d.Buckets[0].Name)
}
