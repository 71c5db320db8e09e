// File: internal/descriptor/descriptor.go

// Package descriptor holds the declarative description of a landing zone:
// the provider binding plus the storage buckets and analytics datasets that
// should exist. A descriptor is pure data; plan and apply live elsewhere.
package descriptor

import (
	"time"

	"lakehouse/pkg/common"
	"lakehouse/pkg/resource"
)

const (
	CurrentVersion        = 1
	DefaultCredentialsEnv = "GOOGLE_APPLICATION_CREDENTIALS"
	DefaultStorageClass   = "STANDARD"
)

type Descriptor struct {
	Version   int               `mapstructure:"version" yaml:"version" validate:"eq=1"`
	Provider  ProviderBlock     `mapstructure:"provider" yaml:"provider"`
	Variables map[string]string `mapstructure:"variables" yaml:"-"`
	Buckets   []Bucket          `mapstructure:"buckets" yaml:"buckets" validate:"unique=Name,dive"`
	Datasets  []Dataset         `mapstructure:"datasets" yaml:"datasets" validate:"unique=ID,dive"`
}

// ProviderBlock binds the descriptor to one cloud project and region.
// Credentials are never embedded: CredentialsEnv names the environment
// variable holding the path to a credentials file.
type ProviderBlock struct {
	Name           string `mapstructure:"name" yaml:"name" validate:"required,oneof=google"`
	Version        string `mapstructure:"version" yaml:"version" validate:"omitempty,semver"`
	Project        string `mapstructure:"project" yaml:"project" validate:"required"`
	Region         string `mapstructure:"region" yaml:"region" validate:"required"`
	Location       string `mapstructure:"location" yaml:"location"`
	CredentialsEnv string `mapstructure:"credentials_env" yaml:"credentials_env" validate:"env_name"`
}

type Bucket struct {
	Name                     string            `mapstructure:"name" yaml:"name" validate:"required,gcs_bucket"`
	Location                 string            `mapstructure:"location" yaml:"location" validate:"required"`
	StorageClass             string            `mapstructure:"storage_class" yaml:"storage_class" validate:"oneof=STANDARD NEARLINE COLDLINE ARCHIVE"`
	UniformBucketLevelAccess *bool             `mapstructure:"uniform_bucket_level_access" yaml:"uniform_bucket_level_access"`
	Versioning               bool              `mapstructure:"versioning" yaml:"versioning"`
	ForceDestroy             bool              `mapstructure:"force_destroy" yaml:"force_destroy"`
	Labels                   map[string]string `mapstructure:"labels" yaml:"labels" validate:"dive,keys,label_key,endkeys,label_value"`
	LifecycleRules           []LifecycleRule   `mapstructure:"lifecycle_rules" yaml:"lifecycle_rules" validate:"dive"`
}

type LifecycleRule struct {
	Action       string `mapstructure:"action" yaml:"action" validate:"required,oneof=Delete SetStorageClass AbortIncompleteMultipartUpload"`
	AgeDays      int    `mapstructure:"age_days" yaml:"age_days" validate:"gt=0"`
	StorageClass string `mapstructure:"storage_class" yaml:"storage_class" validate:"omitempty,oneof=STANDARD NEARLINE COLDLINE ARCHIVE"`
}

type Dataset struct {
	ID                         string            `mapstructure:"id" yaml:"id" validate:"required,bq_dataset"`
	Project                    string            `mapstructure:"project" yaml:"project" validate:"required"`
	Location                   string            `mapstructure:"location" yaml:"location" validate:"required"`
	FriendlyName               string            `mapstructure:"friendly_name" yaml:"friendly_name"`
	Description                string            `mapstructure:"description" yaml:"description"`
	DefaultTableExpirationDays int               `mapstructure:"default_table_expiration_days" yaml:"default_table_expiration_days" validate:"gte=0"`
	DeleteContentsOnDestroy    bool              `mapstructure:"delete_contents_on_destroy" yaml:"delete_contents_on_destroy"`
	Labels                     map[string]string `mapstructure:"labels" yaml:"labels" validate:"dive,keys,label_key,endkeys,label_value"`
}

// ProviderDefaults fills provider fields the descriptor leaves empty, typically from the user config
type ProviderDefaults struct {
	Project string
	Region  string
}

// ApplyProviderDefaults fills an empty project/region and propagates them to resources that rely on them
func (d *Descriptor) ApplyProviderDefaults(defs ProviderDefaults) {
	if d.Provider.Project == "" {
		d.Provider.Project = defs.Project
	}
	if d.Provider.Region == "" {
		d.Provider.Region = defs.Region
	}
	d.applyDefaults()
}

func (d *Descriptor) applyDefaults() {
	if d.Version == 0 {
		d.Version = CurrentVersion
	}
	if d.Provider.CredentialsEnv == "" {
		d.Provider.CredentialsEnv = DefaultCredentialsEnv
	}

	for i := range d.Buckets {
		b := &d.Buckets[i]
		if b.Location == "" {
			b.Location = d.Provider.Location
		}
		if b.StorageClass == "" {
			b.StorageClass = DefaultStorageClass
		}
		if b.UniformBucketLevelAccess == nil {
			enabled := true
			b.UniformBucketLevelAccess = &enabled
		}
	}

	for i := range d.Datasets {
		ds := &d.Datasets[i]
		if ds.Location == "" {
			ds.Location = d.Provider.Location
		}
		if ds.Project == "" {
			ds.Project = d.Provider.Project
		}
	}
}

// DesiredBuckets converts the declared buckets into the provider-neutral model
func (d *Descriptor) DesiredBuckets() []resource.Bucket {
	buckets := make([]resource.Bucket, 0, len(d.Buckets))
	for _, b := range d.Buckets {
		rules := make([]resource.LifecycleRule, 0, len(b.LifecycleRules))
		for _, r := range b.LifecycleRules {
			rules = append(rules, resource.LifecycleRule{
				Action:       r.Action,
				StorageClass: r.StorageClass,
				AgeDays:      r.AgeDays,
			})
		}

		buckets = append(buckets, resource.Bucket{
			Name:                     b.Name,
			Provider:                 common.Provider(d.Provider.Name),
			Location:                 b.Location,
			StorageClass:             b.StorageClass,
			UniformBucketLevelAccess: b.UniformBucketLevelAccess == nil || *b.UniformBucketLevelAccess,
			Versioning:               b.Versioning,
			Labels:                   b.Labels,
			LifecycleRules:           rules,
			ForceDestroy:             b.ForceDestroy,
			UsageBytes:               -1,
		})
	}
	return buckets
}

// DesiredDatasets converts the declared datasets into the provider-neutral model
func (d *Descriptor) DesiredDatasets() []resource.Dataset {
	datasets := make([]resource.Dataset, 0, len(d.Datasets))
	for _, ds := range d.Datasets {
		datasets = append(datasets, resource.Dataset{
			ID:                      ds.ID,
			Project:                 ds.Project,
			Provider:                common.Provider(d.Provider.Name),
			Location:                ds.Location,
			FriendlyName:            ds.FriendlyName,
			Description:             ds.Description,
			DefaultTableExpiration:  time.Duration(ds.DefaultTableExpirationDays) * 24 * time.Hour,
			Labels:                  ds.Labels,
			DeleteContentsOnDestroy: ds.DeleteContentsOnDestroy,
		})
	}
	return datasets
}
