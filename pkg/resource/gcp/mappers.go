// File: pkg/resource/gcp/mappers.go
package gcp

import (
	"sort"

	"lakehouse/pkg/common"
	"lakehouse/pkg/resource"

	"cloud.google.com/go/bigquery"
	gcpstorage "cloud.google.com/go/storage"
)

func mapBucketAttrs(attrs *gcpstorage.BucketAttrs) resource.Bucket {
	return resource.Bucket{
		Name:                     attrs.Name,
		Provider:                 common.Google,
		Location:                 attrs.Location,
		StorageClass:             attrs.StorageClass,
		UniformBucketLevelAccess: attrs.UniformBucketLevelAccess.Enabled,
		Versioning:               attrs.VersioningEnabled,
		Labels:                   attrs.Labels,
		LifecycleRules:           mapLifecycleRules(attrs.Lifecycle.Rules),
		CreatedAt:                attrs.Created,
		UpdatedAt:                attrs.Updated,
		UsageBytes:               -1,
	}
}

func mapLifecycleRules(rules []gcpstorage.LifecycleRule) []resource.LifecycleRule {
	if len(rules) == 0 {
		return nil
	}
	result := make([]resource.LifecycleRule, 0, len(rules))
	for _, r := range rules {
		result = append(result, resource.LifecycleRule{
			Action:       r.Action.Type,
			StorageClass: r.Action.StorageClass,
			AgeDays:      int(r.Condition.AgeInDays),
		})
	}
	return result
}

func toBucketAttrs(b resource.Bucket) *gcpstorage.BucketAttrs {
	return &gcpstorage.BucketAttrs{
		Location:          b.Location,
		StorageClass:      b.StorageClass,
		VersioningEnabled: b.Versioning,
		UniformBucketLevelAccess: gcpstorage.UniformBucketLevelAccess{
			Enabled: b.UniformBucketLevelAccess,
		},
		Labels:    b.Labels,
		Lifecycle: gcpstorage.Lifecycle{Rules: toLifecycleRules(b.LifecycleRules)},
	}
}

func toLifecycleRules(rules []resource.LifecycleRule) []gcpstorage.LifecycleRule {
	result := make([]gcpstorage.LifecycleRule, 0, len(rules))
	for _, r := range rules {
		result = append(result, gcpstorage.LifecycleRule{
			Action: gcpstorage.LifecycleAction{
				Type:         r.Action,
				StorageClass: r.StorageClass,
			},
			Condition: gcpstorage.LifecycleCondition{
				AgeInDays: int64(r.AgeDays),
			},
		})
	}
	return result
}

func mapDatasetMetadata(md *bigquery.DatasetMetadata) resource.Dataset {
	return resource.Dataset{
		Provider:               common.Google,
		Location:               md.Location,
		FriendlyName:           md.Name,
		Description:            md.Description,
		DefaultTableExpiration: md.DefaultTableExpiration,
		Labels:                 md.Labels,
		CreatedAt:              md.CreationTime,
		UpdatedAt:              md.LastModifiedTime,
	}
}

func toDatasetMetadata(ds resource.Dataset) *bigquery.DatasetMetadata {
	return &bigquery.DatasetMetadata{
		Name:                   ds.FriendlyName,
		Description:            ds.Description,
		Location:               ds.Location,
		DefaultTableExpiration: ds.DefaultTableExpiration,
		Labels:                 ds.Labels,
	}
}

// Returns the labels to set and the keys to remove to turn current into desired
func labelChanges(current, desired map[string]string) (map[string]string, []string) {
	set := make(map[string]string)
	for k, v := range desired {
		if cur, ok := current[k]; !ok || cur != v {
			set[k] = v
		}
	}

	var remove []string
	for k := range current {
		if _, ok := desired[k]; !ok {
			remove = append(remove, k)
		}
	}
	sort.Strings(remove)
	return set, remove
}
