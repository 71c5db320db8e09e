// File: internal/plan/diff.go
package plan

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"lakehouse/pkg/common"
	"lakehouse/pkg/resource"
)

const reasonLocation = "location cannot be changed in place"

// DiffBucket compares a declared bucket with what exists remotely; observed is nil when the bucket is absent
func DiffBucket(desired resource.Bucket, observed *resource.Bucket) Change {
	d := desired
	change := Change{
		Address:      common.Address(common.KindBucket, desired.Name),
		Kind:         common.KindBucket,
		Name:         desired.Name,
		Bucket:       &d,
		ForceDestroy: desired.ForceDestroy,
	}

	if observed == nil {
		change.Action = Create
		change.Fields = bucketFields(resource.Bucket{}, desired, true)
		return change
	}

	change.Fields = bucketFields(*observed, desired, false)
	change.Action = classify(change.Fields)
	if change.Action == Replace {
		change.Reason = reasonLocation
	}
	return change
}

// DiffDataset compares a declared dataset with what exists remotely; observed is nil when the dataset is absent
func DiffDataset(desired resource.Dataset, observed *resource.Dataset) Change {
	d := desired
	change := Change{
		Address:        common.DatasetAddress(desired.Project, desired.ID),
		Kind:           common.KindDataset,
		Name:           desired.ID,
		Project:        desired.Project,
		Dataset:        &d,
		DeleteContents: desired.DeleteContentsOnDestroy,
	}

	if observed == nil {
		change.Action = Create
		change.Fields = datasetFields(resource.Dataset{}, desired, true)
		return change
	}

	change.Fields = datasetFields(*observed, desired, false)
	change.Action = classify(change.Fields)
	if change.Action == Replace {
		change.Reason = reasonLocation
	}
	return change
}

// DeleteBucket plans the removal of a bucket that exists remotely
func DeleteBucket(name string, force bool, reason string) Change {
	return Change{
		Address:      common.Address(common.KindBucket, name),
		Kind:         common.KindBucket,
		Name:         name,
		Action:       Delete,
		Reason:       reason,
		ForceDestroy: force,
	}
}

// DeleteDataset plans the removal of a dataset that exists remotely
func DeleteDataset(project, id string, deleteContents bool, reason string) Change {
	return Change{
		Address:        common.DatasetAddress(project, id),
		Kind:           common.KindDataset,
		Name:           id,
		Project:        project,
		Action:         Delete,
		Reason:         reason,
		DeleteContents: deleteContents,
	}
}

func classify(fields []FieldChange) Action {
	if len(fields) == 0 {
		return NoOp
	}
	for _, f := range fields {
		if f.Field == "location" {
			return Replace
		}
	}
	return Update
}

func bucketFields(before, after resource.Bucket, all bool) []FieldChange {
	var fields []FieldChange
	add := func(name, b, a string, equal bool) {
		if all || !equal {
			fields = append(fields, FieldChange{Field: name, Before: b, After: a})
		}
	}

	add("location", before.Location, after.Location, strings.EqualFold(before.Location, after.Location))
	add("storage_class", before.StorageClass, after.StorageClass, strings.EqualFold(before.StorageClass, after.StorageClass))
	add("uniform_bucket_level_access", boolString(before.UniformBucketLevelAccess, all), strconv.FormatBool(after.UniformBucketLevelAccess),
		before.UniformBucketLevelAccess == after.UniformBucketLevelAccess)
	add("versioning", boolString(before.Versioning, all), strconv.FormatBool(after.Versioning), before.Versioning == after.Versioning)

	beforeRules, afterRules := rulesString(before.LifecycleRules), rulesString(after.LifecycleRules)
	add("lifecycle_rules", beforeRules, afterRules, beforeRules == afterRules)

	beforeLabels, afterLabels := labelsString(before.Labels), labelsString(after.Labels)
	add("labels", beforeLabels, afterLabels, beforeLabels == afterLabels)

	return fields
}

func datasetFields(before, after resource.Dataset, all bool) []FieldChange {
	var fields []FieldChange
	add := func(name, b, a string, equal bool) {
		if all || !equal {
			fields = append(fields, FieldChange{Field: name, Before: b, After: a})
		}
	}

	add("location", before.Location, after.Location, strings.EqualFold(before.Location, after.Location))
	add("friendly_name", before.FriendlyName, after.FriendlyName, before.FriendlyName == after.FriendlyName)
	add("description", before.Description, after.Description, before.Description == after.Description)
	add("default_table_expiration", durationString(before.DefaultTableExpiration, all), durationString(after.DefaultTableExpiration, false),
		before.DefaultTableExpiration == after.DefaultTableExpiration)

	beforeLabels, afterLabels := labelsString(before.Labels), labelsString(after.Labels)
	add("labels", beforeLabels, afterLabels, beforeLabels == afterLabels)

	return fields
}

// On creation there is no "before"; render it empty instead of a misleading false
func boolString(v, absent bool) string {
	if absent {
		return ""
	}
	return strconv.FormatBool(v)
}

func durationString(d time.Duration, absent bool) string {
	if absent {
		return ""
	}
	if d == 0 {
		return "never"
	}
	if d%(24*time.Hour) == 0 {
		return fmt.Sprintf("%dd", d/(24*time.Hour))
	}
	return d.String()
}

// Rule order carries no meaning remotely, so compare a sorted rendering
func rulesString(rules []resource.LifecycleRule) string {
	parts := make([]string, 0, len(rules))
	for _, r := range rules {
		parts = append(parts, r.String())
	}
	sort.Strings(parts)
	return strings.Join(parts, "; ")
}

// nil and empty label maps render identically
func labelsString(labels map[string]string) string {
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+labels[k])
	}
	return strings.Join(parts, ", ")
}
