package gcp

import (
	"fmt"
	"testing"
	"time"

	"lakehouse/pkg/common"
	"lakehouse/pkg/resource"

	"cloud.google.com/go/bigquery"
	monitoringpb "cloud.google.com/go/monitoring/apiv3/v2/monitoringpb"
	gcpstorage "cloud.google.com/go/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
)

func TestBucketAttrsRoundTrip(t *testing.T) {
	desired := resource.Bucket{
		Name:                     "taxi-rides-ny-landing",
		Location:                 "US",
		StorageClass:             "STANDARD",
		UniformBucketLevelAccess: true,
		Versioning:               true,
		Labels:                   map[string]string{"team": "data-eng"},
		LifecycleRules: []resource.LifecycleRule{
			{Action: "Delete", AgeDays: 30},
			{Action: "SetStorageClass", StorageClass: "COLDLINE", AgeDays: 90},
		},
	}

	attrs := toBucketAttrs(desired)
	assert.Equal(t, "US", attrs.Location)
	assert.True(t, attrs.UniformBucketLevelAccess.Enabled)
	require.Len(t, attrs.Lifecycle.Rules, 2)
	assert.Equal(t, gcpstorage.DeleteAction, attrs.Lifecycle.Rules[0].Action.Type)
	assert.Equal(t, int64(30), attrs.Lifecycle.Rules[0].Condition.AgeInDays)
	assert.Equal(t, "COLDLINE", attrs.Lifecycle.Rules[1].Action.StorageClass)

	// Simulate what the API hands back
	attrs.Name = desired.Name
	created := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	attrs.Created = created

	observed := mapBucketAttrs(attrs)
	assert.Equal(t, common.Google, observed.Provider)
	assert.Equal(t, desired.Name, observed.Name)
	assert.Equal(t, desired.LifecycleRules, observed.LifecycleRules)
	assert.Equal(t, desired.Labels, observed.Labels)
	assert.True(t, observed.Versioning)
	assert.Equal(t, created, observed.CreatedAt)
	assert.Equal(t, int64(-1), observed.UsageBytes)
}

func TestMapLifecycleRules_Empty(t *testing.T) {
	assert.Nil(t, mapLifecycleRules(nil))
	assert.Empty(t, toLifecycleRules(nil))
}

func TestDatasetMetadataRoundTrip(t *testing.T) {
	desired := resource.Dataset{
		ID:                     "trips_data_all",
		Project:                "taxi-rides-ny",
		Location:               "US",
		FriendlyName:           "Trips",
		Description:            "NY taxi trips",
		DefaultTableExpiration: 48 * time.Hour,
		Labels:                 map[string]string{"env": "dev"},
	}

	md := toDatasetMetadata(desired)
	assert.Equal(t, "Trips", md.Name)
	assert.Equal(t, 48*time.Hour, md.DefaultTableExpiration)

	observed := mapDatasetMetadata(&bigquery.DatasetMetadata{
		Name:                   md.Name,
		Description:            md.Description,
		Location:               md.Location,
		DefaultTableExpiration: md.DefaultTableExpiration,
		Labels:                 md.Labels,
	})
	assert.Equal(t, desired.FriendlyName, observed.FriendlyName)
	assert.Equal(t, desired.Description, observed.Description)
	assert.Equal(t, desired.Location, observed.Location)
	assert.Equal(t, desired.Labels, observed.Labels)
}

func TestLabelChanges(t *testing.T) {
	set, remove := labelChanges(
		map[string]string{"keep": "same", "change": "old", "drop": "x", "also-drop": "y"},
		map[string]string{"keep": "same", "change": "new", "add": "z"},
	)

	assert.Equal(t, map[string]string{"change": "new", "add": "z"}, set)
	assert.Equal(t, []string{"also-drop", "drop"}, remove)
}

func TestErrorClassification(t *testing.T) {
	notFound := fmt.Errorf("wrapped: %w", &googleapi.Error{Code: 404})
	conflict := &googleapi.Error{Code: 409}
	unavailable := &googleapi.Error{Code: 503}
	throttled := &googleapi.Error{Code: 429}

	assert.True(t, isNotFound(notFound))
	assert.False(t, isNotFound(conflict))
	assert.True(t, isConflict(conflict))
	assert.True(t, isTransient(unavailable))
	assert.True(t, isTransient(throttled))
	assert.False(t, isTransient(conflict))
	assert.False(t, isTransient(fmt.Errorf("plain")))
}

func TestExtractUsageValue(t *testing.T) {
	assert.Equal(t, int64(0), extractUsageValue(nil))
	assert.Equal(t, int64(42), extractUsageValue(&monitoringpb.TypedValue{
		Value: &monitoringpb.TypedValue_Int64Value{Int64Value: 42},
	}))
	assert.Equal(t, int64(11), extractUsageValue(&monitoringpb.TypedValue{
		Value: &monitoringpb.TypedValue_DoubleValue{DoubleValue: 10.6},
	}))
}

func TestUsageRequest(t *testing.T) {
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	req := usageRequest("taxi-rides-ny", "landing", now)

	assert.Equal(t, "projects/taxi-rides-ny", req.Name)
	assert.Contains(t, req.Filter, `resource.labels.bucket_name="landing"`)
	assert.Equal(t, now.Add(-metricTimeWindow).Unix(), req.Interval.StartTime.AsTime().Unix())
}
