package plan

import (
	"testing"
	"time"

	"lakehouse/pkg/common"
	"lakehouse/pkg/resource"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func desiredBucket() resource.Bucket {
	return resource.Bucket{
		Name:                     "landing",
		Location:                 "US",
		StorageClass:             "STANDARD",
		UniformBucketLevelAccess: true,
		Versioning:               true,
		Labels:                   map[string]string{"team": "data"},
		LifecycleRules: []resource.LifecycleRule{
			{Action: "Delete", AgeDays: 30},
			{Action: "AbortIncompleteMultipartUpload", AgeDays: 1},
		},
		ForceDestroy: true,
	}
}

func fieldNames(c Change) []string {
	var names []string
	for _, f := range c.Fields {
		names = append(names, f.Field)
	}
	return names
}

func TestDiffBucket(t *testing.T) {
	tests := []struct {
		name       string
		observe    func() *resource.Bucket
		wantAction Action
		wantFields []string
	}{
		{
			name:       "missing bucket is created",
			observe:    func() *resource.Bucket { return nil },
			wantAction: Create,
			wantFields: []string{"location", "storage_class", "uniform_bucket_level_access", "versioning", "lifecycle_rules", "labels"},
		},
		{
			name: "identical bucket is a no-op",
			observe: func() *resource.Bucket {
				b := desiredBucket()
				b.ForceDestroy = false
				return &b
			},
			wantAction: NoOp,
		},
		{
			name: "location casing is ignored",
			observe: func() *resource.Bucket {
				b := desiredBucket()
				b.Location = "us"
				return &b
			},
			wantAction: NoOp,
		},
		{
			name: "lifecycle order is ignored",
			observe: func() *resource.Bucket {
				b := desiredBucket()
				b.LifecycleRules = []resource.LifecycleRule{b.LifecycleRules[1], b.LifecycleRules[0]}
				return &b
			},
			wantAction: NoOp,
		},
		{
			name: "missing labels are an update",
			observe: func() *resource.Bucket {
				b := desiredBucket()
				b.Labels = nil
				return &b
			},
			wantAction: Update,
			wantFields: []string{"labels"},
		},
		{
			name: "versioning drift is an update",
			observe: func() *resource.Bucket {
				b := desiredBucket()
				b.Versioning = false
				return &b
			},
			wantAction: Update,
			wantFields: []string{"versioning"},
		},
		{
			name: "lifecycle age change is an update",
			observe: func() *resource.Bucket {
				b := desiredBucket()
				b.LifecycleRules = []resource.LifecycleRule{{Action: "Delete", AgeDays: 7}, b.LifecycleRules[1]}
				return &b
			},
			wantAction: Update,
			wantFields: []string{"lifecycle_rules"},
		},
		{
			name: "location change forces replacement",
			observe: func() *resource.Bucket {
				b := desiredBucket()
				b.Location = "EU"
				b.StorageClass = "NEARLINE"
				return &b
			},
			wantAction: Replace,
			wantFields: []string{"location", "storage_class"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DiffBucket(desiredBucket(), tt.observe())
			assert.Equal(t, tt.wantAction, c.Action)
			assert.Equal(t, tt.wantFields, fieldNames(c))
			assert.Equal(t, "bucket/landing", c.Address)
			assert.Equal(t, common.KindBucket, c.Kind)
			assert.True(t, c.ForceDestroy)
			require.NotNil(t, c.Bucket)
		})
	}
}

func TestDiffBucket_EmptyLabelsVsNil(t *testing.T) {
	desired := desiredBucket()
	desired.Labels = nil
	observed := desiredBucket()
	observed.Labels = map[string]string{}

	assert.Equal(t, NoOp, DiffBucket(desired, &observed).Action)
}

func TestDiffBucket_CreateFieldsHaveNoBefore(t *testing.T) {
	c := DiffBucket(desiredBucket(), nil)
	for _, f := range c.Fields {
		assert.Empty(t, f.Before, f.Field)
	}
}

func TestDiffDataset(t *testing.T) {
	desired := resource.Dataset{
		ID:                      "trips_data_all",
		Project:                 "taxi",
		Location:                "US",
		Description:             "trips",
		DefaultTableExpiration:  48 * time.Hour,
		DeleteContentsOnDestroy: true,
	}

	created := DiffDataset(desired, nil)
	assert.Equal(t, Create, created.Action)
	assert.Equal(t, "dataset/taxi.trips_data_all", created.Address)
	assert.Equal(t, "taxi", created.Project)
	assert.True(t, created.DeleteContents)

	same := desired
	same.DeleteContentsOnDestroy = false
	assert.Equal(t, NoOp, DiffDataset(desired, &same).Action)

	drifted := desired
	drifted.DefaultTableExpiration = 0
	c := DiffDataset(desired, &drifted)
	assert.Equal(t, Update, c.Action)
	require.Len(t, c.Fields, 1)
	assert.Equal(t, FieldChange{Field: "default_table_expiration", Before: "never", After: "2d"}, c.Fields[0])

	moved := desired
	moved.Location = "EU"
	assert.Equal(t, Replace, DiffDataset(desired, &moved).Action)
}

func TestPlanSummaryAndOrdering(t *testing.T) {
	p := &Plan{Changes: []Change{
		{Address: "dataset/b", Action: Replace},
		{Address: "bucket/z", Action: NoOp},
		{Address: "bucket/a", Action: Create},
		{Address: "dataset/a", Action: Update},
		{Address: "bucket/old", Action: Delete},
	}}
	p.Sort()

	var addrs []string
	for _, c := range p.Changes {
		addrs = append(addrs, c.Address)
	}
	assert.Equal(t, []string{"bucket/a", "bucket/old", "bucket/z", "dataset/a", "dataset/b"}, addrs)

	assert.Equal(t, Summary{Add: 2, Change: 1, Destroy: 2}, p.Summary())
	assert.True(t, p.HasChanges())
	assert.Len(t, p.Pending(), 4)

	empty := &Plan{Changes: []Change{{Address: "bucket/z", Action: NoOp}}}
	assert.False(t, empty.HasChanges())
	assert.Equal(t, Summary{}, empty.Summary())
}

func TestDeleteChanges(t *testing.T) {
	b := DeleteBucket("old", true, "no longer declared")
	assert.Equal(t, Delete, b.Action)
	assert.True(t, b.ForceDestroy)
	assert.Nil(t, b.Bucket)

	d := DeleteDataset("taxi", "old_ds", false, "")
	assert.Equal(t, "dataset/taxi.old_ds", d.Address)
	assert.False(t, d.DeleteContents)
}
