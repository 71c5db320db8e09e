// File: pkg/resource/model.go
package resource

import (
	"fmt"
	"lakehouse/pkg/common"
	"time"
)

// Bucket is used both for the declared and the observed shape of a storage bucket
type Bucket struct {
	Name                     string
	Provider                 common.Provider
	Location                 string
	StorageClass             string
	UniformBucketLevelAccess bool
	Versioning               bool
	Labels                   map[string]string
	LifecycleRules           []LifecycleRule

	// Local to the descriptor, never sent to or read from the remote API
	ForceDestroy bool

	CreatedAt time.Time
	UpdatedAt time.Time
	// A value of -1 indicates that the usage is unknown or could not be retrieved
	UsageBytes int64
}

type LifecycleRule struct {
	Action string
	// Target class for SetStorageClass actions
	StorageClass string
	AgeDays      int
}

func (r LifecycleRule) String() string {
	if r.StorageClass != "" {
		return fmt.Sprintf("%s to %s after %dd", r.Action, r.StorageClass, r.AgeDays)
	}
	return fmt.Sprintf("%s after %dd", r.Action, r.AgeDays)
}

type Dataset struct {
	ID                     string
	Project                string
	Provider               common.Provider
	Location               string
	FriendlyName           string
	Description            string
	DefaultTableExpiration time.Duration
	Labels                 map[string]string

	// Local to the descriptor, never sent to or read from the remote API
	DeleteContentsOnDestroy bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

func FormatBytes(bytes int64) string {
	if bytes < 0 {
		return "N/A"
	}
	if bytes == 0 {
		return "0 B"
	}

	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}

	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}

	sizes := []string{"KB", "MB", "GB", "TB", "PB", "EB"}
	if exp >= len(sizes) {
		return fmt.Sprintf("%d B", bytes)
	}
	return fmt.Sprintf("%.1f %s", float64(bytes)/float64(div), sizes[exp])
}
