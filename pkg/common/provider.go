// File: pkg/common/provider.go
package common

type Provider string

const (
	Google Provider = "google"
)

// Identifies which of the two declarable resource types a record refers to
type ResourceKind string

const (
	KindBucket  ResourceKind = "bucket"
	KindDataset ResourceKind = "dataset"
)

// Returns the stable address used in plans and state, e.g. "bucket/my-landing-zone"
func Address(kind ResourceKind, name string) string {
	return string(kind) + "/" + name
}

// Dataset ids are only unique within a project, e.g. "dataset/my-project.trips"
func DatasetAddress(project, id string) string {
	return Address(KindDataset, project+"."+id)
}
