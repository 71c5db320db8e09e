// File: internal/plan/plan.go

// Package plan computes the changes needed to move the observed remote
// resources to the state declared in a descriptor.
package plan

import (
	"sort"

	"lakehouse/pkg/common"
	"lakehouse/pkg/resource"
)

type Action string

const (
	NoOp    Action = "no-op"
	Create  Action = "create"
	Update  Action = "update"
	Replace Action = "replace"
	Delete  Action = "delete"
)

type FieldChange struct {
	Field  string
	Before string
	After  string
}

type Change struct {
	Address string
	Kind    common.ResourceKind
	// Bucket name or dataset id
	Name string
	// Owning project, datasets only
	Project string
	Action  Action
	Fields  []FieldChange
	Reason  string

	// Desired shape; nil for deletions
	Bucket  *resource.Bucket
	Dataset *resource.Dataset

	// Flags honoured when the change removes the remote resource
	ForceDestroy   bool
	DeleteContents bool
}

func (c Change) IsNoOp() bool {
	return c.Action == NoOp
}

type Plan struct {
	Project string
	Destroy bool
	Changes []Change
}

type Summary struct {
	Add     int
	Change  int
	Destroy int
}

// Sort orders changes by address so the same inputs always render the same plan
func (p *Plan) Sort() {
	sort.SliceStable(p.Changes, func(i, j int) bool {
		return p.Changes[i].Address < p.Changes[j].Address
	})
}

func (p *Plan) HasChanges() bool {
	return len(p.Pending()) > 0
}

// Pending returns the changes that require an API call
func (p *Plan) Pending() []Change {
	var out []Change
	for _, c := range p.Changes {
		if !c.IsNoOp() {
			out = append(out, c)
		}
	}
	return out
}

// Summary counts a replace as one addition and one destruction
func (p *Plan) Summary() Summary {
	var s Summary
	for _, c := range p.Changes {
		switch c.Action {
		case Create:
			s.Add++
		case Update:
			s.Change++
		case Replace:
			s.Add++
			s.Destroy++
		case Delete:
			s.Destroy++
		}
	}
	return s
}
