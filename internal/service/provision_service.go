// File: internal/service/provision_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"lakehouse/internal/descriptor"
	"lakehouse/internal/plan"
	"lakehouse/internal/state"
	"lakehouse/pkg/common"
	"lakehouse/pkg/resource"

	"golang.org/x/sync/errgroup"
)

const (
	DefaultParallelism = 4
	reasonUndeclared   = "no longer declared in the descriptor"

	// Upper bound for the final state write once the command context is gone
	stateSaveTimeout = 30 * time.Second
)

// ProviderSource hands out initialized provider clients; *factory.Factory satisfies it
type ProviderSource interface {
	GetProvider(ctx context.Context, block descriptor.ProviderBlock) (resource.Provider, error)
}

type ProvisionService struct {
	providers   ProviderSource
	backend     state.Backend
	parallelism int
	logger      *slog.Logger
	now         func() time.Time
}

func NewProvisionService(providers ProviderSource, backend state.Backend, parallelism int, logger *slog.Logger) *ProvisionService {
	if parallelism <= 0 {
		parallelism = DefaultParallelism
	}
	return &ProvisionService{
		providers:   providers,
		backend:     backend,
		parallelism: parallelism,
		logger:      logger.With("service", "ProvisionService"),
		now:         time.Now,
	}
}

// Outcome is the result of executing one planned change
type Outcome struct {
	Change   plan.Change
	Err      error
	Duration time.Duration
	// Whether the resource exists remotely once the change was attempted
	exists bool
}

type ApplyResult struct {
	Outcomes []Outcome
	State    *state.State
}

func (r *ApplyResult) Failed() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if o.Err != nil {
			out = append(out, o)
		}
	}
	return out
}

// ResourceStatus describes a declared resource as it currently exists remotely
type ResourceStatus struct {
	Address string
	Kind    common.ResourceKind
	Exists  bool
	Managed bool
	Bucket  *resource.Bucket
	Dataset *resource.Dataset
}

// --- Planning ---

// Plan refreshes every declared and previously applied resource and diffs it against the descriptor
func (s *ProvisionService) Plan(ctx context.Context, d *descriptor.Descriptor) (*plan.Plan, error) {
	s.logger.Debug("Starting Plan operation", "project", d.Provider.Project)

	client, err := s.getClient(ctx, d)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	st, err := s.loadState(ctx)
	if err != nil {
		return nil, err
	}

	return s.buildPlan(ctx, client, d, st)
}

// PlanDestroy plans the deletion of every declared or recorded resource that still exists
func (s *ProvisionService) PlanDestroy(ctx context.Context, d *descriptor.Descriptor) (*plan.Plan, error) {
	s.logger.Debug("Starting PlanDestroy operation", "project", d.Provider.Project)

	client, err := s.getClient(ctx, d)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	st, err := s.loadState(ctx)
	if err != nil {
		return nil, err
	}

	candidates := make(map[string]plan.Change)
	for _, b := range d.DesiredBuckets() {
		candidates[common.Address(common.KindBucket, b.Name)] = plan.DeleteBucket(b.Name, b.ForceDestroy, "")
	}
	for _, ds := range d.DesiredDatasets() {
		candidates[common.DatasetAddress(ds.Project, ds.ID)] = plan.DeleteDataset(ds.Project, ds.ID, ds.DeleteContentsOnDestroy, "")
	}
	for _, rec := range st.Resources {
		if _, declared := candidates[rec.Address()]; declared {
			continue
		}
		candidates[rec.Address()] = deletionFor(rec, reasonUndeclared)
	}

	changes := make([]plan.Change, 0, len(candidates))
	for _, c := range candidates {
		changes = append(changes, c)
	}

	present := make([]bool, len(changes))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(s.parallelism)
	for i, c := range changes {
		eg.Go(func() error {
			exists, err := s.exists(egCtx, client, c.Kind, c.Project, c.Name)
			present[i] = exists
			return err
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	p := &plan.Plan{Project: d.Provider.Project, Destroy: true}
	for i, c := range changes {
		if present[i] {
			p.Changes = append(p.Changes, c)
		}
	}
	p.Sort()
	return p, nil
}

func (s *ProvisionService) buildPlan(ctx context.Context, client resource.Provider, d *descriptor.Descriptor, st *state.State) (*plan.Plan, error) {
	buckets := d.DesiredBuckets()
	datasets := d.DesiredDatasets()

	declared := make(map[string]bool)
	for _, b := range buckets {
		declared[common.Address(common.KindBucket, b.Name)] = true
	}
	for _, ds := range datasets {
		declared[common.DatasetAddress(ds.Project, ds.ID)] = true
	}

	var orphans []state.Record
	for _, rec := range st.Resources {
		if !declared[rec.Address()] {
			orphans = append(orphans, rec)
		}
	}

	bucketChanges := make([]plan.Change, len(buckets))
	datasetChanges := make([]plan.Change, len(datasets))
	orphanChanges := make([]*plan.Change, len(orphans))

	// Refresh is read-only, so the first failure cancels the rest
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(s.parallelism)

	for i, desired := range buckets {
		eg.Go(func() error {
			observed, err := client.GetBucket(egCtx, desired.Name)
			if err != nil && !errors.Is(err, resource.ErrNotFound) {
				return fmt.Errorf("refreshing bucket %s: %w", desired.Name, err)
			}
			var obs *resource.Bucket
			if err == nil {
				obs = &observed
			}
			bucketChanges[i] = plan.DiffBucket(desired, obs)
			return nil
		})
	}

	for i, desired := range datasets {
		eg.Go(func() error {
			observed, err := client.GetDataset(egCtx, desired.Project, desired.ID)
			if err != nil && !errors.Is(err, resource.ErrNotFound) {
				return fmt.Errorf("refreshing dataset %s: %w", desired.ID, err)
			}
			var obs *resource.Dataset
			if err == nil {
				obs = &observed
			}
			datasetChanges[i] = plan.DiffDataset(desired, obs)
			return nil
		})
	}

	for i, rec := range orphans {
		eg.Go(func() error {
			exists, err := s.exists(egCtx, client, rec.Kind, rec.Project, rec.Name)
			if err != nil {
				return err
			}
			if exists {
				c := deletionFor(rec, reasonUndeclared)
				orphanChanges[i] = &c
			}
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	p := &plan.Plan{Project: d.Provider.Project}
	p.Changes = append(p.Changes, bucketChanges...)
	p.Changes = append(p.Changes, datasetChanges...)
	for _, c := range orphanChanges {
		if c != nil {
			p.Changes = append(p.Changes, *c)
		}
	}
	p.Sort()
	return p, nil
}

func (s *ProvisionService) exists(ctx context.Context, client resource.Provider, kind common.ResourceKind, project, name string) (bool, error) {
	var err error
	address := common.Address(kind, name)
	switch kind {
	case common.KindBucket:
		_, err = client.GetBucket(ctx, name)
	case common.KindDataset:
		address = common.DatasetAddress(project, name)
		_, err = client.GetDataset(ctx, project, name)
	default:
		return false, fmt.Errorf("unknown resource kind %q", kind)
	}

	if errors.Is(err, resource.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("refreshing %s: %w", address, err)
	}
	return true, nil
}

func deletionFor(rec state.Record, reason string) plan.Change {
	if rec.Kind == common.KindDataset {
		return plan.DeleteDataset(rec.Project, rec.Name, rec.DeleteContents, reason)
	}
	return plan.DeleteBucket(rec.Name, rec.ForceDestroy, reason)
}

// --- Applying ---

// Apply executes every pending change in p. Changes run concurrently up to the
// configured parallelism; a failing change does not stop the others. State is
// saved with whatever succeeded and every failure is returned.
func (s *ProvisionService) Apply(ctx context.Context, d *descriptor.Descriptor, p *plan.Plan) (*ApplyResult, error) {
	pending := p.Pending()
	s.logger.Debug("Starting Apply operation", "project", p.Project, "changes", len(pending), "destroy", p.Destroy)

	client, err := s.getClient(ctx, d)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	st, err := s.loadState(ctx)
	if err != nil {
		return nil, err
	}

	outcomes := make([]Outcome, len(pending))
	var eg errgroup.Group
	eg.SetLimit(s.parallelism)

	for i, c := range pending {
		eg.Go(func() error {
			start := s.now()
			s.logger.Info("Applying change", "address", c.Address, "action", c.Action)

			exists, err := s.execute(ctx, client, c)
			outcomes[i] = Outcome{Change: c, Err: err, Duration: time.Since(start), exists: exists}

			if err != nil {
				s.logger.Error("Change failed", "address", c.Address, "action", c.Action, "error", err)
			}
			return nil
		})
	}
	_ = eg.Wait()

	result := &ApplyResult{Outcomes: outcomes, State: st}
	s.recordOutcomes(st, d, p, outcomes)

	var errs []error
	for _, o := range result.Failed() {
		errs = append(errs, fmt.Errorf("%s (%s): %w", o.Change.Address, o.Change.Action, o.Err))
	}

	// Interrupted applies still record what was already changed remotely
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), stateSaveTimeout)
	defer cancel()
	if err := s.backend.Save(saveCtx, st); err != nil {
		errs = append(errs, fmt.Errorf("saving state to %s: %w", s.backend.Describe(), err))
	}

	if len(errs) > 0 {
		return result, fmt.Errorf("apply finished with %d error(s):\n%w", len(errs), errors.Join(errs...))
	}
	return result, nil
}

func (s *ProvisionService) execute(ctx context.Context, client resource.Provider, c plan.Change) (bool, error) {
	switch c.Kind {
	case common.KindBucket:
		return s.executeBucket(ctx, client, c)
	case common.KindDataset:
		return s.executeDataset(ctx, client, c)
	default:
		return false, fmt.Errorf("unknown resource kind %q", c.Kind)
	}
}

func (s *ProvisionService) executeBucket(ctx context.Context, client resource.Provider, c plan.Change) (bool, error) {
	switch c.Action {
	case plan.Create:
		err := client.CreateBucket(ctx, *c.Bucket)
		return err == nil, err
	case plan.Update:
		return true, client.UpdateBucket(ctx, *c.Bucket)
	case plan.Replace:
		if err := ignoreNotFound(client.DeleteBucket(ctx, c.Name, c.ForceDestroy)); err != nil {
			return true, fmt.Errorf("removing old bucket: %w", err)
		}
		err := client.CreateBucket(ctx, *c.Bucket)
		return err == nil, err
	case plan.Delete:
		err := ignoreNotFound(client.DeleteBucket(ctx, c.Name, c.ForceDestroy))
		return err != nil, err
	default:
		return false, fmt.Errorf("unexpected action %q", c.Action)
	}
}

func (s *ProvisionService) executeDataset(ctx context.Context, client resource.Provider, c plan.Change) (bool, error) {
	switch c.Action {
	case plan.Create:
		err := client.CreateDataset(ctx, *c.Dataset)
		return err == nil, err
	case plan.Update:
		return true, client.UpdateDataset(ctx, *c.Dataset)
	case plan.Replace:
		if err := ignoreNotFound(client.DeleteDataset(ctx, c.Project, c.Name, c.DeleteContents)); err != nil {
			return true, fmt.Errorf("removing old dataset: %w", err)
		}
		err := client.CreateDataset(ctx, *c.Dataset)
		return err == nil, err
	case plan.Delete:
		err := ignoreNotFound(client.DeleteDataset(ctx, c.Project, c.Name, c.DeleteContents))
		return err != nil, err
	default:
		return false, fmt.Errorf("unexpected action %q", c.Action)
	}
}

func ignoreNotFound(err error) error {
	if errors.Is(err, resource.ErrNotFound) {
		return nil
	}
	return err
}

// recordOutcomes brings the state in line with what now exists remotely
func (s *ProvisionService) recordOutcomes(st *state.State, d *descriptor.Descriptor, p *plan.Plan, outcomes []Outcome) {
	now := s.now().UTC()

	touched := make(map[string]bool)
	for _, o := range outcomes {
		touched[o.Change.Address] = true
		if o.exists {
			rec := recordFor(o.Change, now)
			if prev, ok := st.Get(rec.Address()); ok {
				if o.Err != nil {
					rec.AppliedAt = prev.AppliedAt
				}
				if rec.Location == "" {
					rec.Location = prev.Location
				}
			}
			st.Put(rec)
		} else {
			st.Remove(o.Change.Address)
		}
	}

	if !p.Destroy {
		// Declared resources that already matched are owned from now on
		for _, c := range p.Changes {
			if c.IsNoOp() && !touched[c.Address] {
				rec := recordFor(c, now)
				if prev, ok := st.Get(rec.Address()); ok {
					rec.AppliedAt = prev.AppliedAt
				}
				st.Put(rec)
				touched[c.Address] = true
			}
		}

		// Recorded resources that are neither declared nor planned have vanished remotely
		for _, rec := range append([]state.Record(nil), st.Resources...) {
			if !touched[rec.Address()] {
				s.logger.Debug("Dropping stale state record", "address", rec.Address())
				st.Remove(rec.Address())
			}
		}

		st.Provider = d.Provider.Name
		st.ProviderVersion = d.Provider.Version
		st.Project = d.Provider.Project
		if fp, err := descriptor.Fingerprint(d); err == nil {
			st.DescriptorFingerprint = fp
		}
	} else if len(st.Resources) == 0 {
		st.DescriptorFingerprint = ""
	}
}

func recordFor(c plan.Change, appliedAt time.Time) state.Record {
	rec := state.Record{
		Kind:           c.Kind,
		Name:           c.Name,
		Project:        c.Project,
		ForceDestroy:   c.ForceDestroy,
		DeleteContents: c.DeleteContents,
		AppliedAt:      appliedAt,
	}
	if c.Bucket != nil {
		rec.Location = c.Bucket.Location
	}
	if c.Dataset != nil {
		rec.Location = c.Dataset.Location
	}
	return rec
}

// --- Inspection ---

// Show reports the remote status of every declared resource, including bucket usage
func (s *ProvisionService) Show(ctx context.Context, d *descriptor.Descriptor) ([]ResourceStatus, error) {
	s.logger.Debug("Starting Show operation", "project", d.Provider.Project)

	client, err := s.getClient(ctx, d)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	st, err := s.loadState(ctx)
	if err != nil {
		return nil, err
	}

	buckets := d.DesiredBuckets()
	datasets := d.DesiredDatasets()
	statuses := make([]ResourceStatus, len(buckets)+len(datasets))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(s.parallelism)

	for i, desired := range buckets {
		eg.Go(func() error {
			status := ResourceStatus{Address: common.Address(common.KindBucket, desired.Name), Kind: common.KindBucket}
			_, status.Managed = st.Get(status.Address)

			observed, err := client.GetBucket(egCtx, desired.Name)
			if err != nil && !errors.Is(err, resource.ErrNotFound) {
				return fmt.Errorf("describing bucket %s: %w", desired.Name, err)
			}
			if err == nil {
				usage, err := client.BucketUsage(egCtx, desired.Name)
				if err != nil {
					s.logger.Warn("Failed to retrieve usage metrics, usage will be reported as N/A", "bucket", desired.Name, "error", err)
					usage = -1
				}
				observed.UsageBytes = usage
				status.Exists = true
				status.Bucket = &observed
			}
			statuses[i] = status
			return nil
		})
	}

	for i, desired := range datasets {
		eg.Go(func() error {
			status := ResourceStatus{Address: common.DatasetAddress(desired.Project, desired.ID), Kind: common.KindDataset}
			_, status.Managed = st.Get(status.Address)

			observed, err := client.GetDataset(egCtx, desired.Project, desired.ID)
			if err != nil && !errors.Is(err, resource.ErrNotFound) {
				return fmt.Errorf("describing dataset %s: %w", desired.ID, err)
			}
			if err == nil {
				status.Exists = true
				status.Dataset = &observed
			}
			statuses[len(buckets)+i] = status
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return statuses, nil
}

// Helper to initialize the provider client and handle common error logging
func (s *ProvisionService) getClient(ctx context.Context, d *descriptor.Descriptor) (resource.Provider, error) {
	client, err := s.providers.GetProvider(ctx, d.Provider)
	if err != nil {
		s.logger.Error("Failed to initialize provider", "provider", d.Provider.Name, "error", err)
		return nil, fmt.Errorf("error initializing provider: %w", err)
	}
	return client, nil
}

func (s *ProvisionService) loadState(ctx context.Context) (*state.State, error) {
	st, err := s.backend.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("error loading state from %s: %w", s.backend.Describe(), err)
	}
	return st, nil
}
