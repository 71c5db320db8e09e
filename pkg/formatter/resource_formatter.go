// File: pkg/formatter/resource_formatter.go
package formatter

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"lakehouse/internal/plan"
	"lakehouse/internal/service"
	"lakehouse/internal/state"
	"lakehouse/pkg/resource"
)

type ResourceFormatter struct{}

func NewResourceFormatter() *ResourceFormatter {
	return &ResourceFormatter{}
}

func statusLabel(s service.ResourceStatus) string {
	switch {
	case !s.Exists:
		return deleteStyle.Render("missing")
	case s.Managed:
		return createStyle.Render("managed")
	default:
		return updateStyle.Render("unmanaged")
	}
}

// FormatStatusList renders one row per declared resource
func (f *ResourceFormatter) FormatStatusList(statuses []service.ResourceStatus) string {
	table := NewTable([]string{"ADDRESS", "STATUS", "LOCATION", "USAGE", "CREATED"})

	for _, s := range statuses {
		location, usage, created := "-", "-", "-"
		switch {
		case s.Bucket != nil:
			location = s.Bucket.Location
			usage = resource.FormatBytes(s.Bucket.UsageBytes)
			created = s.Bucket.CreatedAt.Format("2006-01-02")
		case s.Dataset != nil:
			location = s.Dataset.Location
			created = s.Dataset.CreatedAt.Format("2006-01-02")
		}
		table.AddRow([]string{s.Address, statusLabel(s), location, usage, created})
	}

	return table.String()
}

func (f *ResourceFormatter) FormatBucketDetails(bucket resource.Bucket) string {
	var result string

	result += FormatHeaderSection("Bucket: " + bucket.Name)
	result += "\n\n"

	result += FormatSectionTitle("Overview")
	result += "\n"

	overviewTable := NewTable([]string{"Parameter", "Value"})

	details := []struct {
		Key   string
		Value string
	}{
		{"Provider", string(bucket.Provider)},
		{"Location / Region", bucket.Location},
		{"Storage Class", bucket.StorageClass},
		{"Uniform Access", fmt.Sprintf("%t", bucket.UniformBucketLevelAccess)},
		{"Versioning", fmt.Sprintf("%t", bucket.Versioning)},
		{"Usage", resource.FormatBytes(bucket.UsageBytes)},
		{"Created On", bucket.CreatedAt.Format(time.RFC1123)},
		{"Updated On", bucket.UpdatedAt.Format(time.RFC1123)},
	}

	for _, detail := range details {
		overviewTable.AddRow([]string{detail.Key, detail.Value})
	}

	result += overviewTable.String()
	result += "\n\n"

	if len(bucket.LifecycleRules) > 0 {
		result += FormatSectionTitle("Lifecycle Rules")
		result += "\n"
		rulesTable := NewTable([]string{"Action", "Storage Class", "Age (days)"})
		for _, r := range bucket.LifecycleRules {
			class := r.StorageClass
			if class == "" {
				class = "-"
			}
			rulesTable.AddRow([]string{r.Action, class, fmt.Sprintf("%d", r.AgeDays)})
		}
		result += rulesTable.String()
		result += "\n\n"
	}

	result += formatLabels(bucket.Labels)
	return result
}

func (f *ResourceFormatter) FormatDatasetDetails(ds resource.Dataset) string {
	var result string

	result += FormatHeaderSection("Dataset: " + ds.Project + "." + ds.ID)
	result += "\n\n"

	result += FormatSectionTitle("Overview")
	result += "\n"

	expiration := "never"
	if ds.DefaultTableExpiration > 0 {
		expiration = fmt.Sprintf("%d days", int(ds.DefaultTableExpiration.Hours()/24))
	}

	overviewTable := NewTable([]string{"Parameter", "Value"})
	overviewTable.AddRow([]string{"Provider", string(ds.Provider)})
	overviewTable.AddRow([]string{"Location", ds.Location})
	if ds.FriendlyName != "" {
		overviewTable.AddRow([]string{"Friendly Name", ds.FriendlyName})
	}
	if ds.Description != "" {
		overviewTable.AddRow([]string{"Description", ds.Description})
	}
	overviewTable.AddRow([]string{"Table Expiration", expiration})
	overviewTable.AddRow([]string{"Created On", ds.CreatedAt.Format(time.RFC1123)})
	overviewTable.AddRow([]string{"Updated On", ds.UpdatedAt.Format(time.RFC1123)})

	result += overviewTable.String()
	result += "\n\n"

	result += formatLabels(ds.Labels)
	return result
}

func formatLabels(labels map[string]string) string {
	if len(labels) == 0 {
		return ""
	}

	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	labelsTable := NewTable([]string{"Key", "Value"})
	for _, k := range keys {
		labelsTable.AddRow([]string{k, labels[k]})
	}
	return FormatSectionTitle("Labels") + "\n" + labelsTable.String() + "\n\n"
}

// FormatState lists the resources recorded in state
func (f *ResourceFormatter) FormatState(st *state.State) string {
	if len(st.Resources) == 0 {
		return "No resources recorded in state.\n"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Serial %d, project %s", st.Serial, st.Project)
	if st.ProviderVersion != "" {
		fmt.Fprintf(&sb, ", provider %s %s", st.Provider, st.ProviderVersion)
	}
	sb.WriteString("\n")

	table := NewTable([]string{"ADDRESS", "LOCATION", "APPLIED"})
	for _, r := range st.Resources {
		table.AddRow([]string{r.Address(), r.Location, r.AppliedAt.Format(time.RFC3339)})
	}
	sb.WriteString(table.String())
	sb.WriteString("\n")
	return sb.String()
}

// FormatApplyResult summarises what an apply actually did
func (f *ResourceFormatter) FormatApplyResult(result *service.ApplyResult) string {
	var added, changed, destroyed, failed int
	for _, o := range result.Outcomes {
		if o.Err != nil {
			failed++
			continue
		}
		switch o.Change.Action {
		case plan.Create:
			added++
		case plan.Update:
			changed++
		case plan.Replace:
			added++
			destroyed++
		case plan.Delete:
			destroyed++
		}
	}

	if failed > 0 {
		return fmt.Sprintf("Apply incomplete: %d added, %d changed, %d destroyed, %d failed.", added, changed, destroyed, failed)
	}
	return fmt.Sprintf("Apply complete! Resources: %d added, %d changed, %d destroyed.", added, changed, destroyed)
}
