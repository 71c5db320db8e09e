// File: pkg/formatter/plan_formatter.go
package formatter

import (
	"fmt"
	"strings"

	"lakehouse/internal/plan"
	"lakehouse/pkg/common"

	"github.com/charmbracelet/lipgloss"
)

var (
	colorGreen  = lipgloss.Color("#22c55e")
	colorRed    = lipgloss.Color("#ef4444")
	colorYellow = lipgloss.Color("#eab308")
	colorPurple = lipgloss.Color("#a855f7")
	colorDim    = lipgloss.Color("#6b7280")

	createStyle  = lipgloss.NewStyle().Foreground(colorGreen)
	updateStyle  = lipgloss.NewStyle().Foreground(colorYellow)
	replaceStyle = lipgloss.NewStyle().Foreground(colorPurple)
	deleteStyle  = lipgloss.NewStyle().Foreground(colorRed)
	mutedStyle   = lipgloss.NewStyle().Foreground(colorDim)
)

type PlanFormatter struct{}

func NewPlanFormatter() *PlanFormatter {
	return &PlanFormatter{}
}

func symbol(a plan.Action) string {
	switch a {
	case plan.Create:
		return createStyle.Render("+")
	case plan.Update:
		return updateStyle.Render("~")
	case plan.Replace:
		return replaceStyle.Render("-/+")
	case plan.Delete:
		return deleteStyle.Render("-")
	default:
		return " "
	}
}

// FormatPlan renders every pending change with its field-level differences
func (f *PlanFormatter) FormatPlan(p *plan.Plan) string {
	if !p.HasChanges() {
		return "No changes. Remote resources match the descriptor.\n"
	}

	var sb strings.Builder
	sb.WriteString(FormatSectionTitle("Plan for project " + p.Project))
	sb.WriteString("\n\n")

	for _, c := range p.Pending() {
		fmt.Fprintf(&sb, "  %s %s", symbol(c.Action), c.Address)
		if c.Reason != "" {
			sb.WriteString(mutedStyle.Render(" (" + c.Reason + ")"))
		}
		sb.WriteString("\n")

		width := 0
		for _, fc := range c.Fields {
			width = max(width, len(fc.Field))
		}
		for _, fc := range c.Fields {
			fmt.Fprintf(&sb, "      %-*s  %s\n", width, fc.Field, f.fieldValue(c.Action, fc))
		}
		if c.Action == plan.Delete && c.Kind == common.KindBucket && c.ForceDestroy {
			sb.WriteString(mutedStyle.Render("      all objects will be deleted (force_destroy)"))
			sb.WriteString("\n")
		}
		if c.Action == plan.Delete && c.Kind == common.KindDataset && c.DeleteContents {
			sb.WriteString(mutedStyle.Render("      all tables will be deleted (delete_contents_on_destroy)"))
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	sb.WriteString(f.FormatSummary(p.Summary()))
	sb.WriteString("\n")
	return sb.String()
}

func (f *PlanFormatter) fieldValue(a plan.Action, fc plan.FieldChange) string {
	if a == plan.Create {
		return fc.After
	}
	return fmt.Sprintf("%s -> %s", quote(fc.Before), quote(fc.After))
}

func quote(s string) string {
	if s == "" {
		return `""`
	}
	return s
}

func (f *PlanFormatter) FormatSummary(s plan.Summary) string {
	return fmt.Sprintf("Plan: %d to add, %d to change, %d to destroy.", s.Add, s.Change, s.Destroy)
}
