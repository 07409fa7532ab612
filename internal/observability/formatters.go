// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/partpicker/internal/picker"
	"github.com/jonathan/partpicker/internal/pipeline"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 72
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 10
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines; descriptions carry multi-byte symbols like Ω and ±
		if utf8.RuneCountInString(line) > boxWidth-4 {
			line = string([]rune(line)[:boxWidth-7]) + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintPlan outputs the catalog query and attribute stages planned for one component.
func (p *Printer) PrintPlan(plan *picker.Plan) {
	if plan == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Family:      %s\n", plan.Family))
	if plan.Designator != "" {
		sb.WriteString(fmt.Sprintf("Designator:  %s\n", plan.Designator))
	}
	if len(plan.Categories) > 0 {
		sb.WriteString("Categories:\n")
		for _, c := range plan.Categories {
			sb.WriteString(fmt.Sprintf("  • %s / %s\n", c.Category, c.Subcategory))
		}
	}
	sb.WriteString(fmt.Sprintf("Stock floor: > %d\n", plan.StockFloor))

	sb.WriteString("\nQuery:\n")
	for _, clause := range plan.Predicate {
		sb.WriteString(fmt.Sprintf("  %s\n", clause))
	}

	if len(plan.Stages) > 0 {
		sb.WriteString("\nAttribute stages:\n")
		for i, s := range plan.Stages {
			sb.WriteString(fmt.Sprintf("  %d. %s %s\n", i+1, s.Attribute, s.Rule))
		}
	}

	p.printBox("RESOLUTION PLAN", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintSelection outputs the picked part and the candidate counts that led to it.
func (p *Printer) PrintSelection(sel *picker.Selection) {
	if sel == nil {
		return
	}

	var sb strings.Builder
	if sel.Designator != "" {
		sb.WriteString(fmt.Sprintf("Designator: %s\n", sel.Designator))
	}
	sb.WriteString(fmt.Sprintf("Part:       %s (%s)\n", sel.PartID, sel.ManufacturerPartNumber))
	sb.WriteString(fmt.Sprintf("Package:    %s\n", sel.Package))
	if sel.HasValue {
		sb.WriteString(fmt.Sprintf("Value:      %s\n", sel.ValueText))
	}
	sb.WriteString(fmt.Sprintf("Unit price: %s @ %d\n", formatPrice(sel.UnitPrice), sel.Quantity))
	if sel.Preferred {
		sb.WriteString("Preferred:  yes (basic part)\n")
	}
	sb.WriteString(fmt.Sprintf("\n%s\n", sel.Description))
	if len(sel.Trace) > 0 {
		sb.WriteString(fmt.Sprintf("\nTrace: %s", sel.Trace))
	}

	p.printBox("SELECTED PART", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintReport outputs a BOM run summary with one line per item.
func (p *Printer) PrintReport(report *pipeline.Report) {
	if report == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Run:       %s\n", report.RunID))
	sb.WriteString(fmt.Sprintf("Quantity:  %d\n", report.Quantity))
	sb.WriteString(fmt.Sprintf("Selected:  %d / %d\n", report.Selected, report.Total))
	if report.NotFound > 0 {
		sb.WriteString(fmt.Sprintf("Not found: %d\n", report.NotFound))
	}
	if report.Unsupported > 0 {
		sb.WriteString(fmt.Sprintf("Unsupported: %d\n", report.Unsupported))
	}
	if report.Failed > 0 {
		sb.WriteString(fmt.Sprintf("Failed:    %d\n", report.Failed))
	}
	sb.WriteString(fmt.Sprintf("Cost:      %s\n", fmt.Sprintf("%.4f", report.TotalCost())))

	if len(report.Results) > 0 {
		sb.WriteString("\n")
	}
	count := min(len(report.Results), maxItemsToShow)
	for i := 0; i < count; i++ {
		res := report.Results[i]
		name := res.Designator
		if name == "" {
			name = fmt.Sprintf("#%d", res.Index)
		}
		if res.Selection != nil {
			sb.WriteString(fmt.Sprintf("  ✓ %-6s %-10s %s\n", name, res.Selection.PartID, res.Selection.ManufacturerPartNumber))
			continue
		}
		sb.WriteString(fmt.Sprintf("  ✗ %-6s %s: %s\n", name, res.Status, res.Error))
	}
	if len(report.Results) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(report.Results)-maxItemsToShow))
	}

	p.printBox("BOM REPORT", strings.TrimSuffix(sb.String(), "\n"))
}

func formatPrice(price *float64) string {
	if price == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.4f", *price)
}
