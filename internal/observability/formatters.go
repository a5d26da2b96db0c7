// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/card-analyzer/internal/pipeline"
	"github.com/jonathan/card-analyzer/internal/types"
	"github.com/jonathan/card-analyzer/internal/vectorstore"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
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
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintCard outputs a human-readable summary of a validated card record.
func (p *Printer) PrintCard(card *types.CardRecord) {
	if card == nil {
		return
	}

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Player:   %s", card.Player.Name))
	if card.Player.Team != "" {
		sb.WriteString(fmt.Sprintf(" (%s)", card.Player.Team))
	}
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Card:     %d %s", card.Details.Year, card.Details.Brand))
	if card.Details.SetName != "" {
		sb.WriteString(" " + card.Details.SetName)
	}
	if card.Details.CardNumber != "" {
		sb.WriteString(" #" + card.Details.CardNumber)
	}
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Grade:    PSA %g", card.Grading.Grade))
	if card.Grading.GradeLabel != "" {
		sb.WriteString(" " + card.Grading.GradeLabel)
	}
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Cert:     %s\n", card.Grading.CertNumber))
	sb.WriteString(fmt.Sprintf("Sport:    %s", card.Meta.Sport))

	flags := []string{}
	if card.Details.Rookie {
		flags = append(flags, "Rookie")
	}
	if card.Details.Autographed {
		flags = append(flags, "Autographed")
	}
	if card.Details.SerialNumber != "" {
		flags = append(flags, "Serial #"+card.Details.SerialNumber)
	}
	if len(flags) > 0 {
		sb.WriteString("\nFlags:    " + strings.Join(flags, ", "))
	}
	if card.Meta.EstimatedValue != "" {
		sb.WriteString("\nValue:    " + card.Meta.EstimatedValue)
	}

	p.printBox("EXTRACTED CARD", sb.String())
}

// PrintVerification outputs the certification registry lookup outcome.
func (p *Printer) PrintVerification(v *types.Verification) {
	if v == nil {
		return
	}

	var sb strings.Builder
	status := "✗ not verified"
	if v.IsValid {
		status = "✓ verified"
	}
	sb.WriteString(fmt.Sprintf("Status:   %s\n", status))
	sb.WriteString(fmt.Sprintf("Cert:     %s", v.CertNumber))

	if note, ok := v.Details["note"].(string); ok && note != "" {
		sb.WriteString("\nNote:     " + note)
	}
	if grade, ok := v.Details["registry_grade"]; ok {
		sb.WriteString(fmt.Sprintf("\nRegistry: grade %v", grade))
	}
	if player, ok := v.Details["registry_player"].(string); ok && player != "" {
		sb.WriteString("\nRegistry: player " + player)
	}

	p.printBox("CERTIFICATION CHECK", sb.String())
}

// PrintDescription outputs the generated description and the web snippets
// that informed it.
func (p *Printer) PrintDescription(description string, results []types.WebSearchResult) {
	if description == "" {
		return
	}

	var sb strings.Builder
	sb.WriteString(description)

	if len(results) > 0 {
		sb.WriteString("\n\nWeb sources:\n")
		count := min(len(results), 3)
		for i := 0; i < count; i++ {
			sb.WriteString(fmt.Sprintf("  • %s\n", results[i].Title))
		}
		if len(results) > 3 {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(results)-3))
		}
	}

	p.printBox("DESCRIPTION", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintSearchResults outputs ranked hybrid search results with per-space scores.
func (p *Printer) PrintSearchResults(results []types.SearchResult) {
	if len(results) == 0 {
		p.printBox("SEARCH RESULTS", "No results")
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Total results: %d\n\n", len(results)))

	count := min(len(results), maxItemsToShow)
	for i := 0; i < count; i++ {
		r := results[i]
		label := r.CardID
		if name, ok := r.Metadata[vectorstore.KeyPlayerName].(string); ok && name != "" {
			label = name
		}
		sb.WriteString(fmt.Sprintf("#%d  %s\n", i+1, label))
		sb.WriteString(fmt.Sprintf("    Score: %.3f (text %.3f, image %.3f)\n",
			r.Scores.Combined, r.Scores.Text, r.Scores.Image))
		if desc, ok := r.Metadata[vectorstore.KeyTextDesc].(string); ok && desc != "" {
			if len(desc) > 45 {
				desc = desc[:42] + "..."
			}
			sb.WriteString(fmt.Sprintf("    %s\n", desc))
		}
		if i < count-1 {
			sb.WriteString("\n")
		}
	}

	if len(results) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n... and %d more results", len(results)-maxItemsToShow))
	}

	p.printBox("SEARCH RESULTS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintFailure outputs a pipeline failure.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintFailure(f *pipeline.Failure) {
	if f == nil {
		fmt.Fprintf(p.out, "┌%s┐\n", strings.Repeat("─", boxWidth-2))
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, "✅ ANALYSIS COMPLETE")
		fmt.Fprintf(p.out, "└%s┘\n", strings.Repeat("─", boxWidth-2))
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("⚠ %s\n", f.Kind))
	reason := f.Reason
	if len(reason) > 45 {
		reason = reason[:42] + "..."
	}
	sb.WriteString(fmt.Sprintf("  %s", reason))

	p.printBox("ANALYSIS FAILED", sb.String())
}
