// Package report renders simulation results as text, JSON, Markdown or
// HTML. All rounding to two decimals happens here, never in the engine.
package report

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/davidbz/llmspend/internal/domain"
)

// Format selects the output rendering.
type Format string

const (
	FormatText     Format = "text"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

const lineWidth = 80

// ParseFormat validates a format name from the CLI or query string.
func ParseFormat(name string) (Format, error) {
	switch Format(name) {
	case FormatText, FormatJSON, FormatMarkdown, FormatHTML:
		return Format(name), nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text, json, markdown or html)", name)
	}
}

// Reporter renders results (DI service).
type Reporter struct{}

// NewReporter creates a new reporter.
func NewReporter() *Reporter {
	return &Reporter{}
}

// Render formats a single scenario result.
func (r *Reporter) Render(result *domain.ScenarioResult, format Format) (string, error) {
	switch format {
	case FormatJSON:
		return marshalIndent(result)
	case FormatMarkdown:
		return r.renderMarkdown(result), nil
	case FormatHTML:
		return renderHTMLPage(result.Name, r.renderMarkdown(result))
	default:
		return r.renderText(result), nil
	}
}

// RenderComparison formats a ranked multi-scenario comparison.
func (r *Reporter) RenderComparison(comparison *domain.Comparison, format Format) (string, error) {
	switch format {
	case FormatJSON:
		return marshalIndent(comparison)
	case FormatMarkdown:
		return r.renderComparisonMarkdown(comparison), nil
	case FormatHTML:
		return renderHTMLPage("Scenario Comparison", r.renderComparisonMarkdown(comparison))
	default:
		return r.renderComparisonText(comparison), nil
	}
}

func marshalIndent(v interface{}) (string, error) {
	payload, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode report: %w", err)
	}
	return string(payload), nil
}

type costEntry struct {
	name string
	cost float64
}

// sortedByCost orders map entries by descending cost, ties broken by
// name so output stays stable.
func sortedByCost(costs map[string]float64) []costEntry {
	entries := make([]costEntry, 0, len(costs))
	for name, cost := range costs {
		entries = append(entries, costEntry{name: name, cost: cost})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].cost != entries[j].cost {
			return entries[i].cost > entries[j].cost
		}
		return entries[i].name < entries[j].name
	})
	return entries
}

func sortedGroups(groups map[string]domain.GroupCost) []string {
	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if groups[names[i]].Cost != groups[names[j]].Cost {
			return groups[names[i]].Cost > groups[names[j]].Cost
		}
		return names[i] < names[j]
	})
	return names
}

func (r *Reporter) renderText(result *domain.ScenarioResult) string {
	b := result.Breakdown
	rule := strings.Repeat("=", lineWidth)
	thin := strings.Repeat("-", lineWidth)

	var sb strings.Builder
	sb.WriteString(rule + "\n")
	sb.WriteString("LLM SPEND SIMULATION: " + result.Name + "\n")
	sb.WriteString(rule + "\n\n")

	fmt.Fprintf(&sb, "Total Monthly Cost: $%s\n", money(b.TotalCost))
	fmt.Fprintf(&sb, "Total API Calls: %s\n", count(b.TotalCalls))
	fmt.Fprintf(&sb, "Total Input Tokens: %s\n", count(b.TotalInputTokens))
	fmt.Fprintf(&sb, "Total Output Tokens: %s\n\n", count(b.TotalOutputTokens))

	sb.WriteString("Cost Breakdown by Model:\n" + thin + "\n")
	for _, entry := range sortedByCost(b.ByModel) {
		fmt.Fprintf(&sb, "  %-40s $%12s\n", entry.name, money(entry.cost))
	}

	sb.WriteString("\nCost Breakdown by Intent Group:\n" + thin + "\n")
	for _, name := range sortedGroups(b.ByGroup) {
		group := b.ByGroup[name]
		fmt.Fprintf(&sb, "  %-40s $%12s\n", name, money(group.Cost))
		fmt.Fprintf(&sb, "    Calls: %s\n", count(group.Calls))
	}

	sb.WriteString("\nCost Breakdown by Step:\n" + thin + "\n")
	for _, entry := range sortedByCost(b.ByStep) {
		fmt.Fprintf(&sb, "  %-40s $%12s\n", entry.name, money(entry.cost))
	}

	sb.WriteString("\nMetadata:\n" + thin + "\n")
	fmt.Fprintf(&sb, "  prices_updated_at: %s\n", b.Meta.PricesUpdatedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(&sb, "  model_count: %d\n", b.Meta.ModelCount)
	sb.WriteString(rule + "\n")

	return sb.String()
}

func (r *Reporter) renderMarkdown(result *domain.ScenarioResult) string {
	b := result.Breakdown

	var sb strings.Builder
	sb.WriteString("# " + result.Name + "\n\n## Summary\n\n")
	fmt.Fprintf(&sb, "- **Total Monthly Cost**: $%s\n", money(b.TotalCost))
	fmt.Fprintf(&sb, "- **Total API Calls**: %s\n", count(b.TotalCalls))
	fmt.Fprintf(&sb, "- **Total Input Tokens**: %s\n", count(b.TotalInputTokens))
	fmt.Fprintf(&sb, "- **Total Output Tokens**: %s\n", count(b.TotalOutputTokens))

	sb.WriteString("\n## Cost by Model\n\n| Model | Cost (USD) |\n|-------|------------|\n")
	for _, entry := range sortedByCost(b.ByModel) {
		fmt.Fprintf(&sb, "| %s | $%s |\n", entry.name, money(entry.cost))
	}

	sb.WriteString("\n## Cost by Intent Group\n\n| Intent Group | Cost (USD) | Calls |\n|--------------|------------|-------|\n")
	for _, name := range sortedGroups(b.ByGroup) {
		group := b.ByGroup[name]
		fmt.Fprintf(&sb, "| %s | $%s | %s |\n", name, money(group.Cost), count(group.Calls))
	}

	sb.WriteString("\n## Cost by Step\n\n| Step | Cost (USD) |\n|------|------------|\n")
	for _, entry := range sortedByCost(b.ByStep) {
		fmt.Fprintf(&sb, "| %s | $%s |\n", entry.name, money(entry.cost))
	}

	sb.WriteString("\n## Metadata\n\n")
	fmt.Fprintf(&sb, "- **prices_updated_at**: %s\n", b.Meta.PricesUpdatedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(&sb, "- **model_count**: %d\n", b.Meta.ModelCount)

	return sb.String()
}

func (r *Reporter) renderComparisonText(comparison *domain.Comparison) string {
	rule := strings.Repeat("=", lineWidth)
	thin := strings.Repeat("-", lineWidth)

	var sb strings.Builder
	sb.WriteString(rule + "\nSCENARIO COMPARISON\n" + rule + "\n\n")

	fmt.Fprintf(&sb, "%-45s %15s %15s\n", "Scenario", "Monthly Cost", "Calls")
	sb.WriteString(thin + "\n")
	for _, result := range comparison.Results {
		fmt.Fprintf(&sb, "%-45s $%14s %15s\n",
			result.Name, money(result.Breakdown.TotalCost), count(result.Breakdown.TotalCalls))
	}

	if len(comparison.Failures) > 0 {
		sb.WriteString("\nFailed Scenarios:\n" + thin + "\n")
		for _, failure := range comparison.Failures {
			fmt.Fprintf(&sb, "  %s: %s\n", failure.Name, failure.Error)
		}
	}

	sb.WriteString("\n" + rule + "\n")

	for i := range comparison.Results {
		result := &comparison.Results[i]
		sb.WriteString("\n" + result.Name + "\n")
		sb.WriteString(strings.Repeat("-", len(result.Name)) + "\n")
		sb.WriteString(r.renderText(result))
	}

	return sb.String()
}

func (r *Reporter) renderComparisonMarkdown(comparison *domain.Comparison) string {
	var sb strings.Builder
	sb.WriteString("# Scenario Comparison\n\n## Summary\n\n")
	sb.WriteString("| Scenario | Monthly Cost | Calls/Month |\n|----------|--------------|-------------|\n")
	for _, result := range comparison.Results {
		fmt.Fprintf(&sb, "| %s | $%s | %s |\n",
			result.Name, money(result.Breakdown.TotalCost), count(result.Breakdown.TotalCalls))
	}

	if len(comparison.Failures) > 0 {
		sb.WriteString("\n## Failed Scenarios\n\n")
		for _, failure := range comparison.Failures {
			fmt.Fprintf(&sb, "- **%s**: %s\n", failure.Name, failure.Error)
		}
	}

	for i := range comparison.Results {
		sb.WriteString("\n")
		sb.WriteString(r.renderMarkdown(&comparison.Results[i]))
	}

	return sb.String()
}

// money renders a dollar amount with comma grouping and two decimals.
func money(v float64) string {
	return groupDigits(fmt.Sprintf("%.2f", v))
}

// count renders a monthly expectation rounded to the nearest whole unit.
func count(v float64) string {
	return groupDigits(fmt.Sprintf("%.0f", v))
}

func groupDigits(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}

	intPart, fracPart := s, ""
	if dot := strings.IndexByte(s, '.'); dot >= 0 {
		intPart, fracPart = s[:dot], s[dot:]
	}

	if len(intPart) <= 3 {
		return sign + intPart + fracPart
	}

	var sb strings.Builder
	lead := len(intPart) % 3
	if lead > 0 {
		sb.WriteString(intPart[:lead])
	}
	for i := lead; i < len(intPart); i += 3 {
		if sb.Len() > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(intPart[i : i+3])
	}

	return sign + sb.String() + fracPart
}
