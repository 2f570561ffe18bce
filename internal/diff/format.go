package diff

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dshills/covdiff/internal/coverage"
)

// Status icons rendered in the first table column.
const (
	IconAdded     = ":new:"
	IconRemoved   = ":yellow_circle:"
	IconIncreased = ":green_circle:"
	IconDecreased = ":red_circle:"
	IconUnchanged = ":white_circle:"
)

// TableHeader is the markdown header matching the rows from CoverageDetails.
const TableHeader = "Status | File | % Stmts | % Branch | % Funcs | % Lines\n-----|-----|---------|----------|---------|------"

// CoverageDetails returns one formatted table row per reported file, sorted by
// path. pathPrefix is trimmed from the front of each path.
func (c *Checker) CoverageDetails(onlyChanges bool, pathPrefix string) []string {
	changes := c.Changes(onlyChanges)
	rows := make([]string, 0, len(changes))
	for _, f := range changes {
		rows = append(rows, FormatRow(f, pathPrefix))
	}
	return rows
}

// FormatRow renders a FileDiff as a markdown table row.
func FormatRow(f FileDiff, pathPrefix string) string {
	name := strings.TrimPrefix(f.Path, pathPrefix)

	var icon string
	cells := make([]string, 0, len(coverage.Metrics))
	switch f.Status {
	case StatusAdded:
		icon, name = IconAdded, "**"+name+"**"
		for _, m := range coverage.Metrics {
			cells = append(cells, "**"+FormatPct(f.Metrics[m].New)+"**")
		}
	case StatusRemoved:
		icon, name = IconRemoved, "~~"+name+"~~"
		for _, m := range coverage.Metrics {
			cells = append(cells, "~~"+FormatPct(f.Metrics[m].Old)+"~~")
		}
	case StatusChanged:
		icon = IconIncreased
		if f.NetDelta() < 0 {
			icon = IconDecreased
		}
		for _, m := range coverage.Metrics {
			md := f.Metrics[m]
			cells = append(cells, fmt.Sprintf("%s (Δ %s)", FormatPct(md.New), FormatDelta(md.Delta)))
		}
	default:
		icon = IconUnchanged
		for _, m := range coverage.Metrics {
			cells = append(cells, FormatPct(f.Metrics[m].New))
		}
	}
	return fmt.Sprintf(" %s | %s | %s", icon, name, strings.Join(cells, " | "))
}

// FormatPct renders a percentage with the shortest exact decimal form.
func FormatPct(v float64) string {
	return formatNumber(v) + "%"
}

// FormatDelta renders a signed percentage-point delta.
func FormatDelta(v float64) string {
	if v > 0 {
		return "+" + formatNumber(v) + "%"
	}
	return formatNumber(v) + "%"
}

func formatNumber(v float64) string {
	if v == 0 {
		return "0"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
