// Package formatter renders refinement results for terminals. One
// formatter per output shape; the default prints a colored per-function
// header, the pipeline statistics, and optionally the refined source
// with line numbers.
package formatter

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	tt "github.com/restruct-labs/restruct/internal/types"
)

var (
	headerStyle   = color.New(color.FgGreen, color.Bold)
	warnStyle     = color.New(color.FgHiYellow, color.Bold)
	fnStyle       = color.New(color.FgYellow, color.Bold)
	fileStyle     = color.New(color.FgCyan, color.Bold)
	lineStyle     = color.New(color.FgHiBlue, color.Bold)
	statStyle     = color.New(color.FgWhite)
	emphasisStyle = color.New(color.FgMagenta, color.Bold)
)

// Generate renders every result, in order.
func Generate(results []tt.Result) string {
	var sb strings.Builder
	for _, res := range results {
		sb.WriteString(formatHeader(res))
		sb.WriteString(formatStats(res))
		if res.Source != "" {
			sb.WriteString(formatSource(res.Source))
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// formatHeader creates the per-function header, e.g.
// "refined: pick\n --> testdata/unit.ast.json".
func formatHeader(res tt.Result) string {
	var sb strings.Builder
	if res.Converged {
		sb.WriteString(headerStyle.Sprint("refined: "))
	} else {
		sb.WriteString(warnStyle.Sprint("partial: "))
	}
	sb.WriteString(fnStyle.Sprint(res.Function))
	sb.WriteByte('\n')
	if res.Filename != "" {
		sb.WriteString(lineStyle.Sprint(" --> "))
		sb.WriteString(fileStyle.Sprint(res.Filename))
		sb.WriteByte('\n')
	}
	return sb.String()
}

func formatStats(res tt.Result) string {
	var sb strings.Builder
	sb.WriteString(statStyle.Sprintf("  nodes: %d -> %d (", res.NodesBefore, res.NodesAfter))
	sb.WriteString(emphasisStyle.Sprintf("-%.1f%%", res.Reduction()))
	sb.WriteString(statStyle.Sprintf("), sweeps: %d", res.Sweeps))
	if !res.Converged {
		sb.WriteString(warnStyle.Sprint(" (ceiling)"))
	}
	sb.WriteByte('\n')
	sb.WriteString(statStyle.Sprintf("  oracle: %d queries, cache: %d hits / %d misses\n",
		res.OracleQueries, res.CacheHits, res.CacheMisses))
	return sb.String()
}

func formatSource(source string) string {
	var sb strings.Builder
	lines := strings.Split(strings.TrimRight(source, "\n"), "\n")
	width := len(fmt.Sprintf("%d", len(lines)))
	sb.WriteString(lineStyle.Sprintf("  %*s |\n", width, ""))
	for i, line := range lines {
		sb.WriteString(lineStyle.Sprintf("  %*d | ", width, i+1))
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Summary renders the batch totals line printed after a run.
func Summary(results []tt.Result) string {
	var before, after, queries int
	converged := 0
	for _, res := range results {
		before += res.NodesBefore
		after += res.NodesAfter
		queries += res.OracleQueries
		if res.Converged {
			converged++
		}
	}
	reduction := 0.0
	if before > 0 {
		reduction = 100 * float64(before-after) / float64(before)
	}
	return statStyle.Sprintf("%d functions (%d converged), nodes %d -> %d (-%.1f%%), %d oracle queries\n",
		len(results), converged, before, after, reduction, queries)
}
