package cli

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// fatih/color disables itself when stdout is not a terminal.
var (
	successColor = color.New(color.FgGreen, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	listColor    = color.New(color.FgCyan)
	headerColor  = color.New(color.FgBlue, color.Bold)
	labelColor   = color.New(color.FgWhite, color.Bold)
	valueColor   = color.New(color.FgHiBlack)
)

// PrintSection prints a section header, e.g. one per repository in plan output.
func PrintSection(title string) {
	fmt.Println()
	_, _ = headerColor.Printf("▸ %s\n", title)
	fmt.Println()
}

// PrintSuccess prints msg behind a check mark.
func PrintSuccess(msg string) {
	_, _ = successColor.Printf("✓ %s\n", msg)
}

// PrintWarning prints msg behind a warning sign.
func PrintWarning(msg string) {
	_, _ = warningColor.Printf("⚠ %s\n", msg)
}

// PrintInfo prints msg without decoration.
func PrintInfo(msg string) {
	fmt.Println(msg)
}

// PrintLabelValue prints an indented "label: value" line.
func PrintLabelValue(label, value string) {
	_, _ = labelColor.Printf("  %s: ", label)
	_, _ = valueColor.Println(value)
}

// PrintList prints one bullet per item at the given indent level.
func PrintList(items []string, indent int) {
	prefix := strings.Repeat("  ", indent)
	for _, item := range items {
		_, _ = listColor.Printf("%s• %s\n", prefix, item)
	}
}

// PrintTable prints rows in left-aligned columns under a dashed header.
// Cells beyond the header count are dropped.
func PrintTable(headers []string, rows [][]string) {
	if len(headers) == 0 || len(rows) == 0 {
		return
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i := 0; i < len(row) && i < len(widths); i++ {
			widths[i] = max(widths[i], len(row[i]))
		}
	}

	printRow := func(cells []string, clr *color.Color) {
		fmt.Print("  ")
		for i := 0; i < len(cells) && i < len(widths); i++ {
			if i > 0 {
				fmt.Print("  ")
			}
			_, _ = clr.Printf("%-*s", widths[i], cells[i])
		}
		fmt.Println()
	}

	rules := make([]string, len(widths))
	for i, w := range widths {
		rules[i] = strings.Repeat("-", w)
	}

	printRow(headers, headerColor)
	printRow(rules, valueColor)
	for _, row := range rows {
		printRow(row, valueColor)
	}
}

// PrintEmptyState prints a dimmed placeholder for an empty listing.
func PrintEmptyState(msg string) {
	_, _ = valueColor.Printf("  %s\n", msg)
}

// PrintSeparator prints a horizontal rule.
func PrintSeparator() {
	_, _ = labelColor.Println("\n  " + strings.Repeat("─", 58))
}

// PrintCount returns count followed by the singular or plural noun.
func PrintCount(count int, singular, plural string) string {
	if count == 1 {
		return fmt.Sprintf("%d %s", count, singular)
	}
	return fmt.Sprintf("%d %s", count, plural)
}
