package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/wonny/blackswan/backend/internal/contracts"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// Every command prints through these so output stays uniform
// ═══════════════════════════════════════════════════════════

// PrintHeader prints a titled block with key/value lines
func PrintHeader(title string, fields [][2]string) {
	fmt.Println()
	PrintDoubleSeparator()
	fmt.Printf("  %s\n", title)
	PrintSeparator()
	for _, f := range fields {
		fmt.Printf("  %-10s: %s\n", f[0], f[1])
	}
	PrintSeparator()
}

// PrintSeparator prints a visual separator
func PrintSeparator() {
	fmt.Println("───────────────────────────────────────────────────────────")
}

// PrintDoubleSeparator prints a double-line separator
func PrintDoubleSeparator() {
	fmt.Println("═══════════════════════════════════════════════════════════")
}

// PrintWarning prints a warning message
func PrintWarning(message string) {
	fmt.Println()
	fmt.Printf("⚠️  %s\n", message)
	fmt.Println()
}

// PrintSuccess prints a success message
func PrintSuccess(message string) {
	fmt.Printf("✅ %s\n", message)
}

// PrintCompletion prints the elapsed time of a command
func PrintCompletion(what string, started time.Time) {
	fmt.Println()
	fmt.Printf("✅ %s completed in %.2fs\n", what, time.Since(started).Seconds())
}

// PrintJSON writes v as indented JSON to stdout
func PrintJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// classificationIcon marks a classification for terminal output
func classificationIcon(c contracts.Classification) string {
	switch c {
	case contracts.ClassBlackSwan:
		return "🔴"
	case contracts.ClassElevated:
		return "🟡"
	default:
		return "🟢"
	}
}

// formatPercent formats a percentage with sign
func formatPercent(v float64) string {
	return fmt.Sprintf("%+.2f%%", v)
}

// formatDate formats an optional date
func formatDate(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format(contracts.DateLayout)
}
