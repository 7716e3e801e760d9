package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// DiagCmd shows collector diagnostics for a client built from the current
// configuration
var DiagCmd = &cobra.Command{
	Use:   "diag",
	Short: "Show cache collector diagnostics and resolved configuration",
	Long:  `Display the resolved cache bounds, collector statistics, and any memory pressure warnings for a client built from the current configuration.`,
	RunE:  runDiag,
}

func runDiag(cmd *cobra.Command, args []string) error {
	c := newClient()
	defer c.Close()

	diag := c.GC().Diagnostics()

	fmt.Printf("Ember Cache Diagnostics\n")
	fmt.Printf("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n")
	fmt.Printf("App ID:              %s\n", cfg.App.ID)
	fmt.Printf("Collector Running:   %t\n", diag.Running)
	fmt.Printf("Tracked Entities:    %d\n", diag.TrackedEntities)
	fmt.Printf("Estimated Cost:      %d\n", diag.EstimatedTotalCost)
	fmt.Printf("Sacred Entities:     %d\n", diag.SacredCount)
	fmt.Println()

	fmt.Printf("Configured Bounds (0 = disabled):\n")
	fmt.Printf("  Max Entities:      %d\n", diag.Config.MaxEntities)
	fmt.Printf("  Max Age:           %s\n", formatBound(diag.Config.MaxAge))
	fmt.Printf("  Max Total Cost:    %d\n", diag.Config.MaxTotalCost)
	fmt.Printf("  GC Interval:       %s\n", formatBound(diag.Config.Interval))
	fmt.Println()

	stats := diag.Stats
	fmt.Printf("Collection Statistics:\n")
	fmt.Printf("  Passes Run:        %d\n", stats.Runs)
	fmt.Printf("  Orphans Removed:   %d\n", stats.TotalOrphanedRemoved)
	fmt.Printf("  Aged Out:          %d\n", stats.TotalAgedOut)
	fmt.Printf("  LRU Evicted:       %d\n", stats.TotalLRUEvicted)
	fmt.Printf("  Size Evicted:      %d\n", stats.TotalSizeEvicted)
	if !stats.LastRunAt.IsZero() {
		fmt.Printf("  Last Pass:         %s (%s)\n", stats.LastRunAt.Format(time.RFC3339), stats.LastRunDuration)
	}

	warnings := c.GC().CheckPressure()
	if len(warnings) > 0 {
		fmt.Println()
		fmt.Printf("Pressure Warnings:\n")
		for _, w := range warnings {
			fmt.Printf("  %s at %.0f%% of limit (%d/%d)\n", w.Dimension, w.FillPercent*100, w.Current, w.Limit)
		}
	}

	return nil
}

// formatBound renders a duration bound, showing disabled bounds explicitly
func formatBound(d time.Duration) string {
	if d <= 0 {
		return "disabled"
	}
	return d.String()
}
