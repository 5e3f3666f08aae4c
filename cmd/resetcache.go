package cmd

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/FooFooDamon/kmodflags/constants/lipgloss"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// resetCacheCmd represents the reset-cache command
var resetCacheCmd = &cobra.Command{
	Use:   "reset-cache",
	Short: "Remove cached include scan results",
	Long: `The 'reset-cache' command removes every cached include scan under
.cache/kmodflags. Use it if 'doctor' reports stale results.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")
		stats, _ := cmd.Flags().GetBool("stats")
		return handleResetCacheCommand(cmd, force, stats)
	},
}

func init() {
	resetCacheCmd.Flags().BoolP("force", "f", false, "Force cache reset without confirmation")
	resetCacheCmd.Flags().BoolP("stats", "s", false, "Show cache statistics instead of resetting")

	rootCmd.AddCommand(resetCacheCmd)
}

func handleResetCacheCommand(cmd *cobra.Command, force bool, showStats bool) error {
	out := cmd.OutOrStdout()

	cache := dependencies(cmd).includeCache()
	if cache == nil {
		fmt.Fprintln(out, lipgloss.Yellow.Render("Cache is disabled. No cache to reset."))
		return nil
	}

	if showStats {
		cacheStats, err := cache.GetCacheStats()
		if err != nil {
			return fmt.Errorf("could not read cache statistics: %w", err)
		}
		body := fmt.Sprintf("Cache Directory: %s\nCached Files: %d\nTotal Size: %.2f KB",
			cacheStats["cache_dir"], cacheStats["cache_files"], float64(cacheStats["total_size"].(int64))/1024)
		fmt.Fprintln(out, lipgloss.Info.Render("Cache Statistics:"))
		fmt.Fprintln(out, lipgloss.BoxStyle.Render(body))
		return nil
	}

	if !force {
		reader := bufio.NewReader(cmd.InOrStdin())
		fmt.Fprint(out, lipgloss.BlueSky.Render("Are you sure you want to reset the include cache? (y/N): "))
		response, _ := reader.ReadString('\n')
		response = strings.TrimSpace(strings.ToLower(response))
		if response != "y" && response != "yes" {
			fmt.Fprintln(out, lipgloss.Yellow.Render("Cache reset cancelled."))
			return nil
		}
	}

	spinner, _ := pterm.DefaultSpinner.WithStyle(pterm.NewStyle(pterm.FgCyan)).
		WithSequence("⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏").
		WithDelay(100).WithRemoveWhenDone(true).
		WithWriter(cmd.ErrOrStderr()).
		Start("Resetting include cache...")

	err := cache.ClearCache()
	_ = spinner.Stop()
	if err != nil {
		return fmt.Errorf("error resetting cache: %w", err)
	}

	fmt.Fprintln(out, lipgloss.Green.Render("✓ Include cache has been reset."))
	return nil
}
