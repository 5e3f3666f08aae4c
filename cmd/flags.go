package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/FooFooDamon/kmodflags/resolver/models"
	"github.com/FooFooDamon/kmodflags/utils"
	"github.com/spf13/cobra"
)

// flagsCmd represents the flags command
var flagsCmd = &cobra.Command{
	Use:   "flags <file>...",
	Short: "Print the compiler flags for one or more source files",
	Long: `The 'flags' command classifies each file by its stem and prints the flags to
compile it with. The default JSON form is what YouCompleteMe's extra-conf
expects: {"flags": [...], "do_cache": true}. Use --format lines for one flag per
line, e.g. to build a compile_flags.txt.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		deps := dependencies(cmd)

		out := cmd.OutOrStdout()
		color := false
		if f, ok := out.(*os.File); ok {
			color = utils.IsTerminal(f)
		}

		for _, path := range args {
			res := deps.Resolver.ResolveFlags(path)
			if err := writeResolution(out, res, format, deps.Config.Theme, color); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	flagsCmd.Flags().StringP("format", "o", "json", "Output format: 'json' or 'lines'")
	rootCmd.AddCommand(flagsCmd)
}

func writeResolution(w io.Writer, res models.Resolution, format string, theme string, color bool) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode resolution: %w", err)
		}
		return utils.WriteHighlighted(w, string(data)+"\n", "json", theme, color)
	case "lines":
		_, err := io.WriteString(w, strings.Join(res.Flags, "\n")+"\n")
		return err
	default:
		return fmt.Errorf("unknown format %q (want 'json' or 'lines')", format)
	}
}
