package cmd

import (
	"fmt"
	"io"

	"github.com/FooFooDamon/kmodflags/constants/lipgloss"
	"github.com/FooFooDamon/kmodflags/includes"
	"github.com/FooFooDamon/kmodflags/resolver/models"
	"github.com/spf13/cobra"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor <file>...",
	Short: "Check that every #include of a file resolves with its flags",
	Long: `The 'doctor' command resolves the flags of each file, parses its #include
directives and looks them up in the include directories those flags name.
Missing headers usually mean the kernel tree is not where the configuration
expects it (see kernel.home_dir and kernel.source_subdir).`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		deps := dependencies(cmd)
		scanner := includes.NewScanner(deps.includeCache())
		out := cmd.OutOrStdout()

		missing := 0
		for _, path := range args {
			res := deps.Resolver.ResolveFlags(path)

			directives, err := scanner.Scan(cmd.Context(), path)
			if err != nil {
				return err
			}

			findings := includes.ResolveIncludes(path, deps.Cwd, directives, includes.ParseSearchPaths(res.Flags))
			missing += printFindings(out, path, res.Kind, findings)
		}

		if missing > 0 {
			return fmt.Errorf("%d include(s) could not be resolved", missing)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func printFindings(w io.Writer, path string, kind models.SourceKind, findings []includes.Finding) int {
	fmt.Fprintln(w, lipgloss.Info.Render(fmt.Sprintf("%s (%s)", path, kind)))

	missing := 0
	for _, f := range findings {
		label := f.Directive.String()
		if f.Forced {
			label = "-include " + f.Directive.Path
		} else {
			label = fmt.Sprintf("%d: %s", f.Directive.Line, label)
		}

		if f.Found() {
			fmt.Fprintf(w, "  %s %s -> %s\n", lipgloss.Green.Render("✓"), label, f.Resolved)
			continue
		}
		missing++
		fmt.Fprintf(w, "  %s %s\n", lipgloss.Red.Render("✗"), label)
	}
	return missing
}
