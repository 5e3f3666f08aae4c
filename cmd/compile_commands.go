package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/FooFooDamon/kmodflags/compiledb"
	"github.com/FooFooDamon/kmodflags/constants/lipgloss"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var compileCommandsCmd = &cobra.Command{
	Use:   "compile-commands [dir]",
	Short: "Write a compile_commands.json for clangd or ccls",
	Long: `The 'compile-commands' command walks the project (the current directory by
default), resolves the flags of every source file and writes a compilation
database. Directories listed in .kmodflags-ignore are skipped. Every entry uses
the current directory as its working directory, the same one 'doctor' resolves
relative include paths against.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		deps := dependencies(cmd)

		root := deps.Cwd
		if len(args) == 1 {
			root = args[0]
		}

		output, _ := cmd.Flags().GetString("output")
		if output == "" {
			output = filepath.Join(root, deps.Config.CompileDB.Output)
		}

		generator := &compiledb.Generator{
			Resolver:   deps.Resolver,
			Compiler:   deps.Config.CompileDB.Compiler,
			Extensions: deps.Config.CompileDB.Extensions,
			Directory:  deps.Cwd,
		}

		spinner, _ := pterm.DefaultSpinner.WithStyle(pterm.NewStyle(pterm.FgCyan)).
			WithSequence("⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏").
			WithDelay(100).WithRemoveWhenDone(true).
			WithWriter(cmd.ErrOrStderr()).
			Start("Resolving flags...")

		entries, err := generator.Generate(root)
		if err == nil {
			err = compiledb.WriteFile(output, entries)
		}
		_ = spinner.Stop()
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.ErrOrStderr(), lipgloss.Green.Render(fmt.Sprintf("✓ Wrote %d entries to %s", len(entries), output)))
		return nil
	},
}

func init() {
	compileCommandsCmd.Flags().StringP("output", "O", "", "Output file (default <dir>/compile_commands.json)")
	rootCmd.AddCommand(compileCommandsCmd)
}
