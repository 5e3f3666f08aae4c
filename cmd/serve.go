package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/FooFooDamon/kmodflags/resolver/contracts"
	"github.com/phuslu/log"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Answer flag requests over stdin/stdout, one path per line",
	Long: `The 'serve' command keeps the flag tables loaded for a long-running editor
plugin. Each line read from stdin is a source path; each reply is a single line
of JSON on stdout, for the path exactly as sent. Empty lines are ignored. The command ends at EOF.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		deps := dependencies(cmd)
		return serveResolutions(cmd.InOrStdin(), cmd.OutOrStdout(), deps.Resolver)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serveResolutions(in io.Reader, out io.Writer, r contracts.IFlagResolver) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	writer := bufio.NewWriter(out)
	encoder := json.NewEncoder(writer)

	served := 0
	for scanner.Scan() {
		path := strings.TrimSuffix(scanner.Text(), "\r")
		if path == "" {
			continue
		}

		if err := encoder.Encode(r.ResolveFlags(path)); err != nil {
			return fmt.Errorf("failed to write reply: %w", err)
		}
		// Replies must reach the client before it sends the next request.
		if err := writer.Flush(); err != nil {
			return fmt.Errorf("failed to write reply: %w", err)
		}
		served++
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read request: %w", err)
	}

	log.Debug().Int("requests", served).Msg("serve finished")
	return nil
}
