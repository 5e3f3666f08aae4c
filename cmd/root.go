package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/FooFooDamon/kmodflags/config"
	"github.com/FooFooDamon/kmodflags/constants/lipgloss"
	"github.com/FooFooDamon/kmodflags/includes"
	"github.com/FooFooDamon/kmodflags/resolver"
	"github.com/FooFooDamon/kmodflags/utils"
	"github.com/phuslu/log"
	"github.com/spf13/cobra"
)

// RootDependencies is everything a subcommand needs, built once per process.
type RootDependencies struct {
	Cwd      string
	Config   *config.Config
	Resolver *resolver.Configuration
}

type depsKey struct{}

var rootCmd = &cobra.Command{
	Use:   "kmodflags",
	Short: "Compiler flags for editor tooling on a Linux driver and its userspace tools",
	Long: `kmodflags tells code-completion engines (YouCompleteMe, clangd, ccls) which
compiler flags to use for each source file of a kernel driver module and its
companion userspace application. Userspace sources are recognized by their
file stem; everything else is compiled as part of the kernel module.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if skipsDependencies(cmd) {
			return nil
		}
		deps, err := handleRootCommand(cmd)
		if err != nil {
			return err
		}
		cmd.SetContext(context.WithValue(cmd.Context(), depsKey{}, deps))
		return nil
	},
}

func init() {
	config.InitFlags(rootCmd)
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, lipgloss.Red.Render(fmt.Sprintf("Error: %v", err)))
		os.Exit(1)
	}
}

func handleRootCommand(cmd *cobra.Command) (*RootDependencies, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get current working directory: %w", err)
	}

	cfg, err := config.LoadConfigs(cmd.Root(), cwd)
	if err != nil {
		return nil, err
	}

	setupLogger(cfg.LogLevel)
	if path := config.UsedConfigFile(cwd); path != "" {
		log.Debug().Str("path", path).Msg("loaded configuration file")
	}

	conf, err := resolver.NewConfiguration(cfg.ResolverOptions())
	if err != nil {
		return nil, err
	}
	log.Debug().
		Str("fingerprint", conf.Fingerprint()).
		Str("kernel_root", resolver.KernelRoot(cfg.ResolverOptions())).
		Strs("app_basenames", conf.AppBasenames()).
		Msg("flag tables ready")

	return &RootDependencies{
		Cwd:      cwd,
		Config:   cfg,
		Resolver: conf,
	}, nil
}

// includeCache opens the on-disk include cache, or returns nil when caching
// is disabled or the cache directory cannot be created.
func (deps *RootDependencies) includeCache() *includes.CacheManager {
	if !deps.Config.EnableCache {
		return nil
	}
	cache, err := includes.NewCacheManager(filepath.Join(deps.Cwd, ".cache", "kmodflags"))
	if err != nil {
		log.Warn().Err(err).Msg("failed to initialize include cache")
		return nil
	}
	return cache
}

// skipsDependencies reports whether cmd (or a command it belongs to) runs
// without loading the configuration.
func skipsDependencies(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		switch c.Name() {
		case versionCmd.Name(), "help", "completion", cobra.ShellCompRequestCmd, cobra.ShellCompNoDescRequestCmd:
			return true
		}
	}
	return false
}

func dependencies(cmd *cobra.Command) *RootDependencies {
	deps, _ := cmd.Context().Value(depsKey{}).(*RootDependencies)
	return deps
}

func setupLogger(level string) {
	log.DefaultLogger = log.Logger{
		Level:      log.ParseLevel(level),
		TimeFormat: "15:04:05",
		Writer: &log.ConsoleWriter{
			Writer:      os.Stderr,
			ColorOutput: utils.IsTerminal(os.Stderr),
		},
	}
}
