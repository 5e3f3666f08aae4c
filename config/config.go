package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/FooFooDamon/kmodflags/resolver"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// KernelConfig describes the kernel-module flag table.
type KernelConfig struct {
	HomeDir         string   `mapstructure:"home_dir"`
	SourceSubdir    string   `mapstructure:"source_subdir"`
	SupportDir      string   `mapstructure:"support_dir"`
	Arch            string   `mapstructure:"arch"`
	ArchDefines     []string `mapstructure:"arch_defines"`
	ModuleName      string   `mapstructure:"module_name"`
	DiagnosticFlags []string `mapstructure:"diagnostic_flags"`
	ExtraFlags      []string `mapstructure:"extra_flags"`
}

// AppConfig describes the userspace flag table and which stems use it.
type AppConfig struct {
	Basenames []string `mapstructure:"basenames"`
	Flags     []string `mapstructure:"flags"`
}

// CompileDBConfig drives compile_commands.json generation.
type CompileDBConfig struct {
	Compiler   string   `mapstructure:"compiler"`
	Extensions []string `mapstructure:"extensions"`
	Output     string   `mapstructure:"output"`
}

// Config represents the structure of the configuration file
type Config struct {
	Version     string          `mapstructure:"version"`
	Theme       string          `mapstructure:"theme"`
	LogLevel    string          `mapstructure:"log_level"`
	EnableCache bool            `mapstructure:"enable_cache"`
	Kernel      KernelConfig    `mapstructure:"kernel"`
	App         AppConfig       `mapstructure:"app"`
	CompileDB   CompileDBConfig `mapstructure:"compile_db"`
}

// DefaultConfig values
var DefaultConfig = Config{
	Version:     "1.0.0",
	Theme:       "dracula",
	LogLevel:    "info",
	EnableCache: true,
	Kernel: KernelConfig{
		SourceSubdir:    "src/linux",
		SupportDir:      ".",
		Arch:            "arm",
		ArchDefines:     []string{"__LINUX_ARM_ARCH__=7"},
		ModuleName:      "dual_pcan_usb",
		DiagnosticFlags: []string{"-Wall", "-std=gnu89", "-x", "c"},
	},
	App: AppConfig{
		Basenames: []string{"setting_app"},
		Flags:     resolver.DefaultAppFlags(),
	},
	CompileDB: CompileDBConfig{
		Compiler:   "cc",
		Extensions: []string{".c"},
		Output:     "compile_commands.json",
	},
}

// ConfigFileName is looked up in the working directory as .yaml, .yml or .json.
const ConfigFileName = "kmodflags-config"

// cfgFile holds the path to the configuration file (set via CLI)
var cfgFile string

// LoadConfigs layers defaults, environment, the config file and CLI flags, in
// that order of increasing precedence. Unknown keys in the file are an error.
func LoadConfigs(rootCmd *cobra.Command, cwd string) (*Config, error) {
	v := viper.New()

	setDefaults(v)
	bindEnv(v)

	configPath, err := findConfigFile(cwd)
	if err != nil {
		return nil, err
	}
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configPath, err)
		}
	}

	if rootCmd != nil {
		bindFlags(v, rootCmd)
	}

	var config Config
	if err := v.UnmarshalExact(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// HOME is the fallback only; the file and --home_dir take precedence.
	if config.Kernel.HomeDir == "" {
		config.Kernel.HomeDir = os.Getenv("HOME")
	}

	return &config, nil
}

// UsedConfigFile returns the file LoadConfigs reads for cwd, or "".
func UsedConfigFile(cwd string) string {
	path, _ := findConfigFile(cwd)
	return path
}

func findConfigFile(cwd string) (string, error) {
	if cfgFile != "" {
		if GetConfigFileType(cfgFile) == "" {
			return "", fmt.Errorf("unsupported config file type: %s", cfgFile)
		}
		return cfgFile, nil
	}

	for _, ext := range []string{".yaml", ".yml", ".json"} {
		candidate := filepath.Join(cwd, ConfigFileName+ext)
		if fileExists(candidate) {
			return candidate, nil
		}
	}
	return "", nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("version", DefaultConfig.Version)
	v.SetDefault("theme", DefaultConfig.Theme)
	v.SetDefault("log_level", DefaultConfig.LogLevel)
	v.SetDefault("enable_cache", DefaultConfig.EnableCache)
	v.SetDefault("kernel.home_dir", "")
	v.SetDefault("kernel.source_subdir", DefaultConfig.Kernel.SourceSubdir)
	v.SetDefault("kernel.support_dir", DefaultConfig.Kernel.SupportDir)
	v.SetDefault("kernel.arch", DefaultConfig.Kernel.Arch)
	v.SetDefault("kernel.arch_defines", DefaultConfig.Kernel.ArchDefines)
	v.SetDefault("kernel.module_name", DefaultConfig.Kernel.ModuleName)
	v.SetDefault("kernel.diagnostic_flags", DefaultConfig.Kernel.DiagnosticFlags)
	v.SetDefault("kernel.extra_flags", []string{})
	v.SetDefault("app.basenames", DefaultConfig.App.Basenames)
	v.SetDefault("app.flags", DefaultConfig.App.Flags)
	v.SetDefault("compile_db.compiler", DefaultConfig.CompileDB.Compiler)
	v.SetDefault("compile_db.extensions", DefaultConfig.CompileDB.Extensions)
	v.SetDefault("compile_db.output", DefaultConfig.CompileDB.Output)
}

// bindEnv explicitly binds environment variables to configuration keys
func bindEnv(v *viper.Viper) {
	_ = v.BindEnv("kernel.source_subdir", "KMODFLAGS_KERNEL_SUBDIR")
	_ = v.BindEnv("kernel.arch", "KMODFLAGS_ARCH")
	_ = v.BindEnv("kernel.module_name", "KMODFLAGS_MODULE_NAME")
	_ = v.BindEnv("log_level", "KMODFLAGS_LOG_LEVEL")
	_ = v.BindEnv("enable_cache", "KMODFLAGS_ENABLE_CACHE")
}

// bindFlags binds the CLI flags to configuration values.
func bindFlags(v *viper.Viper, rootCmd *cobra.Command) {
	flags := rootCmd.PersistentFlags()
	_ = v.BindPFlag("theme", flags.Lookup("theme"))
	_ = v.BindPFlag("log_level", flags.Lookup("log_level"))
	_ = v.BindPFlag("enable_cache", flags.Lookup("enable_cache"))
	_ = v.BindPFlag("kernel.home_dir", flags.Lookup("home_dir"))
	_ = v.BindPFlag("kernel.arch", flags.Lookup("arch"))
	_ = v.BindPFlag("kernel.module_name", flags.Lookup("module_name"))
	_ = v.BindPFlag("kernel.extra_flags", flags.Lookup("extra_flag"))
}

// InitFlags initializes the flags for the root command.
func InitFlags(rootCmd *cobra.Command) {
	// Use PersistentFlags so that these flags are available in all subcommands
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Path to a configuration file (JSON or YAML). Defaults to kmodflags-config.{yaml,yml,json} in the working directory.")

	rootCmd.PersistentFlags().String("theme", DefaultConfig.Theme, "Color theme for highlighted output (e.g., 'dracula', 'monokai', 'github').")
	rootCmd.PersistentFlags().String("log_level", DefaultConfig.LogLevel, "Log level written to stderr: 'debug', 'info', 'warn' or 'error'.")
	rootCmd.PersistentFlags().Bool("enable_cache", DefaultConfig.EnableCache, "Cache include scan results under .cache/kmodflags.")

	rootCmd.PersistentFlags().String("home_dir", "", "Directory the kernel source tree is located under (defaults to $HOME).")
	rootCmd.PersistentFlags().String("arch", DefaultConfig.Kernel.Arch, "Kernel architecture used for arch/<arch>/include.")
	rootCmd.PersistentFlags().String("module_name", DefaultConfig.Kernel.ModuleName, "Kernel module name, used for KBUILD_MODNAME.")
	rootCmd.PersistentFlags().StringArray("extra_flag", nil, "Extra flag appended to the kernel-module flags; repeat to add several.")
}

// ResolverOptions maps the loaded configuration onto the resolver's options.
func (c *Config) ResolverOptions() resolver.Options {
	return resolver.Options{
		HomeDir:            c.Kernel.HomeDir,
		KernelSourceSubdir: c.Kernel.SourceSubdir,
		SupportDir:         c.Kernel.SupportDir,
		Arch:               c.Kernel.Arch,
		ArchDefines:        c.Kernel.ArchDefines,
		ModuleName:         c.Kernel.ModuleName,
		DiagnosticFlags:    c.Kernel.DiagnosticFlags,
		ExtraKernelFlags:   c.Kernel.ExtraFlags,
		AppFlags:           c.App.Flags,
		AppBasenames:       c.App.Basenames,
	}
}

// GetConfigFileType returns the type of the configuration file based on its extension
func GetConfigFileType(filename string) string {
	if strings.HasSuffix(filename, ".json") {
		return "json"
	} else if strings.HasSuffix(filename, ".yaml") || strings.HasSuffix(filename, ".yml") {
		return "yaml"
	}
	return ""
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
